package verify_test

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muhlemmer/gu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/storesign/storesign/internal/testutil"
	"github.com/storesign/storesign/pkg/store"
	"github.com/storesign/storesign/pkg/verify"
)

const (
	testBundleID = "com.example"
	testAppID    = int64(1234)
)

func newVerifier(t *testing.T, chain *tu.Chain, options ...verify.Option) *verify.Verifier {
	t.Helper()
	v, err := verify.New([][]byte{chain.RootDER}, store.EnvironmentSandbox, testBundleID, gu.Ptr(testAppID), false, options...)
	require.NoError(t, err)
	return v
}

func testTransaction() *store.Transaction {
	return &store.Transaction{
		TransactionID: "1000",
		BundleID:      testBundleID,
		Environment:   store.EnvironmentSandbox,
	}
}

func TestVerifyAndDecodeTransaction(t *testing.T) {
	chain := tu.NewChain()
	v := newVerifier(t, chain)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		token := chain.SignToken(testTransaction(), chain.X5C())
		transaction, err := v.VerifyAndDecodeTransaction(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "1000", transaction.TransactionID)
		assert.Equal(t, testBundleID, transaction.BundleID)
		assert.Equal(t, store.EnvironmentSandbox, transaction.Environment)
	})

	t.Run("success with root in chain", func(t *testing.T) {
		token := chain.SignToken(testTransaction(), chain.X5CWithRoot())
		_, err := v.VerifyAndDecodeTransaction(ctx, token)
		require.NoError(t, err)
	})

	t.Run("wrong bundle id", func(t *testing.T) {
		other, err := verify.New([][]byte{chain.RootDER}, store.EnvironmentSandbox, "com.other", nil, false)
		require.NoError(t, err)
		token := chain.SignToken(testTransaction(), chain.X5C())
		_, err = other.VerifyAndDecodeTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidBundleID))
	})

	t.Run("environment mismatch", func(t *testing.T) {
		production, err := verify.New([][]byte{chain.RootDER}, store.EnvironmentProduction, testBundleID, nil, false)
		require.NoError(t, err)
		token := chain.SignToken(testTransaction(), chain.X5C())
		_, err = production.VerifyAndDecodeTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidEnvironment))

		productionTx := testTransaction()
		productionTx.Environment = store.EnvironmentProduction
		token = chain.SignToken(productionTx, chain.X5C())
		_, err = v.VerifyAndDecodeTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidEnvironment))
	})

	t.Run("untrusted root", func(t *testing.T) {
		other := tu.NewChain()
		token := other.SignToken(testTransaction(), other.X5C())
		_, err := v.VerifyAndDecodeTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.UntrustedRoot))
	})

	t.Run("expired leaf", func(t *testing.T) {
		now := time.Now()
		expired := tu.NewChain(tu.WithLeafValidity(now.Add(-2*time.Hour), now.Add(-time.Hour)))
		v, err := verify.New([][]byte{expired.RootDER}, store.EnvironmentSandbox, testBundleID, nil, false)
		require.NoError(t, err)
		token := expired.SignToken(testTransaction(), expired.X5C())
		_, err = v.VerifyAndDecodeTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewCertError(store.CertificateExpired, 0))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := tu.NewChain()
		token := tu.SignTokenWithKey(other.LeafKey, testTransaction(), chain.X5C())
		_, err := v.VerifyAndDecodeTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidSignature))
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		token := chain.SignToken(testTransaction(), chain.X5C())
		parts := strings.Split(token, ".")
		header := `{"alg":"RS256","x5c":["` + strings.Join(chain.X5C(), `","`) + `"]}`
		parts[0] = base64.RawURLEncoding.EncodeToString([]byte(header))
		_, err := v.VerifyAndDecodeTransaction(ctx, strings.Join(parts, "."))
		assert.ErrorIs(t, err, store.NewError(store.UnsupportedAlgorithm))
	})
}

// Tampering with the payload or signature segment of a valid token must
// always surface as an invalid signature, regardless of which byte changed.
func TestVerifyAndDecodeTransactionTampered(t *testing.T) {
	chain := tu.NewChain()
	v := newVerifier(t, chain)
	ctx := context.Background()
	token := chain.SignToken(testTransaction(), chain.X5C())
	parts := strings.Split(token, ".")

	flip := func(s string, i int) string {
		replacement := byte('A')
		if s[i] == 'A' {
			replacement = 'B'
		}
		return s[:i] + string(replacement) + s[i+1:]
	}

	t.Run("payload", func(t *testing.T) {
		for i := range parts[1] {
			tampered := parts[0] + "." + flip(parts[1], i) + "." + parts[2]
			_, err := v.VerifyAndDecodeTransaction(ctx, tampered)
			assert.ErrorIs(t, err, store.NewError(store.InvalidSignature), "flipped payload byte %d", i)
		}
	})

	t.Run("signature", func(t *testing.T) {
		for i := range parts[2] {
			tampered := parts[0] + "." + parts[1] + "." + flip(parts[2], i)
			_, err := v.VerifyAndDecodeTransaction(ctx, tampered)
			assert.ErrorIs(t, err, store.NewError(store.InvalidSignature), "flipped signature byte %d", i)
		}
	})

	t.Run("header", func(t *testing.T) {
		for i := range parts[0] {
			tampered := flip(parts[0], i) + "." + parts[1] + "." + parts[2]
			_, err := v.VerifyAndDecodeTransaction(ctx, tampered)
			assert.Error(t, err, "flipped header byte %d", i)
		}
	})
}

func TestVerifyAndDecodeRenewalInfo(t *testing.T) {
	chain := tu.NewChain()
	v := newVerifier(t, chain)
	ctx := context.Background()

	renewalInfo := &store.RenewalInfo{
		OriginalTransactionID: "1000",
		AutoRenewProductID:    "com.example.premium",
		AutoRenewStatus:       gu.Ptr(store.AutoRenewStatusOn),
		Environment:           store.EnvironmentSandbox,
	}

	t.Run("success", func(t *testing.T) {
		token := chain.SignToken(renewalInfo, chain.X5C())
		decoded, err := v.VerifyAndDecodeRenewalInfo(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "1000", decoded.OriginalTransactionID)
		require.NotNil(t, decoded.AutoRenewStatus)
		assert.Equal(t, store.AutoRenewStatusOn, *decoded.AutoRenewStatus)
	})

	t.Run("environment mismatch", func(t *testing.T) {
		productionInfo := *renewalInfo
		productionInfo.Environment = store.EnvironmentProduction
		token := chain.SignToken(&productionInfo, chain.X5C())
		_, err := v.VerifyAndDecodeRenewalInfo(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidEnvironment))
	})
}

func TestVerifyAndDecodeAppTransaction(t *testing.T) {
	chain := tu.NewChain()
	v := newVerifier(t, chain)
	ctx := context.Background()

	appTransaction := &store.AppTransaction{
		ReceiptType:        store.EnvironmentSandbox,
		BundleID:           testBundleID,
		AppID:              gu.Ptr(testAppID),
		ApplicationVersion: "1.2.3",
	}

	t.Run("success", func(t *testing.T) {
		token := chain.SignToken(appTransaction, chain.X5C())
		decoded, err := v.VerifyAndDecodeAppTransaction(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", decoded.ApplicationVersion)
	})

	t.Run("wrong app id", func(t *testing.T) {
		wrong := *appTransaction
		wrong.AppID = gu.Ptr(int64(99))
		token := chain.SignToken(&wrong, chain.X5C())
		_, err := v.VerifyAndDecodeAppTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidAppIdentifier))
	})

	t.Run("wrong environment", func(t *testing.T) {
		wrong := *appTransaction
		wrong.ReceiptType = store.EnvironmentProduction
		token := chain.SignToken(&wrong, chain.X5C())
		_, err := v.VerifyAndDecodeAppTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidEnvironment))
	})
}

func TestVerifyAndDecodeNotification(t *testing.T) {
	chain := tu.NewChain()
	v := newVerifier(t, chain)
	ctx := context.Background()

	notification := func(data *store.NotificationData) *store.NotificationPayload {
		return &store.NotificationPayload{
			NotificationType: store.NotificationTypeDidRenew,
			NotificationUUID: "0f47d470-2f9b-4d6e-8a3c-6e1f2a9b4c5d",
			Version:          "2.0",
			Data:             data,
		}
	}

	t.Run("success with nested tokens", func(t *testing.T) {
		nestedTransaction := chain.SignToken(testTransaction(), chain.X5C())
		nestedRenewal := chain.SignToken(&store.RenewalInfo{
			OriginalTransactionID: "1000",
			AutoRenewProductID:    "com.example.premium",
			Environment:           store.EnvironmentSandbox,
		}, chain.X5C())

		token := chain.SignToken(notification(&store.NotificationData{
			Environment:           store.EnvironmentSandbox,
			BundleID:              testBundleID,
			AppID:                 gu.Ptr(testAppID),
			SignedTransactionInfo: nestedTransaction,
			SignedRenewalInfo:     nestedRenewal,
		}), chain.X5C())

		decoded, err := v.VerifyAndDecodeNotification(ctx, token)
		require.NoError(t, err)
		require.NotNil(t, decoded.Data)
		require.NotNil(t, decoded.Data.TransactionInfo)
		assert.Equal(t, "1000", decoded.Data.TransactionInfo.TransactionID)
		require.NotNil(t, decoded.Data.RenewalInfo)
		assert.Equal(t, "com.example.premium", decoded.Data.RenewalInfo.AutoRenewProductID)
	})

	t.Run("nested token from untrusted chain", func(t *testing.T) {
		// A validly-signed outer envelope must not lend its validity to a
		// nested token signed by a chain outside the trusted set.
		foreign := tu.NewChain()
		nested := foreign.SignToken(testTransaction(), foreign.X5C())

		token := chain.SignToken(notification(&store.NotificationData{
			Environment:           store.EnvironmentSandbox,
			BundleID:              testBundleID,
			SignedTransactionInfo: nested,
		}), chain.X5C())

		_, err := v.VerifyAndDecodeNotification(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.UntrustedRoot))
	})

	t.Run("nested token for wrong bundle", func(t *testing.T) {
		wrongTx := testTransaction()
		wrongTx.BundleID = "com.other"
		nested := chain.SignToken(wrongTx, chain.X5C())

		token := chain.SignToken(notification(&store.NotificationData{
			Environment:           store.EnvironmentSandbox,
			BundleID:              testBundleID,
			SignedTransactionInfo: nested,
		}), chain.X5C())

		_, err := v.VerifyAndDecodeNotification(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidBundleID))
	})

	t.Run("wrong notification bundle id", func(t *testing.T) {
		token := chain.SignToken(notification(&store.NotificationData{
			Environment: store.EnvironmentSandbox,
			BundleID:    "com.other",
		}), chain.X5C())
		_, err := v.VerifyAndDecodeNotification(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidBundleID))
	})

	t.Run("wrong notification environment", func(t *testing.T) {
		token := chain.SignToken(notification(&store.NotificationData{
			Environment: store.EnvironmentProduction,
			BundleID:    testBundleID,
		}), chain.X5C())
		_, err := v.VerifyAndDecodeNotification(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidEnvironment))
	})

	t.Run("external purchase token environment", func(t *testing.T) {
		token := chain.SignToken(&store.NotificationPayload{
			NotificationType: store.NotificationTypeExternalPurchaseToken,
			ExternalPurchaseToken: &store.ExternalPurchaseToken{
				ExternalPurchaseID: "SANDBOX_100",
				BundleID:           testBundleID,
			},
		}, chain.X5C())
		_, err := v.VerifyAndDecodeNotification(ctx, token)
		require.NoError(t, err)

		token = chain.SignToken(&store.NotificationPayload{
			NotificationType: store.NotificationTypeExternalPurchaseToken,
			ExternalPurchaseToken: &store.ExternalPurchaseToken{
				ExternalPurchaseID: "100",
				BundleID:           testBundleID,
			},
		}, chain.X5C())
		_, err = v.VerifyAndDecodeNotification(ctx, token)
		assert.ErrorIs(t, err, store.NewError(store.InvalidEnvironment))
	})
}

type stubRevocationChecker struct {
	mu     sync.Mutex
	status verify.RevocationStatus
	err    error
	calls  int
}

func (s *stubRevocationChecker) CheckRevocation(_ context.Context, _, _ *x509.Certificate) (verify.RevocationStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.status, s.err
}

func TestVerifierRevocationPolicy(t *testing.T) {
	chain := tu.NewChain()
	ctx := context.Background()
	token := chain.SignToken(testTransaction(), chain.X5C())

	newRevocationVerifier := func(t *testing.T, checker verify.RevocationChecker, options ...verify.Option) *verify.Verifier {
		t.Helper()
		options = append(options, verify.WithRevocationChecker(checker))
		v, err := verify.New([][]byte{chain.RootDER}, store.EnvironmentSandbox, testBundleID, nil, true, options...)
		require.NoError(t, err)
		return v
	}

	t.Run("good", func(t *testing.T) {
		checker := &stubRevocationChecker{status: verify.RevocationStatusGood}
		v := newRevocationVerifier(t, checker)
		_, err := v.VerifyAndDecodeTransaction(ctx, token)
		require.NoError(t, err)
		// One check per non-root chain certificate.
		assert.Equal(t, 2, checker.calls)
	})

	t.Run("revoked", func(t *testing.T) {
		checker := &stubRevocationChecker{status: verify.RevocationStatusRevoked}
		v := newRevocationVerifier(t, checker)
		_, err := v.VerifyAndDecodeTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewCertError(store.CertificateRevoked, 0))
	})

	t.Run("unknown fails closed", func(t *testing.T) {
		checker := &stubRevocationChecker{status: verify.RevocationStatusUnknown}
		v := newRevocationVerifier(t, checker)
		_, err := v.VerifyAndDecodeTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewCertError(store.RevocationCheckFailed, 0))
	})

	t.Run("unknown passes fail-open", func(t *testing.T) {
		checker := &stubRevocationChecker{status: verify.RevocationStatusUnknown}
		v := newRevocationVerifier(t, checker, verify.WithFailOpenRevocation())
		_, err := v.VerifyAndDecodeTransaction(ctx, token)
		require.NoError(t, err)
	})

	t.Run("revoked fails even fail-open", func(t *testing.T) {
		checker := &stubRevocationChecker{status: verify.RevocationStatusRevoked}
		v := newRevocationVerifier(t, checker, verify.WithFailOpenRevocation())
		_, err := v.VerifyAndDecodeTransaction(ctx, token)
		assert.ErrorIs(t, err, store.NewCertError(store.CertificateRevoked, 0))
	})

	t.Run("not reached for untrusted chain", func(t *testing.T) {
		checker := &stubRevocationChecker{status: verify.RevocationStatusGood}
		v := newRevocationVerifier(t, checker)
		foreign := tu.NewChain()
		_, err := v.VerifyAndDecodeTransaction(ctx, foreign.SignToken(testTransaction(), foreign.X5C()))
		assert.ErrorIs(t, err, store.NewError(store.UntrustedRoot))
		assert.Equal(t, 0, checker.calls)
	})
}

func TestVerifierLocalEnvironment(t *testing.T) {
	chain := tu.NewChain()
	ctx := context.Background()

	v, err := verify.New([][]byte{chain.RootDER}, store.EnvironmentXcode, testBundleID, nil, false)
	require.NoError(t, err)

	// Local tokens carry no certificate chain and no platform signature.
	localTx := testTransaction()
	localTx.Environment = store.EnvironmentXcode
	token := tu.SignTokenWithKey(chain.LeafKey, localTx, nil)

	transaction, err := v.VerifyAndDecodeTransaction(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "1000", transaction.TransactionID)
}

func TestVerifierConcurrent(t *testing.T) {
	chain := tu.NewChain()
	v := newVerifier(t, chain)
	token := chain.SignToken(testTransaction(), chain.X5C())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			transaction, err := v.VerifyAndDecodeTransaction(context.Background(), token)
			assert.NoError(t, err)
			assert.Equal(t, "1000", transaction.TransactionID)
		}()
	}
	wg.Wait()
}
