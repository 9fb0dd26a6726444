// Package verify implements the signed-data verification engine: it
// authenticates compact signed tokens against a caller-supplied set of
// trusted roots and decodes their payloads into typed values.
//
// Verification of one token runs a fixed pipeline: parse, chain build and
// validation, optional revocation check, signature verification, payload
// decoding and scope validation. Every stage is fail-fast; no payload
// content is acted on before the signature has been verified.
package verify

import (
	"context"
	"crypto/x509"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/storesign/storesign/internal/otel"
	"github.com/storesign/storesign/pkg/store"
)

var Tracer = otel.Tracer("github.com/storesign/storesign/pkg/verify")

// Verifier authenticates and decodes signed payloads. It is immutable after
// construction and safe for unbounded concurrent use; every call allocates
// its own per-token state.
type Verifier struct {
	roots                 *TrustedRoots
	environment           store.Environment
	bundleID              string
	appID                 *int64
	enableRevocationCheck bool
	failOpenRevocation    bool
	revocation            RevocationChecker
	algorithms            []jose.SignatureAlgorithm
	now                   func() time.Time
	logger                *slog.Logger
}

// Option configures a Verifier at construction.
type Option func(*Verifier)

// WithRevocationChecker replaces the default OCSP checker, for example with
// a test double or an implementation backed by a different protocol.
func WithRevocationChecker(checker RevocationChecker) Option {
	return func(v *Verifier) {
		v.revocation = checker
	}
}

// WithFailOpenRevocation makes an unreachable or inconclusive revocation
// responder non-fatal. A definitive "revoked" answer still fails the token.
// The default is fail-closed.
func WithFailOpenRevocation() Option {
	return func(v *Verifier) {
		v.failOpenRevocation = true
	}
}

// WithSignatureAlgorithms sets the accepted token signature algorithms.
// The default is ES256 only.
func WithSignatureAlgorithms(algorithms ...jose.SignatureAlgorithm) Option {
	return func(v *Verifier) {
		v.algorithms = algorithms
	}
}

// WithClock replaces the time source used for certificate validity windows.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// WithLogger enables logging of non-fatal verification events.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// New creates a Verifier for the given expectations.
//
// rootCertificates are the DER-encoded trust anchors; any unparsable root
// fails construction with InvalidRootCertificate. appID is the expected app
// identifier, or nil when no app identifier should be checked.
// enableRevocationCheck turns on the online per-certificate revocation
// check; its reachability policy defaults to fail-closed.
func New(rootCertificates [][]byte, environment store.Environment, bundleID string, appID *int64, enableRevocationCheck bool, options ...Option) (*Verifier, error) {
	roots, err := NewTrustedRoots(rootCertificates)
	if err != nil {
		return nil, err
	}
	v := &Verifier{
		roots:                 roots,
		environment:           environment,
		bundleID:              bundleID,
		appID:                 appID,
		enableRevocationCheck: enableRevocationCheck,
		revocation:            &OCSPChecker{},
		algorithms:            []jose.SignatureAlgorithm{jose.ES256},
		now:                   time.Now,
	}
	for _, opt := range options {
		opt(v)
	}
	return v, nil
}

// VerifyAndDecodeNotification verifies a signed notification token and
// decodes its payload. Nested signed transaction and renewal tokens inside
// the notification data are re-verified from scratch through the same
// pipeline and attached to the returned payload; the outer token's validity
// is never taken as proof for the nested ones.
func (v *Verifier) VerifyAndDecodeNotification(ctx context.Context, signedPayload string) (*store.NotificationPayload, error) {
	ctx, span := Tracer.Start(ctx, "VerifyAndDecodeNotification")
	defer span.End()

	decoded, err := v.verifyAndDecode(ctx, signedPayload)
	if err != nil {
		return nil, err
	}
	notification, ok := decoded.(*store.NotificationPayload)
	if !ok {
		return nil, store.NewError(store.MalformedPayload).WithParent(fmt.Errorf("payload decoded as %T, expected notification", decoded))
	}
	if err := v.checkNotificationScope(notification); err != nil {
		return nil, err
	}
	if data := notification.Data; data != nil {
		if data.SignedTransactionInfo != "" {
			transaction, err := v.VerifyAndDecodeTransaction(ctx, data.SignedTransactionInfo)
			if err != nil {
				return nil, err
			}
			data.TransactionInfo = transaction
		}
		if data.SignedRenewalInfo != "" {
			renewalInfo, err := v.VerifyAndDecodeRenewalInfo(ctx, data.SignedRenewalInfo)
			if err != nil {
				return nil, err
			}
			data.RenewalInfo = renewalInfo
		}
	}
	return notification, nil
}

// VerifyAndDecodeTransaction verifies a signed transaction token, checks it
// against the expected bundle identifier and environment, and decodes it.
func (v *Verifier) VerifyAndDecodeTransaction(ctx context.Context, signedTransaction string) (*store.Transaction, error) {
	ctx, span := Tracer.Start(ctx, "VerifyAndDecodeTransaction")
	defer span.End()

	decoded, err := v.verifyAndDecode(ctx, signedTransaction)
	if err != nil {
		return nil, err
	}
	transaction, ok := decoded.(*store.Transaction)
	if !ok {
		return nil, store.NewError(store.MalformedPayload).WithParent(fmt.Errorf("payload decoded as %T, expected transaction", decoded))
	}
	if transaction.BundleID != v.bundleID {
		return nil, store.NewError(store.InvalidBundleID)
	}
	if transaction.Environment != v.environment {
		return nil, store.NewError(store.InvalidEnvironment)
	}
	return transaction, nil
}

// VerifyAndDecodeRenewalInfo verifies a signed renewal-info token and
// decodes it.
func (v *Verifier) VerifyAndDecodeRenewalInfo(ctx context.Context, signedRenewalInfo string) (*store.RenewalInfo, error) {
	ctx, span := Tracer.Start(ctx, "VerifyAndDecodeRenewalInfo")
	defer span.End()

	decoded, err := v.verifyAndDecode(ctx, signedRenewalInfo)
	if err != nil {
		return nil, err
	}
	renewalInfo, ok := decoded.(*store.RenewalInfo)
	if !ok {
		return nil, store.NewError(store.MalformedPayload).WithParent(fmt.Errorf("payload decoded as %T, expected renewal info", decoded))
	}
	if renewalInfo.Environment != "" && renewalInfo.Environment != v.environment {
		return nil, store.NewError(store.InvalidEnvironment)
	}
	return renewalInfo, nil
}

// VerifyAndDecodeAppTransaction verifies a signed app-install token, checks
// it against the expected bundle identifier, app identifier and environment,
// and decodes it.
func (v *Verifier) VerifyAndDecodeAppTransaction(ctx context.Context, signedAppTransaction string) (*store.AppTransaction, error) {
	ctx, span := Tracer.Start(ctx, "VerifyAndDecodeAppTransaction")
	defer span.End()

	decoded, err := v.verifyAndDecode(ctx, signedAppTransaction)
	if err != nil {
		return nil, err
	}
	appTransaction, ok := decoded.(*store.AppTransaction)
	if !ok {
		return nil, store.NewError(store.MalformedPayload).WithParent(fmt.Errorf("payload decoded as %T, expected app transaction", decoded))
	}
	if appTransaction.BundleID != v.bundleID {
		return nil, store.NewError(store.InvalidBundleID)
	}
	if v.appID != nil && appTransaction.AppID != nil && *appTransaction.AppID != *v.appID {
		return nil, store.NewError(store.InvalidAppIdentifier)
	}
	if appTransaction.ReceiptType != v.environment {
		return nil, store.NewError(store.InvalidEnvironment)
	}
	return appTransaction, nil
}

// verifyAndDecode runs the pipeline up to and including payload dispatch.
// Scope validation against caller expectations is shape-specific and stays
// with the callers.
func (v *Verifier) verifyAndDecode(ctx context.Context, tokenString string) (store.DecodedPayload, error) {
	payload, err := v.verifiedPayload(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return store.DecodePayload(payload)
}

// verifiedPayload returns the payload bytes of the token after the full
// authentication pipeline has passed. For local environments, whose tokens
// the platform does not sign, it decodes without authentication.
func (v *Verifier) verifiedPayload(ctx context.Context, tokenString string) ([]byte, error) {
	if v.environment.IsLocal() {
		token, err := store.ParseUnsignedToken(tokenString)
		if err != nil {
			return nil, err
		}
		return token.UnverifiedPayload()
	}

	token, err := store.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	chain, err := buildChain(token.Header.CertificateChain)
	if err != nil {
		return nil, err
	}
	anchor, err := v.roots.Validate(chain, v.now())
	if err != nil {
		return nil, err
	}
	if v.enableRevocationCheck {
		if err := v.checkChainRevocation(ctx, chain, anchor); err != nil {
			return nil, err
		}
	}
	return v.verifySignature(token, chain[0])
}

// checkChainRevocation checks every non-root chain certificate against its
// issuer, the next chain certificate or the trust anchor for the last one.
// It runs only on chains whose linkage and trust already validated.
func (v *Verifier) checkChainRevocation(ctx context.Context, chain []*x509.Certificate, anchor *x509.Certificate) error {
	certs := chain
	issuers := chain[1:]
	if chain[len(chain)-1].Equal(anchor) {
		certs = chain[:len(chain)-1]
	} else {
		issuers = append(issuers, anchor)
	}
	for i, cert := range certs {
		status, err := v.revocation.CheckRevocation(ctx, cert, issuers[i])
		if status == RevocationStatusRevoked {
			return store.NewCertError(store.CertificateRevoked, i)
		}
		if err != nil || status != RevocationStatusGood {
			if v.failOpenRevocation {
				if v.logger != nil {
					v.logger.WarnContext(ctx, "revocation status inconclusive, continuing fail-open",
						"cert_index", i, "error", err)
				}
				continue
			}
			return store.NewCertError(store.RevocationCheckFailed, i).WithParent(err)
		}
	}
	return nil
}

// verifySignature checks the token signature over the exact transmitted
// header and payload bytes against the leaf certificate's public key and
// releases the payload.
func (v *Verifier) verifySignature(token *store.CompactToken, leaf *x509.Certificate) ([]byte, error) {
	if !v.algorithmAllowed(token.Header.Algorithm) {
		return nil, store.NewError(store.UnsupportedAlgorithm).WithParent(fmt.Errorf("token signed with %q", token.Header.Algorithm))
	}
	jws, err := jose.ParseSigned(token.Raw, v.algorithms)
	if err != nil {
		return nil, store.NewError(store.InvalidSignature).WithParent(err)
	}
	payload, err := jws.Verify(leaf.PublicKey)
	if err != nil {
		return nil, store.NewError(store.InvalidSignature).WithParent(err)
	}
	return payload, nil
}

func (v *Verifier) algorithmAllowed(algorithm string) bool {
	for _, alg := range v.algorithms {
		if string(alg) == algorithm {
			return true
		}
	}
	return false
}

// checkNotificationScope validates the app and environment identity of a
// notification. The relevant fields live in the data, summary or external
// purchase token section, whichever the notification carries.
func (v *Verifier) checkNotificationScope(notification *store.NotificationPayload) error {
	var (
		bundleID    string
		appID       *int64
		environment store.Environment
	)
	switch {
	case notification.Data != nil:
		bundleID = notification.Data.BundleID
		appID = notification.Data.AppID
		environment = notification.Data.Environment
	case notification.Summary != nil:
		bundleID = notification.Summary.BundleID
		appID = notification.Summary.AppID
		environment = notification.Summary.Environment
	case notification.ExternalPurchaseToken != nil:
		token := notification.ExternalPurchaseToken
		bundleID = token.BundleID
		appID = token.AppID
		// External purchase tokens carry no environment field; sandbox
		// tokens are identified by their identifier prefix.
		if strings.HasPrefix(token.ExternalPurchaseID, "SANDBOX") {
			environment = store.EnvironmentSandbox
		} else {
			environment = store.EnvironmentProduction
		}
	}

	if bundleID != "" && bundleID != v.bundleID {
		return store.NewError(store.InvalidBundleID)
	}
	if v.appID != nil && appID != nil && *appID != *v.appID {
		return store.NewError(store.InvalidAppIdentifier)
	}
	if environment != "" && v.environment != store.EnvironmentLocalTesting && environment != v.environment {
		return store.NewError(store.InvalidEnvironment)
	}
	return nil
}
