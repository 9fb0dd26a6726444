package store_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/storesign/storesign/internal/testutil"
	"github.com/storesign/storesign/pkg/store"
)

func segments(header any) string {
	headerBytes, err := json.Marshal(header)
	if err != nil {
		panic(err)
	}
	h := base64.RawURLEncoding.EncodeToString(headerBytes)
	p := base64.RawURLEncoding.EncodeToString([]byte(`{"transactionId":"1000"}`))
	s := base64.RawURLEncoding.EncodeToString([]byte("signature"))
	return h + "." + p + "." + s
}

func TestParseToken(t *testing.T) {
	chain := tu.NewChain()
	valid := chain.SignToken(&store.Transaction{TransactionID: "1000"}, chain.X5C())

	tests := []struct {
		name        string
		tokenString string
		wantKind    store.ErrorKind
	}{
		{
			name:        "split error",
			tokenString: "nope",
			wantKind:    store.MalformedToken,
		},
		{
			name:        "base64 error",
			tokenString: "foo.bar.~",
			wantKind:    store.MalformedToken,
		},
		{
			name:        "header not json",
			tokenString: base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".e30.e30",
			wantKind:    store.MalformedToken,
		},
		{
			name:        "missing algorithm",
			tokenString: segments(map[string]any{"x5c": []string{"AAAA"}}),
			wantKind:    store.MalformedToken,
		},
		{
			name:        "missing chain",
			tokenString: segments(map[string]any{"alg": "ES256"}),
			wantKind:    store.MissingCertificateChain,
		},
		{
			name:        "empty chain",
			tokenString: segments(map[string]any{"alg": "ES256", "x5c": []string{}}),
			wantKind:    store.MissingCertificateChain,
		},
		{
			name:        "success",
			tokenString: valid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := store.ParseToken(tt.tokenString)
			if tt.wantKind != "" {
				assert.ErrorIs(t, err, store.NewError(tt.wantKind))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ES256", token.Header.Algorithm)
			assert.Len(t, token.Header.CertificateChain, 2)
			assert.NotEmpty(t, token.Signature)
			assert.Equal(t, tt.tokenString, token.Raw)
		})
	}
}

func TestParseUnsignedToken(t *testing.T) {
	tokenString := segments(map[string]any{"alg": "ES256"})
	token, err := store.ParseUnsignedToken(tokenString)
	require.NoError(t, err)

	payload, err := token.UnverifiedPayload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"transactionId":"1000"}`, string(payload))
}
