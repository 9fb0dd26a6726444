package client_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesign/storesign/pkg/client"
)

func TestTokenSource(t *testing.T) {
	source, err := client.NewTokenSource(testKeyPEM(t), "KEYID123", "issuer-id", "com.example")
	require.NoError(t, err)

	token, err := source.Token()
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)

	parts := strings.Split(token.AccessToken, ".")
	require.Len(t, parts, 3)

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	var header struct {
		Algorithm string `json:"alg"`
		KeyID     string `json:"kid"`
	}
	require.NoError(t, json.Unmarshal(headerJSON, &header))
	assert.Equal(t, "ES256", header.Algorithm)
	assert.Equal(t, "KEYID123", header.KeyID)

	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var claims struct {
		Issuer    string `json:"iss"`
		IssuedAt  int64  `json:"iat"`
		ExpiresAt int64  `json:"exp"`
		Audience  string `json:"aud"`
		BundleID  string `json:"bid"`
	}
	require.NoError(t, json.Unmarshal(claimsJSON, &claims))
	assert.Equal(t, "issuer-id", claims.Issuer)
	assert.Equal(t, client.TokenAudience, claims.Audience)
	assert.Equal(t, "com.example", claims.BundleID)
	assert.Equal(t, int64(5*time.Minute/time.Second), claims.ExpiresAt-claims.IssuedAt)
}

func TestTokenSourceReusesValidToken(t *testing.T) {
	source, err := client.NewTokenSource(testKeyPEM(t), "KEYID123", "issuer-id", "com.example")
	require.NoError(t, err)

	first, err := source.Token()
	require.NoError(t, err)
	second, err := source.Token()
	require.NoError(t, err)
	assert.Equal(t, first.AccessToken, second.AccessToken)
}

func TestNewTokenSourceRejectsGarbageKey(t *testing.T) {
	_, err := client.NewTokenSource([]byte("not a key"), "KEYID123", "issuer-id", "com.example")
	assert.Error(t, err)
}
