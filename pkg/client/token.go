package client

import (
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"golang.org/x/oauth2"

	"github.com/storesign/storesign/pkg/crypto"
)

// Audience of every server API bearer token.
const TokenAudience = "storeconnect-v1"

// Bearer tokens are short-lived; the server rejects anything older.
const tokenLifetime = 5 * time.Minute

type bearerClaims struct {
	Issuer    string `json:"iss"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Audience  string `json:"aud"`
	BundleID  string `json:"bid"`
}

type tokenSource struct {
	signer   jose.Signer
	issuerID string
	bundleID string
	now      func() time.Time
}

// NewTokenSource returns a caching oauth2.TokenSource minting the signed
// bearer tokens the server API requires. privateKey is the PEM encoded EC
// signing key issued for keyID.
func NewTokenSource(privateKey []byte, keyID, issuerID, bundleID string) (oauth2.TokenSource, error) {
	signer, err := crypto.NewSignerFromPrivateKeyByte(privateKey, keyID)
	if err != nil {
		return nil, err
	}
	source := &tokenSource{
		signer:   signer,
		issuerID: issuerID,
		bundleID: bundleID,
		now:      time.Now,
	}
	return oauth2.ReuseTokenSource(nil, source), nil
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	iat := s.now()
	exp := iat.Add(tokenLifetime)
	assertion, err := crypto.Sign(&bearerClaims{
		Issuer:    s.issuerID,
		IssuedAt:  iat.Unix(),
		ExpiresAt: exp.Unix(),
		Audience:  TokenAudience,
		BundleID:  s.bundleID,
	}, s.signer)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: assertion,
		TokenType:   "Bearer",
		Expiry:      exp,
	}, nil
}
