package testutil

import (
	"crypto/ecdsa"
	"encoding/json"

	jose "github.com/go-jose/go-jose/v4"
)

// SignToken signs the JSON encoding of claims with the chain's leaf key and
// embeds the given x5c chain into the protected header, producing a compact
// token in the format the verifier consumes.
func (c *Chain) SignToken(claims any, x5c []string) string {
	return SignTokenWithKey(c.LeafKey, claims, x5c)
}

// SignTokenWithKey is SignToken with an explicit signing key, for tokens
// whose signature must not match the embedded leaf certificate.
func SignTokenWithKey(key *ecdsa.PrivateKey, claims any, x5c []string) string {
	options := new(jose.SignerOptions)
	if x5c != nil {
		options.WithHeader(jose.HeaderKey("x5c"), x5c)
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: key}, options)
	if err != nil {
		panic(err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		panic(err)
	}
	object, err := signer.Sign(payload)
	if err != nil {
		panic(err)
	}
	token, err := object.CompactSerialize()
	if err != nil {
		panic(err)
	}
	return token
}
