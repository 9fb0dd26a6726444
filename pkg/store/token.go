package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// TokenHeader is the decoded protected header of a compact signed token.
type TokenHeader struct {
	Algorithm        string   `json:"alg"`
	CertificateChain []string `json:"x5c"`
	KeyID            string   `json:"kid,omitempty"`
}

// CompactToken holds the decoded segments of a compact signed token.
// The payload segment is kept encoded: its content is only released by
// signature verification (or explicitly through UnverifiedPayload for
// tokens that carry no signature), so nothing can act on unverified data.
type CompactToken struct {
	Header    TokenHeader
	Signature []byte
	Raw       string

	payloadSegment string
}

// ParseToken splits a compact token into its three segments and decodes the
// header and signature. The header must declare an algorithm and carry a
// non-empty certificate chain.
func ParseToken(tokenString string) (*CompactToken, error) {
	token, err := parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if len(token.Header.CertificateChain) == 0 {
		return nil, NewError(MissingCertificateChain)
	}
	return token, nil
}

// ParseUnsignedToken parses a compact token without requiring an embedded
// certificate chain. Tokens issued by local environments (Xcode,
// LocalTesting) are not signed by the platform and carry no chain.
func ParseUnsignedToken(tokenString string) (*CompactToken, error) {
	return parseToken(tokenString)
}

func parseToken(tokenString string) (*CompactToken, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, NewError(MalformedToken).WithParent(fmt.Errorf("token contains %d segments, expected 3", len(parts)))
	}
	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, NewError(MalformedToken).WithParent(fmt.Errorf("malformed header segment: %w", err))
	}
	var header TokenHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, NewError(MalformedToken).WithParent(fmt.Errorf("malformed header: %w", err))
	}
	if header.Algorithm == "" {
		return nil, NewError(MalformedToken).WithParent(fmt.Errorf("header declares no algorithm"))
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, NewError(MalformedToken).WithParent(fmt.Errorf("malformed signature segment: %w", err))
	}
	return &CompactToken{
		Header:         header,
		Signature:      signature,
		Raw:            tokenString,
		payloadSegment: parts[1],
	}, nil
}

// UnverifiedPayload decodes the payload segment without any signature check.
// Only tokens from local environments, which the platform never signs, may
// be read this way.
func (c *CompactToken) UnverifiedPayload() ([]byte, error) {
	payload, err := base64.RawURLEncoding.DecodeString(c.payloadSegment)
	if err != nil {
		return nil, NewError(MalformedToken).WithParent(fmt.Errorf("malformed payload segment: %w", err))
	}
	return payload, nil
}
