package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

var (
	ErrPEMDecode          = errors.New("PEM decode failed")
	ErrUnsupportedFormat  = errors.New("unsupported key format")
	ErrUnsupportedKeyType = errors.New("unsupported key type")
	ErrUnsupportedCurve   = errors.New("unsupported curve")
)

// BytesToPrivateKey parses a PEM encoded private key and returns it along
// with the default signature algorithm for its type.
func BytesToPrivateKey(b []byte) (crypto.Signer, jose.SignatureAlgorithm, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, "", ErrPEMDecode
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, "", err
		}
		return key, jose.RS256, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, "", err
		}
		algorithm, err := curveAlgorithm(key.Curve)
		if err != nil {
			return nil, "", err
		}
		return key, algorithm, nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, "", err
		}
		switch key := key.(type) {
		case *rsa.PrivateKey:
			return key, jose.RS256, nil
		case *ecdsa.PrivateKey:
			algorithm, err := curveAlgorithm(key.Curve)
			if err != nil {
				return nil, "", err
			}
			return key, algorithm, nil
		case ed25519.PrivateKey:
			return key, jose.EdDSA, nil
		default:
			return nil, "", fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
		}
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, block.Type)
	}
}

func curveAlgorithm(curve elliptic.Curve) (jose.SignatureAlgorithm, error) {
	switch curve {
	case elliptic.P256():
		return jose.ES256, nil
	case elliptic.P384():
		return jose.ES384, nil
	case elliptic.P521():
		return jose.ES512, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurve, curve.Params().Name)
	}
}

// NewSignerFromPrivateKeyByte creates a jose signer for the PEM encoded key,
// carrying keyID in the kid header of every produced signature.
func NewSignerFromPrivateKeyByte(key []byte, keyID string) (jose.Signer, error) {
	privateKey, algorithm, err := BytesToPrivateKey(key)
	if err != nil {
		return nil, err
	}
	signingKey := jose.SigningKey{
		Algorithm: algorithm,
		Key:       &jose.JSONWebKey{Key: privateKey, KeyID: keyID},
	}
	return jose.NewSigner(signingKey, &jose.SignerOptions{})
}
