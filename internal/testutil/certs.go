// Package testutil generates the certificate chains and signed tokens the
// package tests verify against.
package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"time"
)

// Chain is a freshly generated three-certificate hierarchy: a self-signed
// root, an intermediate signed by the root and a leaf signed by the
// intermediate.
type Chain struct {
	RootKey         *ecdsa.PrivateKey
	IntermediateKey *ecdsa.PrivateKey
	LeafKey         *ecdsa.PrivateKey

	Root         *x509.Certificate
	Intermediate *x509.Certificate
	Leaf         *x509.Certificate

	RootDER         []byte
	IntermediateDER []byte
	LeafDER         []byte
}

type chainConfig struct {
	leafNotBefore time.Time
	leafNotAfter  time.Time
	ocspServer    string
}

// ChainOption adjusts chain generation.
type ChainOption func(*chainConfig)

// WithLeafValidity sets the leaf certificate's validity window.
func WithLeafValidity(notBefore, notAfter time.Time) ChainOption {
	return func(c *chainConfig) {
		c.leafNotBefore = notBefore
		c.leafNotAfter = notAfter
	}
}

// WithOCSPServer advertises an OCSP responder on the leaf and intermediate
// certificates.
func WithOCSPServer(url string) ChainOption {
	return func(c *chainConfig) {
		c.ocspServer = url
	}
}

// NewChain generates a root, intermediate and leaf with P-256 keys. The
// certificates are valid for an hour around now unless configured
// otherwise.
func NewChain(options ...ChainOption) *Chain {
	now := time.Now()
	config := chainConfig{
		leafNotBefore: now.Add(-time.Hour),
		leafNotAfter:  now.Add(time.Hour),
	}
	for _, opt := range options {
		opt(&config)
	}

	rootKey := newKey()
	intermediateKey := newKey()
	leafKey := newKey()

	rootTemplate := &x509.Certificate{
		SerialNumber:          newSerial(),
		Subject:               pkix.Name{CommonName: "Test Root CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, &rootKey.PublicKey, rootKey)
	if err != nil {
		panic(err)
	}
	root := parseCert(rootDER)

	intermediateTemplate := &x509.Certificate{
		SerialNumber:          newSerial(),
		Subject:               pkix.Name{CommonName: "Test Intermediate CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(12 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	if config.ocspServer != "" {
		intermediateTemplate.OCSPServer = []string{config.ocspServer}
	}
	intermediateDER, err := x509.CreateCertificate(rand.Reader, intermediateTemplate, root, &intermediateKey.PublicKey, rootKey)
	if err != nil {
		panic(err)
	}
	intermediate := parseCert(intermediateDER)

	leafTemplate := &x509.Certificate{
		SerialNumber: newSerial(),
		Subject:      pkix.Name{CommonName: "Test Signing Leaf"},
		NotBefore:    config.leafNotBefore,
		NotAfter:     config.leafNotAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning},
	}
	if config.ocspServer != "" {
		leafTemplate.OCSPServer = []string{config.ocspServer}
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, intermediate, &leafKey.PublicKey, intermediateKey)
	if err != nil {
		panic(err)
	}
	leaf := parseCert(leafDER)

	return &Chain{
		RootKey:         rootKey,
		IntermediateKey: intermediateKey,
		LeafKey:         leafKey,
		Root:            root,
		Intermediate:    intermediate,
		Leaf:            leaf,
		RootDER:         rootDER,
		IntermediateDER: intermediateDER,
		LeafDER:         leafDER,
	}
}

// X5C returns the embedded chain as transmitted in a token header: leaf
// first, root omitted.
func (c *Chain) X5C() []string {
	return []string{
		base64.StdEncoding.EncodeToString(c.LeafDER),
		base64.StdEncoding.EncodeToString(c.IntermediateDER),
	}
}

// X5CWithRoot returns the embedded chain including the root certificate.
func (c *Chain) X5CWithRoot() []string {
	return append(c.X5C(), base64.StdEncoding.EncodeToString(c.RootDER))
}

func newKey() *ecdsa.PrivateKey {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}
	return key
}

func newSerial() *big.Int {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		panic(err)
	}
	return serial
}

func parseCert(der []byte) *x509.Certificate {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		panic(err)
	}
	return cert
}
