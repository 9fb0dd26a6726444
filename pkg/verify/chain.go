package verify

import (
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/storesign/storesign/pkg/store"
)

// MaxChainLength bounds the number of certificates accepted in an embedded
// chain, capping the verification cost per token.
const MaxChainLength = 5

// TrustedRoots is the immutable set of root certificates a Verifier anchors
// chains against. It is built once at Verifier construction and shared
// read-only across concurrent verifications.
type TrustedRoots struct {
	certs []*x509.Certificate
}

// NewTrustedRoots parses the given DER-encoded root certificates. Any
// certificate that fails to parse aborts construction with
// InvalidRootCertificate.
func NewTrustedRoots(rootCertificates [][]byte) (*TrustedRoots, error) {
	if len(rootCertificates) == 0 {
		return nil, store.NewError(store.InvalidRootCertificate).WithParent(fmt.Errorf("no root certificates supplied"))
	}
	certs := make([]*x509.Certificate, len(rootCertificates))
	for i, der := range rootCertificates {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, store.NewCertError(store.InvalidRootCertificate, i).WithParent(err)
		}
		certs[i] = cert
	}
	return &TrustedRoots{certs: certs}, nil
}

// buildChain decodes and parses the leaf-first certificate chain carried in
// a token header.
func buildChain(encodedCertificates []string) ([]*x509.Certificate, error) {
	if len(encodedCertificates) > MaxChainLength {
		return nil, store.NewError(store.ChainTooLong).WithParent(fmt.Errorf("chain contains %d certificates, max %d", len(encodedCertificates), MaxChainLength))
	}
	chain := make([]*x509.Certificate, len(encodedCertificates))
	for i, encoded := range encodedCertificates {
		der, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, store.NewCertError(store.InvalidCertificateEncoding, i).WithParent(err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, store.NewCertError(store.InvalidCertificateEncoding, i).WithParent(err)
		}
		chain[i] = cert
	}
	return chain, nil
}

// Validate checks chain linkage, trust-anchor membership and validity
// windows at the given verification time. It returns the trusted root the
// chain anchors to.
//
// The chain is leaf-first: each certificate must be signed by its successor,
// and the last certificate must either be a member of the trusted set or be
// signed by one.
func (r *TrustedRoots) Validate(chain []*x509.Certificate, at time.Time) (anchor *x509.Certificate, err error) {
	for i := 0; i < len(chain)-1; i++ {
		if err := chain[i].CheckSignatureFrom(chain[i+1]); err != nil {
			return nil, store.NewCertError(store.BrokenChainLink, i).WithParent(err)
		}
	}
	anchor = r.anchorFor(chain[len(chain)-1])
	if anchor == nil {
		return nil, store.NewError(store.UntrustedRoot)
	}
	for i, cert := range chain {
		if at.Before(cert.NotBefore) {
			return nil, store.NewCertError(store.CertificateNotYetValid, i)
		}
		if at.After(cert.NotAfter) {
			return nil, store.NewCertError(store.CertificateExpired, i)
		}
	}
	return anchor, nil
}

// anchorFor returns the trusted root that last is identical to or signed by,
// or nil when the chain does not terminate in the trusted set.
func (r *TrustedRoots) anchorFor(last *x509.Certificate) *x509.Certificate {
	for _, root := range r.certs {
		if root.Equal(last) {
			return root
		}
	}
	for _, root := range r.certs {
		if err := last.CheckSignatureFrom(root); err == nil {
			return root
		}
	}
	return nil
}
