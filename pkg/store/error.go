package store

import (
	"fmt"
	"log/slog"
)

// ErrorKind classifies a verification failure. Kinds are stable identifiers
// intended for programmatic branching, not display.
type ErrorKind string

const (
	// Structural failures.
	MalformedToken             ErrorKind = "malformed_token"
	MalformedPayload           ErrorKind = "malformed_payload"
	MissingCertificateChain    ErrorKind = "missing_certificate_chain"
	InvalidCertificateEncoding ErrorKind = "invalid_certificate_encoding"

	// Trust-chain failures.
	BrokenChainLink        ErrorKind = "broken_chain_link"
	UntrustedRoot          ErrorKind = "untrusted_root"
	ChainTooLong           ErrorKind = "chain_too_long"
	CertificateExpired     ErrorKind = "certificate_expired"
	CertificateNotYetValid ErrorKind = "certificate_not_yet_valid"

	// Revocation failures.
	CertificateRevoked    ErrorKind = "certificate_revoked"
	RevocationCheckFailed ErrorKind = "revocation_check_failed"

	// Cryptographic failures.
	UnsupportedAlgorithm ErrorKind = "unsupported_algorithm"
	InvalidSignature     ErrorKind = "invalid_signature"

	// Scope failures. Distinct from cryptographic failures so callers can
	// treat a misconfigured verifier differently from a forged token.
	InvalidBundleID      ErrorKind = "invalid_bundle_id"
	InvalidAppIdentifier ErrorKind = "invalid_app_identifier"
	InvalidEnvironment   ErrorKind = "invalid_environment"

	// Construction failure.
	InvalidRootCertificate ErrorKind = "invalid_root_certificate"
)

// Error is the typed verification error returned by all verifier entry
// points. CertIndex locates the offending certificate within the embedded
// chain (leaf = 0) for kinds that relate to a single certificate; it is -1
// otherwise.
type Error struct {
	Kind      ErrorKind
	CertIndex int
	Parent    error
}

// NewError returns an *Error of the given kind without a certificate index.
func NewError(kind ErrorKind) *Error {
	return &Error{Kind: kind, CertIndex: -1}
}

// NewCertError returns an *Error of the given kind, offending certificate
// index attached.
func NewCertError(kind ErrorKind, index int) *Error {
	return &Error{Kind: kind, CertIndex: index}
}

func (e *Error) Error() string {
	message := "Kind=" + string(e.Kind)
	if e.CertIndex >= 0 {
		message += fmt.Sprintf(" CertIndex=%d", e.CertIndex)
	}
	if e.Parent != nil {
		message += " Parent=" + e.Parent.Error()
	}
	return message
}

func (e *Error) Unwrap() error {
	return e.Parent
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind &&
		(e.CertIndex == t.CertIndex || t.CertIndex == -1)
}

func (e *Error) WithParent(err error) *Error {
	e.Parent = err
	return e
}

// LogValue implements [slog.LogValuer] so that structured fields of the
// error are preserved when logged.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 3)
	attrs = append(attrs, slog.String("kind", string(e.Kind)))
	if e.CertIndex >= 0 {
		attrs = append(attrs, slog.Int("cert_index", e.CertIndex))
	}
	if e.Parent != nil {
		attrs = append(attrs, slog.Any("parent", e.Parent))
	}
	return slog.GroupValue(attrs...)
}
