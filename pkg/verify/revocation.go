package verify

import (
	"bytes"
	"context"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/ocsp"
)

// RevocationStatus is the outcome of a single revocation check.
type RevocationStatus int

const (
	RevocationStatusGood RevocationStatus = iota
	RevocationStatusRevoked
	RevocationStatusUnknown
)

// RevocationChecker resolves the revocation status of a single certificate
// using its issuer's information. Implementations perform the network round
// trip; the Verifier applies the revocation policy to the result.
//
// The interface exists so the online check can be replaced by a test double
// or an asynchronous implementation without touching chain validation.
type RevocationChecker interface {
	CheckRevocation(ctx context.Context, cert, issuer *x509.Certificate) (RevocationStatus, error)
}

// DefaultRevocationTimeout bounds the round trip of a single OCSP request.
const DefaultRevocationTimeout = 5 * time.Second

// OCSPChecker queries the OCSP responder advertised in the certificate's
// authority-information-access extension.
type OCSPChecker struct {
	// HTTPClient is used for responder requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
	// Timeout bounds each request. Defaults to DefaultRevocationTimeout.
	Timeout time.Duration
}

func (c *OCSPChecker) CheckRevocation(ctx context.Context, cert, issuer *x509.Certificate) (RevocationStatus, error) {
	if len(cert.OCSPServer) == 0 {
		return RevocationStatusUnknown, fmt.Errorf("certificate advertises no OCSP responder")
	}
	requestBytes, err := ocsp.CreateRequest(cert, issuer, nil)
	if err != nil {
		return RevocationStatusUnknown, fmt.Errorf("creating OCSP request: %w", err)
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultRevocationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cert.OCSPServer[0], bytes.NewReader(requestBytes))
	if err != nil {
		return RevocationStatusUnknown, err
	}
	req.Header.Set("Content-Type", "application/ocsp-request")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return RevocationStatusUnknown, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return RevocationStatusUnknown, fmt.Errorf("responder returned status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RevocationStatusUnknown, err
	}

	response, err := ocsp.ParseResponseForCert(body, cert, issuer)
	if err != nil {
		return RevocationStatusUnknown, fmt.Errorf("parsing OCSP response: %w", err)
	}
	switch response.Status {
	case ocsp.Good:
		return RevocationStatusGood, nil
	case ocsp.Revoked:
		return RevocationStatusRevoked, nil
	default:
		return RevocationStatusUnknown, nil
	}
}
