package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"golang.org/x/crypto/ocsp"
)

// OCSPResponder is an in-process OCSP responder answering for the
// certificates of one chain. Status is returned for every request and may
// be changed between requests.
type OCSPResponder struct {
	Server *httptest.Server
	Chain  *Chain
	Status int
}

// NewOCSPResponder starts a responder reporting ocsp.Good. Assign Chain
// before issuing requests; certificates are generated with the responder's
// URL, so the responder exists first.
func NewOCSPResponder() *OCSPResponder {
	responder := &OCSPResponder{Status: ocsp.Good}
	responder.Server = httptest.NewServer(http.HandlerFunc(responder.handle))
	return responder
}

func (r *OCSPResponder) URL() string {
	return r.Server.URL
}

func (r *OCSPResponder) Close() {
	r.Server.Close()
}

func (r *OCSPResponder) handle(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	parsed, err := ocsp.ParseRequest(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Responses are signed directly by the issuing CA of the certificate
	// in question.
	issuer := r.Chain.Intermediate
	issuerKey := r.Chain.IntermediateKey
	if parsed.SerialNumber.Cmp(r.Chain.Intermediate.SerialNumber) == 0 {
		issuer = r.Chain.Root
		issuerKey = r.Chain.RootKey
	}

	template := ocsp.Response{
		Status:       r.Status,
		SerialNumber: parsed.SerialNumber,
		ThisUpdate:   time.Now().Add(-time.Minute),
		NextUpdate:   time.Now().Add(time.Hour),
	}
	if r.Status == ocsp.Revoked {
		template.RevokedAt = time.Now()
		template.RevocationReason = ocsp.Unspecified
	}
	response, err := ocsp.CreateResponse(issuer, issuer, template, issuerKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/ocsp-response")
	w.Write(response)
}
