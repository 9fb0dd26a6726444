package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
)

// payload fields are joined by an invisible separator, U+2063
const offerPayloadSeparator = "⁣"

// PromotionalOfferSignatureCreator produces the classic promotional offer
// signature: a raw ECDSA signature over an assembled payload string, encoded
// with standard base64.
type PromotionalOfferSignatureCreator struct {
	key      *ecdsa.PrivateKey
	keyID    string
	bundleID string
}

// NewPromotionalOfferSignatureCreator parses the PEM encoded EC private key
// and returns a creator bound to the given key and bundle identifiers.
func NewPromotionalOfferSignatureCreator(privateKey []byte, keyID, bundleID string) (*PromotionalOfferSignatureCreator, error) {
	signer, _, err := BytesToPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	key, ok := signer.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T, need an EC key", ErrUnsupportedKeyType, signer)
	}
	return &PromotionalOfferSignatureCreator{
		key:      key,
		keyID:    keyID,
		bundleID: bundleID,
	}, nil
}

// CreateSignature signs the offer parameters. applicationUsername and the
// nonce are lowercased before signing, matching what the client device sends
// for validation. timestamp is in UNIX milliseconds.
func (c *PromotionalOfferSignatureCreator) CreateSignature(productID, offerID, applicationUsername string, nonce uuid.UUID, timestamp int64) (string, error) {
	payload := strings.Join([]string{
		c.bundleID,
		c.keyID,
		productID,
		offerID,
		strings.ToLower(applicationUsername),
		strings.ToLower(nonce.String()),
		fmt.Sprintf("%d", timestamp),
	}, offerPayloadSeparator)

	digest := sha256.Sum256([]byte(payload))
	signature, err := ecdsa.SignASN1(rand.Reader, c.key, digest[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

type offerBaseClaims struct {
	Nonce    string `json:"nonce"`
	Issuer   string `json:"iss"`
	BundleID string `json:"bid"`
	Audience string `json:"aud"`
	IssuedAt int64  `json:"iat"`
}

// jwsSignatureCreator signs request payloads for the store's signed-request
// surfaces. The audience distinguishes the surface a signature is meant for.
type jwsSignatureCreator struct {
	audience string
	signer   jose.Signer
	issuerID string
	bundleID string
	now      func() time.Time
	newNonce func() uuid.UUID
}

func newJWSSignatureCreator(audience string, privateKey []byte, keyID, issuerID, bundleID string) (*jwsSignatureCreator, error) {
	signer, err := NewSignerFromPrivateKeyByte(privateKey, keyID)
	if err != nil {
		return nil, err
	}
	return &jwsSignatureCreator{
		audience: audience,
		signer:   signer,
		issuerID: issuerID,
		bundleID: bundleID,
		now:      time.Now,
		newNonce: uuid.New,
	}, nil
}

func (c *jwsSignatureCreator) baseClaims() offerBaseClaims {
	return offerBaseClaims{
		Nonce:    c.newNonce().String(),
		Issuer:   c.issuerID,
		BundleID: c.bundleID,
		Audience: c.audience,
		IssuedAt: c.now().Unix(),
	}
}

// PromotionalOfferV2SignatureCreator produces compact signed tokens for
// promotional offer requests.
type PromotionalOfferV2SignatureCreator struct {
	*jwsSignatureCreator
}

func NewPromotionalOfferV2SignatureCreator(privateKey []byte, keyID, issuerID, bundleID string) (*PromotionalOfferV2SignatureCreator, error) {
	base, err := newJWSSignatureCreator("promotional-offer", privateKey, keyID, issuerID, bundleID)
	if err != nil {
		return nil, err
	}
	return &PromotionalOfferV2SignatureCreator{base}, nil
}

// CreateSignature signs a promotional offer request. transactionID may be
// empty; any transaction belonging to the customer is accepted.
func (c *PromotionalOfferV2SignatureCreator) CreateSignature(productID, offerIdentifier, transactionID string) (string, error) {
	claims := struct {
		offerBaseClaims
		ProductID       string `json:"productId"`
		OfferIdentifier string `json:"offerIdentifier"`
		TransactionID   string `json:"transactionId,omitempty"`
	}{
		offerBaseClaims: c.baseClaims(),
		ProductID:       productID,
		OfferIdentifier: offerIdentifier,
		TransactionID:   transactionID,
	}
	return Sign(claims, c.signer)
}

// IntroductoryOfferEligibilitySignatureCreator produces compact signed tokens
// declaring a customer's introductory offer eligibility.
type IntroductoryOfferEligibilitySignatureCreator struct {
	*jwsSignatureCreator
}

func NewIntroductoryOfferEligibilitySignatureCreator(privateKey []byte, keyID, issuerID, bundleID string) (*IntroductoryOfferEligibilitySignatureCreator, error) {
	base, err := newJWSSignatureCreator("introductory-offer-eligibility", privateKey, keyID, issuerID, bundleID)
	if err != nil {
		return nil, err
	}
	return &IntroductoryOfferEligibilitySignatureCreator{base}, nil
}

func (c *IntroductoryOfferEligibilitySignatureCreator) CreateSignature(productID string, allowIntroductoryOffer bool, transactionID string) (string, error) {
	claims := struct {
		offerBaseClaims
		ProductID              string `json:"productId"`
		AllowIntroductoryOffer bool   `json:"allowIntroductoryOffer"`
		TransactionID          string `json:"transactionId"`
	}{
		offerBaseClaims:        c.baseClaims(),
		ProductID:              productID,
		AllowIntroductoryOffer: allowIntroductoryOffer,
		TransactionID:          transactionID,
	}
	return Sign(claims, c.signer)
}
