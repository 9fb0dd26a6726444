// Package receipt extracts transaction identifiers from legacy encoded
// receipts. No validation is performed on a receipt; extracted identifiers
// are only suitable as input to the server API, which performs its own
// verification.
package receipt

import (
	"encoding/asn1"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
)

var ErrMalformedReceipt = errors.New("malformed receipt")

const inAppAttributeType = 17

const (
	transactionIDAttributeType         = 1703
	originalTransactionIDAttributeType = 1705
)

// ExtractTransactionIDFromAppReceipt returns a transaction id from the
// in-app purchase attributes of an encoded app receipt, or the empty string
// when the receipt contains no in-app purchases.
func ExtractTransactionIDFromAppReceipt(appReceipt string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(appReceipt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedReceipt, err)
	}

	container, err := unwrapSequence(raw)
	if err != nil {
		return "", err
	}
	// content type identifier
	rest, err := skipElement(container)
	if err != nil {
		return "", err
	}
	signedData, err := unwrapExplicit(rest)
	if err != nil {
		return "", err
	}
	inner, err := unwrapSequence(signedData)
	if err != nil {
		return "", err
	}
	// version and digest algorithms
	inner, err = skipElement(inner)
	if err != nil {
		return "", err
	}
	inner, err = skipElement(inner)
	if err != nil {
		return "", err
	}
	contentInfo, err := unwrapSequence(inner)
	if err != nil {
		return "", err
	}
	contentInfo, err = skipElement(contentInfo)
	if err != nil {
		return "", err
	}
	wrapped, err := unwrapExplicit(contentInfo)
	if err != nil {
		return "", err
	}
	payload, err := unwrapOctetString(wrapped)
	if err != nil {
		return "", err
	}
	payload, err = unwrapOctetString(payload)
	if err != nil {
		return "", err
	}

	inApp, err := findAttribute(payload, inAppAttributeType)
	if err != nil || inApp == nil {
		return "", err
	}
	transactionID, err := findAttribute(inApp,
		transactionIDAttributeType, originalTransactionIDAttributeType)
	if err != nil || transactionID == nil {
		return "", err
	}

	var utf8String asn1.RawValue
	if _, err := asn1.Unmarshal(transactionID, &utf8String); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedReceipt, err)
	}
	if utf8String.Class != asn1.ClassUniversal || utf8String.Tag != asn1.TagUTF8String {
		return "", fmt.Errorf("%w: transaction id is not a utf8 string", ErrMalformedReceipt)
	}
	return string(utf8String.Bytes), nil
}

// findAttribute walks a set of receipt attributes and returns the value of
// the first attribute with one of the wanted types. The value sits behind an
// octet string wrapper; nil is returned when no attribute matches.
func findAttribute(setBytes []byte, wantedTypes ...int64) ([]byte, error) {
	var set asn1.RawValue
	if _, err := asn1.Unmarshal(setBytes, &set); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReceipt, err)
	}
	if set.Tag != asn1.TagSet {
		return nil, fmt.Errorf("%w: expected attribute set", ErrMalformedReceipt)
	}

	rest := set.Bytes
	for len(rest) > 0 {
		var attribute struct {
			Type    int64
			Version int64
			Value   asn1.RawValue
		}
		var err error
		rest, err = asn1.Unmarshal(rest, &attribute)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedReceipt, err)
		}
		for _, wanted := range wantedTypes {
			if attribute.Type == wanted {
				return attribute.Value.Bytes, nil
			}
		}
	}
	return nil, nil
}

var (
	purchaseInfoPattern  = regexp.MustCompile(`"purchase-info"\s+=\s+"([a-zA-Z0-9+/=]+)";`)
	transactionIDPattern = regexp.MustCompile(`"transaction-id"\s+=\s+"([a-zA-Z0-9+/=]+)";`)
)

// ExtractTransactionIDFromTransactionReceipt returns the transaction id of
// an encoded transactional receipt, or the empty string when the receipt
// carries none.
func ExtractTransactionIDFromTransactionReceipt(transactionReceipt string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(transactionReceipt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedReceipt, err)
	}

	purchaseInfo := purchaseInfoPattern.FindSubmatch(raw)
	if purchaseInfo == nil {
		return "", nil
	}
	inner, err := base64.StdEncoding.DecodeString(string(purchaseInfo[1]))
	if err != nil {
		return "", nil
	}
	transactionID := transactionIDPattern.FindSubmatch(inner)
	if transactionID == nil {
		return "", nil
	}
	return string(transactionID[1]), nil
}

func unwrapSequence(data []byte) ([]byte, error) {
	var seq asn1.RawValue
	if _, err := asn1.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReceipt, err)
	}
	if seq.Class != asn1.ClassUniversal || seq.Tag != asn1.TagSequence {
		return nil, fmt.Errorf("%w: expected sequence", ErrMalformedReceipt)
	}
	return seq.Bytes, nil
}

func unwrapExplicit(data []byte) ([]byte, error) {
	var tagged asn1.RawValue
	if _, err := asn1.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReceipt, err)
	}
	if tagged.Class != asn1.ClassContextSpecific || tagged.Tag != 0 {
		return nil, fmt.Errorf("%w: expected context tag 0", ErrMalformedReceipt)
	}
	return tagged.Bytes, nil
}

func unwrapOctetString(data []byte) ([]byte, error) {
	var octets asn1.RawValue
	if _, err := asn1.Unmarshal(data, &octets); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReceipt, err)
	}
	if octets.Class != asn1.ClassUniversal || octets.Tag != asn1.TagOctetString {
		return nil, fmt.Errorf("%w: expected octet string", ErrMalformedReceipt)
	}
	return octets.Bytes, nil
}

func skipElement(data []byte) ([]byte, error) {
	var element asn1.RawValue
	rest, err := asn1.Unmarshal(data, &element)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReceipt, err)
	}
	return rest, nil
}
