package store

import (
	"encoding/json"
	"fmt"
)

// DecodedPayload is the closed set of payload shapes a verified token can
// decode into. Unrecognized shapes decode into *UnknownPayload instead of
// failing, so new payload kinds introduced by the platform pass through.
type DecodedPayload interface {
	payloadShape()
}

func (*NotificationPayload) payloadShape() {}
func (*Transaction) payloadShape()         {}
func (*RenewalInfo) payloadShape()         {}
func (*AppTransaction) payloadShape()      {}
func (*UnknownPayload) payloadShape()      {}

// UnknownPayload is the fallback variant for payload shapes this library
// does not recognize. Raw holds the complete payload as transmitted.
type UnknownPayload struct {
	Raw json.RawMessage
}

// payloadProbe reads only the structural discriminator fields.
type payloadProbe struct {
	NotificationType   string          `json:"notificationType"`
	ReceiptType        string          `json:"receiptType"`
	DeviceVerification string          `json:"deviceVerification"`
	AutoRenewProductID string          `json:"autoRenewProductId"`
	AutoRenewStatus    json.RawMessage `json:"autoRenewStatus"`
	ExpirationIntent   json.RawMessage `json:"expirationIntent"`
	TransactionID      string          `json:"transactionId"`
	OriginalTxID       string          `json:"originalTransactionId"`
}

// DecodePayload dispatches verified payload bytes to their typed shape based
// on the structural discriminators present in the payload.
func DecodePayload(payload []byte) (DecodedPayload, error) {
	var probe payloadProbe
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, NewError(MalformedPayload).WithParent(err)
	}
	switch {
	case probe.NotificationType != "":
		return decodeInto(payload, new(NotificationPayload))
	case probe.ReceiptType != "" || probe.DeviceVerification != "":
		return decodeInto(payload, new(AppTransaction))
	case probe.AutoRenewProductID != "" || len(probe.AutoRenewStatus) > 0 || len(probe.ExpirationIntent) > 0:
		return decodeInto(payload, new(RenewalInfo))
	case probe.TransactionID != "" || probe.OriginalTxID != "":
		return decodeInto(payload, new(Transaction))
	}
	return &UnknownPayload{Raw: append(json.RawMessage(nil), payload...)}, nil
}

type rawRetainer interface {
	DecodedPayload
	retainRaw(raw []byte)
}

func (p *NotificationPayload) retainRaw(raw []byte) { p.Raw = append(json.RawMessage(nil), raw...) }
func (t *Transaction) retainRaw(raw []byte)         { t.Raw = append(json.RawMessage(nil), raw...) }
func (r *RenewalInfo) retainRaw(raw []byte)         { r.Raw = append(json.RawMessage(nil), raw...) }
func (a *AppTransaction) retainRaw(raw []byte)      { a.Raw = append(json.RawMessage(nil), raw...) }

func decodeInto(payload []byte, dst rawRetainer) (DecodedPayload, error) {
	if err := json.Unmarshal(payload, dst); err != nil {
		return nil, NewError(MalformedPayload).WithParent(fmt.Errorf("decoding %T: %w", dst, err))
	}
	dst.retainRaw(payload)
	return dst, nil
}
