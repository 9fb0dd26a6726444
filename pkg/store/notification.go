package store

import "encoding/json"

// NotificationType is the event a notification reports.
type NotificationType string

const (
	NotificationTypeSubscribed             NotificationType = "SUBSCRIBED"
	NotificationTypeDidRenew               NotificationType = "DID_RENEW"
	NotificationTypeDidFailToRenew         NotificationType = "DID_FAIL_TO_RENEW"
	NotificationTypeDidChangeRenewalPref   NotificationType = "DID_CHANGE_RENEWAL_PREF"
	NotificationTypeDidChangeRenewalStatus NotificationType = "DID_CHANGE_RENEWAL_STATUS"
	NotificationTypeExpired                NotificationType = "EXPIRED"
	NotificationTypeGracePeriodExpired     NotificationType = "GRACE_PERIOD_EXPIRED"
	NotificationTypeOfferRedeemed          NotificationType = "OFFER_REDEEMED"
	NotificationTypePriceIncrease          NotificationType = "PRICE_INCREASE"
	NotificationTypeRefund                 NotificationType = "REFUND"
	NotificationTypeRefundDeclined         NotificationType = "REFUND_DECLINED"
	NotificationTypeRefundReversed         NotificationType = "REFUND_REVERSED"
	NotificationTypeRenewalExtended        NotificationType = "RENEWAL_EXTENDED"
	NotificationTypeRenewalExtension       NotificationType = "RENEWAL_EXTENSION"
	NotificationTypeRevoke                 NotificationType = "REVOKE"
	NotificationTypeConsumptionRequest     NotificationType = "CONSUMPTION_REQUEST"
	NotificationTypeExternalPurchaseToken  NotificationType = "EXTERNAL_PURCHASE_TOKEN"
	NotificationTypeOneTimeCharge          NotificationType = "ONE_TIME_CHARGE"
	NotificationTypeTest                   NotificationType = "TEST"
)

// NotificationSubtype qualifies the notification type for specific events.
type NotificationSubtype string

const (
	SubtypeInitialBuy        NotificationSubtype = "INITIAL_BUY"
	SubtypeResubscribe       NotificationSubtype = "RESUBSCRIBE"
	SubtypeDowngrade         NotificationSubtype = "DOWNGRADE"
	SubtypeUpgrade           NotificationSubtype = "UPGRADE"
	SubtypeAutoRenewEnabled  NotificationSubtype = "AUTO_RENEW_ENABLED"
	SubtypeAutoRenewDisabled NotificationSubtype = "AUTO_RENEW_DISABLED"
	SubtypeVoluntary         NotificationSubtype = "VOLUNTARY"
	SubtypeBillingRetry      NotificationSubtype = "BILLING_RETRY"
	SubtypePriceIncrease     NotificationSubtype = "PRICE_INCREASE"
	SubtypeGracePeriod       NotificationSubtype = "GRACE_PERIOD"
	SubtypePending           NotificationSubtype = "PENDING"
	SubtypeAccepted          NotificationSubtype = "ACCEPTED"
	SubtypeSummary           NotificationSubtype = "SUMMARY"
	SubtypeFailure           NotificationSubtype = "FAILURE"
	SubtypeUnreported        NotificationSubtype = "UNREPORTED"
)

// NotificationPayload is the decoded outer payload of a signed notification.
// Exactly one of Data, Summary or ExternalPurchaseToken is present,
// depending on the notification type.
type NotificationPayload struct {
	NotificationType      NotificationType       `json:"notificationType,omitempty"`
	Subtype               NotificationSubtype    `json:"subtype,omitempty"`
	NotificationUUID      string                 `json:"notificationUUID,omitempty"`
	Version               string                 `json:"version,omitempty"`
	SignedDate            Time                   `json:"signedDate,omitempty"`
	Data                  *NotificationData      `json:"data,omitempty"`
	Summary               *NotificationSummary   `json:"summary,omitempty"`
	ExternalPurchaseToken *ExternalPurchaseToken `json:"externalPurchaseToken,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// NotificationData carries the app metadata and the nested signed
// transaction and renewal tokens of a notification.
//
// TransactionInfo and RenewalInfo hold the decoded nested payloads. They are
// populated by the verifier after each nested token has passed the full
// verification pipeline on its own; they are never derived from the outer
// payload's validity.
type NotificationData struct {
	Environment           Environment         `json:"environment,omitempty"`
	AppID                 *int64              `json:"appId,omitempty"`
	BundleID              string              `json:"bundleId,omitempty"`
	BundleVersion         string              `json:"bundleVersion,omitempty"`
	SignedTransactionInfo string              `json:"signedTransactionInfo,omitempty"`
	SignedRenewalInfo     string              `json:"signedRenewalInfo,omitempty"`
	Status                *SubscriptionStatus `json:"status,omitempty"`

	TransactionInfo *Transaction `json:"-"`
	RenewalInfo     *RenewalInfo `json:"-"`
}

// NotificationSummary is present when the platform completed a request to
// extend renewal dates for a set of subscribers.
type NotificationSummary struct {
	Environment            Environment `json:"environment,omitempty"`
	AppID                  *int64      `json:"appId,omitempty"`
	BundleID               string      `json:"bundleId,omitempty"`
	ProductID              string      `json:"productId,omitempty"`
	RequestIdentifier      string      `json:"requestIdentifier,omitempty"`
	StorefrontCountryCodes []string    `json:"storefrontCountryCodes,omitempty"`
	SucceededCount         int64       `json:"succeededCount,omitempty"`
	FailedCount            int64       `json:"failedCount,omitempty"`
}

// ExternalPurchaseToken reports a purchase made through an external system.
type ExternalPurchaseToken struct {
	ExternalPurchaseID string `json:"externalPurchaseId,omitempty"`
	TokenCreationDate  Time   `json:"tokenCreationDate,omitempty"`
	AppID              *int64 `json:"appId,omitempty"`
	BundleID           string `json:"bundleId,omitempty"`
}
