package store

import "fmt"

// APIErrorCode is the machine-readable error code the server API returns in
// the body of a non-2xx response.
type APIErrorCode int64

const (
	APIErrorGeneralBadRequest                      APIErrorCode = 4000000
	APIErrorInvalidAppIdentifier                   APIErrorCode = 4000002
	APIErrorInvalidRequestRevision                 APIErrorCode = 4000005
	APIErrorInvalidTransactionID                   APIErrorCode = 4000006
	APIErrorInvalidExtendByDays                    APIErrorCode = 4000009
	APIErrorInvalidExtendReasonCode                APIErrorCode = 4000010
	APIErrorInvalidRequestIdentifier               APIErrorCode = 4000011
	APIErrorInvalidPaginationToken                 APIErrorCode = 4000014
	APIErrorSubscriptionExtensionIneligible        APIErrorCode = 4030004
	APIErrorAccountNotFound                        APIErrorCode = 4040001
	APIErrorAccountNotFoundRetryable               APIErrorCode = 4040002
	APIErrorAppNotFound                            APIErrorCode = 4040003
	APIErrorAppNotFoundRetryable                   APIErrorCode = 4040004
	APIErrorOriginalTransactionIDNotFound          APIErrorCode = 4040005
	APIErrorOriginalTransactionIDNotFoundRetryable APIErrorCode = 4040006
	APIErrorServerNotificationURLNotFound          APIErrorCode = 4040007
	APIErrorTestNotificationNotFound               APIErrorCode = 4040008
	APIErrorTransactionIDNotFound                  APIErrorCode = 4040010
	APIErrorRateLimitExceeded                      APIErrorCode = 4290000
	APIErrorGeneralInternal                        APIErrorCode = 5000000
	APIErrorGeneralInternalRetryable               APIErrorCode = 5000001
)

// APIError is the decoded error body of a failed server API call, together
// with the HTTP status it arrived with.
type APIError struct {
	StatusCode   int          `json:"-"`
	ErrorCode    APIErrorCode `json:"errorCode,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
}

func (e *APIError) Error() string {
	if e.ErrorCode == 0 {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s (status %d)", e.ErrorCode, e.ErrorMessage, e.StatusCode)
}

// Is matches any APIError with the same error code, ignoring the message and
// status. A target with code zero matches every APIError.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.ErrorCode == 0 || t.ErrorCode == e.ErrorCode
}

// Retryable reports whether the server marked the failure as transient.
func (e *APIError) Retryable() bool {
	switch e.ErrorCode {
	case APIErrorAccountNotFoundRetryable,
		APIErrorAppNotFoundRetryable,
		APIErrorOriginalTransactionIDNotFoundRetryable,
		APIErrorGeneralInternalRetryable,
		APIErrorRateLimitExceeded:
		return true
	}
	return false
}

// SortOrder orders transaction history responses.
type SortOrder string

const (
	SortAscending  SortOrder = "ASCENDING"
	SortDescending SortOrder = "DESCENDING"
)

// HistoryProductType filters transaction history queries. It is distinct
// from ProductType, whose values are the display names found in payloads.
type HistoryProductType string

const (
	HistoryProductTypeAutoRenewable HistoryProductType = "AUTO_RENEWABLE"
	HistoryProductTypeNonRenewable  HistoryProductType = "NON_RENEWABLE"
	HistoryProductTypeConsumable    HistoryProductType = "CONSUMABLE"
	HistoryProductTypeNonConsumable HistoryProductType = "NON_CONSUMABLE"
)

// TransactionHistoryRequest narrows a transaction history query. Zero values
// leave the corresponding filter unset.
type TransactionHistoryRequest struct {
	StartDate                    Time
	EndDate                      Time
	ProductIDs                   []string
	ProductTypes                 []HistoryProductType
	Sort                         SortOrder
	SubscriptionGroupIdentifiers []string
	InAppOwnershipType           InAppOwnershipType
	Revoked                      *bool
}

// TransactionInfoResponse carries the signed transaction for a single
// transaction identifier.
type TransactionInfoResponse struct {
	SignedTransactionInfo string `json:"signedTransactionInfo,omitempty"`
}

// HistoryResponse is one page of a customer's transaction history.
type HistoryResponse struct {
	Revision           string      `json:"revision,omitempty"`
	HasMore            bool        `json:"hasMore,omitempty"`
	BundleID           string      `json:"bundleId,omitempty"`
	AppID              *int64      `json:"appId,omitempty"`
	Environment        Environment `json:"environment,omitempty"`
	SignedTransactions []string    `json:"signedTransactions,omitempty"`
}

// StatusResponse reports the status of all of a customer's subscriptions,
// grouped by subscription group.
type StatusResponse struct {
	Environment Environment                       `json:"environment,omitempty"`
	BundleID    string                            `json:"bundleId,omitempty"`
	AppID       *int64                            `json:"appId,omitempty"`
	Data        []SubscriptionGroupIdentifierItem `json:"data,omitempty"`
}

type SubscriptionGroupIdentifierItem struct {
	SubscriptionGroupIdentifier string                 `json:"subscriptionGroupIdentifier,omitempty"`
	LastTransactions            []LastTransactionsItem `json:"lastTransactions,omitempty"`
}

type LastTransactionsItem struct {
	Status                *SubscriptionStatus `json:"status,omitempty"`
	OriginalTransactionID string              `json:"originalTransactionId,omitempty"`
	SignedTransactionInfo string              `json:"signedTransactionInfo,omitempty"`
	SignedRenewalInfo     string              `json:"signedRenewalInfo,omitempty"`
}

// RefundHistoryResponse is one page of a customer's refunded transactions.
type RefundHistoryResponse struct {
	SignedTransactions []string `json:"signedTransactions,omitempty"`
	Revision           string   `json:"revision,omitempty"`
	HasMore            bool     `json:"hasMore,omitempty"`
}

// NotificationHistoryRequest filters the notification history query.
type NotificationHistoryRequest struct {
	StartDate           Time                `json:"startDate,omitempty"`
	EndDate             Time                `json:"endDate,omitempty"`
	NotificationType    NotificationType    `json:"notificationType,omitempty"`
	NotificationSubtype NotificationSubtype `json:"notificationSubtype,omitempty"`
	TransactionID       string              `json:"transactionId,omitempty"`
	OnlyFailures        bool                `json:"onlyFailures,omitempty"`
}

// NotificationHistoryResponse is one page of previously sent notifications.
type NotificationHistoryResponse struct {
	NotificationHistory []NotificationHistoryResponseItem `json:"notificationHistory,omitempty"`
	PaginationToken     string                            `json:"paginationToken,omitempty"`
	HasMore             bool                              `json:"hasMore,omitempty"`
}

type NotificationHistoryResponseItem struct {
	SignedPayload string            `json:"signedPayload,omitempty"`
	SendAttempts  []SendAttemptItem `json:"sendAttempts,omitempty"`
}

// SendAttemptResult is the outcome of one notification delivery attempt.
type SendAttemptResult string

const (
	SendAttemptSuccess                  SendAttemptResult = "SUCCESS"
	SendAttemptTimedOut                 SendAttemptResult = "TIMED_OUT"
	SendAttemptTLSIssue                 SendAttemptResult = "TLS_ISSUE"
	SendAttemptCircularRedirect         SendAttemptResult = "CIRCULAR_REDIRECT"
	SendAttemptNoResponse               SendAttemptResult = "NO_RESPONSE"
	SendAttemptSocketIssue              SendAttemptResult = "SOCKET_ISSUE"
	SendAttemptUnsupportedCharset       SendAttemptResult = "UNSUPPORTED_CHARSET"
	SendAttemptInvalidResponse          SendAttemptResult = "INVALID_RESPONSE"
	SendAttemptPrematureClose           SendAttemptResult = "PREMATURE_CLOSE"
	SendAttemptUnsuccessfulHTTPResponse SendAttemptResult = "UNSUCCESSFUL_HTTP_RESPONSE_CODE"
	SendAttemptOther                    SendAttemptResult = "OTHER"
)

type SendAttemptItem struct {
	AttemptDate       Time              `json:"attemptDate,omitempty"`
	SendAttemptResult SendAttemptResult `json:"sendAttemptResult,omitempty"`
}

// SendTestNotificationResponse acknowledges a test notification request with
// the token to poll its status by.
type SendTestNotificationResponse struct {
	TestNotificationToken string `json:"testNotificationToken,omitempty"`
}

// CheckTestNotificationResponse reports the delivery attempts of a requested
// test notification.
type CheckTestNotificationResponse struct {
	SignedPayload string            `json:"signedPayload,omitempty"`
	SendAttempts  []SendAttemptItem `json:"sendAttempts,omitempty"`
}

// ExtendReasonCode is the reason a subscription renewal date extension is
// granted.
type ExtendReasonCode int32

const (
	ExtendReasonUndeclared           ExtendReasonCode = 0
	ExtendReasonCustomerSatisfaction ExtendReasonCode = 1
	ExtendReasonOther                ExtendReasonCode = 2
	ExtendReasonServiceIssue         ExtendReasonCode = 3
)

type ExtendRenewalDateRequest struct {
	ExtendByDays      int32            `json:"extendByDays,omitempty"`
	ExtendReasonCode  ExtendReasonCode `json:"extendReasonCode"`
	RequestIdentifier string           `json:"requestIdentifier,omitempty"`
}

type ExtendRenewalDateResponse struct {
	OriginalTransactionID string `json:"originalTransactionId,omitempty"`
	WebOrderLineItemID    string `json:"webOrderLineItemId,omitempty"`
	Success               bool   `json:"success,omitempty"`
	EffectiveDate         Time   `json:"effectiveDate,omitempty"`
}

// ConsumptionRequest reports consumption information for a refund request.
type ConsumptionRequest struct {
	CustomerConsented        bool   `json:"customerConsented"`
	ConsumptionStatus        *int32 `json:"consumptionStatus,omitempty"`
	Platform                 *int32 `json:"platform,omitempty"`
	SampleContentProvided    bool   `json:"sampleContentProvided"`
	DeliveryStatus           *int32 `json:"deliveryStatus,omitempty"`
	AppAccountToken          string `json:"appAccountToken,omitempty"`
	AccountTenure            *int32 `json:"accountTenure,omitempty"`
	PlayTime                 *int32 `json:"playTime,omitempty"`
	LifetimeDollarsRefunded  *int32 `json:"lifetimeDollarsRefunded,omitempty"`
	LifetimeDollarsPurchased *int32 `json:"lifetimeDollarsPurchased,omitempty"`
	UserStatus               *int32 `json:"userStatus,omitempty"`
	RefundPreference         *int32 `json:"refundPreference,omitempty"`
}

// OrderLookupStatus reports whether an order identifier was found.
type OrderLookupStatus int32

const (
	OrderLookupValid   OrderLookupStatus = 0
	OrderLookupInvalid OrderLookupStatus = 1
)

type OrderLookupResponse struct {
	Status             OrderLookupStatus `json:"status"`
	SignedTransactions []string          `json:"signedTransactions,omitempty"`
}
