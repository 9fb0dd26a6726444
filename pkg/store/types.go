package store

import "time"

// Time is a UNIX timestamp in milliseconds, the representation used for all
// date fields in signed payloads. The zero value means the field was absent.
type Time int64

// AsTime converts the timestamp into a time.Time in UTC.
func (t Time) AsTime() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// FromTime converts a time.Time into the payload representation.
func FromTime(t time.Time) Time {
	return Time(t.UnixMilli())
}

// ProductType describes the kind of purchased product.
type ProductType string

const (
	ProductTypeAutoRenewableSubscription ProductType = "Auto-Renewable Subscription"
	ProductTypeNonConsumable             ProductType = "Non-Consumable"
	ProductTypeConsumable                ProductType = "Consumable"
	ProductTypeNonRenewingSubscription   ProductType = "Non-Renewing Subscription"
)

// InAppOwnershipType describes whether the transaction was purchased by the
// customer or shared with them.
type InAppOwnershipType string

const (
	OwnershipTypePurchased    InAppOwnershipType = "PURCHASED"
	OwnershipTypeFamilyShared InAppOwnershipType = "FAMILY_SHARED"
)

// TransactionReason indicates whether a transaction is a customer purchase
// or a system-initiated renewal.
type TransactionReason string

const (
	TransactionReasonPurchase TransactionReason = "PURCHASE"
	TransactionReasonRenewal  TransactionReason = "RENEWAL"
)

// OfferType represents the promotional offer category of a transaction.
type OfferType int32

const (
	OfferTypeIntroductory OfferType = 1
	OfferTypePromotional  OfferType = 2
	OfferTypeOfferCode    OfferType = 3
	OfferTypeWinBack      OfferType = 4
)

// OfferDiscountType is the payment mode of a subscription offer.
type OfferDiscountType string

const (
	OfferDiscountTypeFreeTrial  OfferDiscountType = "FREE_TRIAL"
	OfferDiscountTypePayAsYouGo OfferDiscountType = "PAY_AS_YOU_GO"
	OfferDiscountTypePayUpFront OfferDiscountType = "PAY_UP_FRONT"
)

// RevocationReason is the reason the platform refunded or revoked a
// transaction.
type RevocationReason int32

const (
	RevocationReasonOther    RevocationReason = 0
	RevocationReasonAppIssue RevocationReason = 1
)

// AutoRenewStatus is the renewal state of an auto-renewable subscription.
type AutoRenewStatus int32

const (
	AutoRenewStatusOff AutoRenewStatus = 0
	AutoRenewStatusOn  AutoRenewStatus = 1
)

// ExpirationIntent is the reason a subscription expired.
type ExpirationIntent int32

const (
	ExpirationIntentCustomerCancelled   ExpirationIntent = 1
	ExpirationIntentBillingError        ExpirationIntent = 2
	ExpirationIntentPriceIncreaseDenied ExpirationIntent = 3
	ExpirationIntentProductUnavailable  ExpirationIntent = 4
	ExpirationIntentOther               ExpirationIntent = 5
)

// PriceIncreaseStatus indicates whether the customer has consented to a
// subscription price increase.
type PriceIncreaseStatus int32

const (
	PriceIncreaseStatusPending   PriceIncreaseStatus = 0
	PriceIncreaseStatusConsented PriceIncreaseStatus = 1
)

// SubscriptionStatus is the state of an auto-renewable subscription at the
// time the platform signed the notification.
type SubscriptionStatus int32

const (
	SubscriptionStatusActive             SubscriptionStatus = 1
	SubscriptionStatusExpired            SubscriptionStatus = 2
	SubscriptionStatusBillingRetry       SubscriptionStatus = 3
	SubscriptionStatusBillingGracePeriod SubscriptionStatus = 4
	SubscriptionStatusRevoked            SubscriptionStatus = 5
)
