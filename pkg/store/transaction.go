package store

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Transaction is the decoded payload of a signed transaction token. All
// fields are optional on the wire; Raw preserves the payload as transmitted
// so that fields unknown to this version of the library are not lost.
type Transaction struct {
	OriginalTransactionID       string              `json:"originalTransactionId,omitempty"`
	TransactionID               string              `json:"transactionId,omitempty"`
	WebOrderLineItemID          string              `json:"webOrderLineItemId,omitempty"`
	BundleID                    string              `json:"bundleId,omitempty"`
	ProductID                   string              `json:"productId,omitempty"`
	SubscriptionGroupIdentifier string              `json:"subscriptionGroupIdentifier,omitempty"`
	PurchaseDate                Time                `json:"purchaseDate,omitempty"`
	OriginalPurchaseDate        Time                `json:"originalPurchaseDate,omitempty"`
	ExpiresDate                 Time                `json:"expiresDate,omitempty"`
	Quantity                    *int32              `json:"quantity,omitempty"`
	Type                        ProductType         `json:"type,omitempty"`
	AppAccountToken             *uuid.UUID          `json:"appAccountToken,omitempty"`
	InAppOwnershipType          InAppOwnershipType  `json:"inAppOwnershipType,omitempty"`
	SignedDate                  Time                `json:"signedDate,omitempty"`
	RevocationReason            *RevocationReason   `json:"revocationReason,omitempty"`
	RevocationDate              Time                `json:"revocationDate,omitempty"`
	IsUpgraded                  *bool               `json:"isUpgraded,omitempty"`
	OfferType                   *OfferType          `json:"offerType,omitempty"`
	OfferIdentifier             string              `json:"offerIdentifier,omitempty"`
	OfferDiscountType           OfferDiscountType   `json:"offerDiscountType,omitempty"`
	OfferPeriod                 string              `json:"offerPeriod,omitempty"`
	Environment                 Environment         `json:"environment,omitempty"`
	Storefront                  string              `json:"storefront,omitempty"`
	StorefrontID                string              `json:"storefrontId,omitempty"`
	TransactionReason           TransactionReason   `json:"transactionReason,omitempty"`
	Currency                    string              `json:"currency,omitempty"`
	Price                       *int64              `json:"price,omitempty"`
	AppTransactionID            string              `json:"appTransactionId,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// RenewalInfo is the decoded payload of a signed subscription-renewal token.
type RenewalInfo struct {
	ExpirationIntent            *ExpirationIntent    `json:"expirationIntent,omitempty"`
	OriginalTransactionID       string               `json:"originalTransactionId,omitempty"`
	AutoRenewProductID          string               `json:"autoRenewProductId,omitempty"`
	ProductID                   string               `json:"productId,omitempty"`
	AutoRenewStatus             *AutoRenewStatus     `json:"autoRenewStatus,omitempty"`
	IsInBillingRetryPeriod      *bool                `json:"isInBillingRetryPeriod,omitempty"`
	PriceIncreaseStatus         *PriceIncreaseStatus `json:"priceIncreaseStatus,omitempty"`
	GracePeriodExpiresDate      Time                 `json:"gracePeriodExpiresDate,omitempty"`
	OfferType                   *OfferType           `json:"offerType,omitempty"`
	OfferIdentifier             string               `json:"offerIdentifier,omitempty"`
	OfferDiscountType           OfferDiscountType    `json:"offerDiscountType,omitempty"`
	OfferPeriod                 string               `json:"offerPeriod,omitempty"`
	SignedDate                  Time                 `json:"signedDate,omitempty"`
	Environment                 Environment          `json:"environment,omitempty"`
	RecentSubscriptionStartDate Time                 `json:"recentSubscriptionStartDate,omitempty"`
	RenewalDate                 Time                 `json:"renewalDate,omitempty"`
	Currency                    string               `json:"currency,omitempty"`
	RenewalPrice                *int64               `json:"renewalPrice,omitempty"`
	EligibleWinBackOfferIDs     []string             `json:"eligibleWinBackOfferIds,omitempty"`
	AppAccountToken             *uuid.UUID           `json:"appAccountToken,omitempty"`
	AppTransactionID            string               `json:"appTransactionId,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// AppTransaction is the decoded payload of a signed app-install token.
type AppTransaction struct {
	ReceiptType                Environment `json:"receiptType,omitempty"`
	AppID                      *int64      `json:"appId,omitempty"`
	BundleID                   string      `json:"bundleId,omitempty"`
	ApplicationVersion         string      `json:"applicationVersion,omitempty"`
	VersionExternalIdentifier  *int64      `json:"versionExternalIdentifier,omitempty"`
	ReceiptCreationDate        Time        `json:"receiptCreationDate,omitempty"`
	OriginalPurchaseDate       Time        `json:"originalPurchaseDate,omitempty"`
	OriginalApplicationVersion string      `json:"originalApplicationVersion,omitempty"`
	DeviceVerification         string      `json:"deviceVerification,omitempty"`
	DeviceVerificationNonce    *uuid.UUID  `json:"deviceVerificationNonce,omitempty"`
	PreorderDate               Time        `json:"preorderDate,omitempty"`
	SignedDate                 Time        `json:"signedDate,omitempty"`
	AppTransactionID           string      `json:"appTransactionId,omitempty"`
	OriginalPlatform           string      `json:"originalPlatform,omitempty"`

	Raw json.RawMessage `json:"-"`
}
