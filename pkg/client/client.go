// Package client implements the store server API: signed bearer
// authentication and the transaction, subscription, refund, notification and
// order lookup endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/storesign/storesign/internal/otel"
	httphelper "github.com/storesign/storesign/pkg/http"
	"github.com/storesign/storesign/pkg/store"
)

var Tracer = otel.Tracer("github.com/storesign/storesign/pkg/client")

const (
	productionBaseURL   = "https://api.storekit.example.com"
	sandboxBaseURL      = "https://api.storekit-sandbox.example.com"
	localTestingBaseURL = "https://local-testing-base-url"

	userAgent = "storesign/1.0"
)

// Client calls the store server API for one app. It is safe for concurrent
// use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     oauth2.TokenSource
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the environment-derived base URL, for tests or
// proxied setups.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// New creates a Client authenticating with tokens signed by the PEM encoded
// EC privateKey. The environment selects the API host; Xcode is a purely
// local environment and has no API.
func New(privateKey []byte, keyID, issuerID, bundleID string, environment store.Environment, options ...ClientOption) (*Client, error) {
	var baseURL string
	switch environment {
	case store.EnvironmentProduction:
		baseURL = productionBaseURL
	case store.EnvironmentSandbox:
		baseURL = sandboxBaseURL
	case store.EnvironmentLocalTesting:
		baseURL = localTestingBaseURL
	default:
		return nil, fmt.Errorf("no server API in environment %q", environment)
	}
	tokens, err := NewTokenSource(privateKey, keyID, issuerID, bundleID)
	if err != nil {
		return nil, err
	}
	c := &Client{
		httpClient: httphelper.DefaultHTTPClient,
		baseURL:    baseURL,
		tokens:     tokens,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// GetTransactionInfo returns the signed transaction for a transaction
// identifier.
func (c *Client) GetTransactionInfo(ctx context.Context, transactionID string) (*store.TransactionInfoResponse, error) {
	ctx, span := Tracer.Start(ctx, "GetTransactionInfo")
	defer span.End()

	resp := new(store.TransactionInfoResponse)
	err := c.call(ctx, http.MethodGet, "/inApps/v1/transactions/"+url.PathEscape(transactionID), nil, nil, resp)
	return resp, err
}

// GetTransactionHistory returns one page of the customer's transaction
// history. revision continues a previous page; request narrows the query.
func (c *Client) GetTransactionHistory(ctx context.Context, transactionID, revision string, request *store.TransactionHistoryRequest) (*store.HistoryResponse, error) {
	ctx, span := Tracer.Start(ctx, "GetTransactionHistory")
	defer span.End()

	query := url.Values{}
	if revision != "" {
		query.Set("revision", revision)
	}
	if request != nil {
		if request.StartDate != 0 {
			query.Set("startDate", strconv.FormatInt(int64(request.StartDate), 10))
		}
		if request.EndDate != 0 {
			query.Set("endDate", strconv.FormatInt(int64(request.EndDate), 10))
		}
		for _, id := range request.ProductIDs {
			query.Add("productId", id)
		}
		for _, productType := range request.ProductTypes {
			query.Add("productType", string(productType))
		}
		if request.Sort != "" {
			query.Set("sort", string(request.Sort))
		}
		for _, id := range request.SubscriptionGroupIdentifiers {
			query.Add("subscriptionGroupIdentifier", id)
		}
		if request.InAppOwnershipType != "" {
			query.Set("inAppOwnershipType", string(request.InAppOwnershipType))
		}
		if request.Revoked != nil {
			query.Set("revoked", strconv.FormatBool(*request.Revoked))
		}
	}

	resp := new(store.HistoryResponse)
	err := c.call(ctx, http.MethodGet, "/inApps/v2/history/"+url.PathEscape(transactionID), query, nil, resp)
	return resp, err
}

// GetAllSubscriptionStatuses returns the status of every subscription the
// customer holds, optionally filtered to the given statuses.
func (c *Client) GetAllSubscriptionStatuses(ctx context.Context, transactionID string, statuses ...store.SubscriptionStatus) (*store.StatusResponse, error) {
	ctx, span := Tracer.Start(ctx, "GetAllSubscriptionStatuses")
	defer span.End()

	query := url.Values{}
	for _, status := range statuses {
		query.Add("status", strconv.FormatInt(int64(status), 10))
	}

	resp := new(store.StatusResponse)
	err := c.call(ctx, http.MethodGet, "/inApps/v1/subscriptions/"+url.PathEscape(transactionID), query, nil, resp)
	return resp, err
}

// GetRefundHistory returns one page of the customer's refunded transactions.
func (c *Client) GetRefundHistory(ctx context.Context, transactionID, revision string) (*store.RefundHistoryResponse, error) {
	ctx, span := Tracer.Start(ctx, "GetRefundHistory")
	defer span.End()

	query := url.Values{}
	if revision != "" {
		query.Set("revision", revision)
	}

	resp := new(store.RefundHistoryResponse)
	err := c.call(ctx, http.MethodGet, "/inApps/v2/refund/lookup/"+url.PathEscape(transactionID), query, nil, resp)
	return resp, err
}

// GetNotificationHistory returns one page of previously sent notifications.
// paginationToken continues a previous page.
func (c *Client) GetNotificationHistory(ctx context.Context, paginationToken string, request *store.NotificationHistoryRequest) (*store.NotificationHistoryResponse, error) {
	ctx, span := Tracer.Start(ctx, "GetNotificationHistory")
	defer span.End()

	query := url.Values{}
	if paginationToken != "" {
		query.Set("paginationToken", paginationToken)
	}

	resp := new(store.NotificationHistoryResponse)
	err := c.call(ctx, http.MethodPost, "/inApps/v1/notifications/history", query, request, resp)
	return resp, err
}

// RequestTestNotification asks the server to send a test notification to the
// app's notification endpoint.
func (c *Client) RequestTestNotification(ctx context.Context) (*store.SendTestNotificationResponse, error) {
	ctx, span := Tracer.Start(ctx, "RequestTestNotification")
	defer span.End()

	resp := new(store.SendTestNotificationResponse)
	err := c.call(ctx, http.MethodPost, "/inApps/v1/notifications/test", nil, nil, resp)
	return resp, err
}

// GetTestNotificationStatus reports the delivery attempts of a previously
// requested test notification.
func (c *Client) GetTestNotificationStatus(ctx context.Context, testNotificationToken string) (*store.CheckTestNotificationResponse, error) {
	ctx, span := Tracer.Start(ctx, "GetTestNotificationStatus")
	defer span.End()

	resp := new(store.CheckTestNotificationResponse)
	err := c.call(ctx, http.MethodGet, "/inApps/v1/notifications/test/"+url.PathEscape(testNotificationToken), nil, nil, resp)
	return resp, err
}

// ExtendSubscriptionRenewalDate extends the renewal date of a customer's
// active subscription.
func (c *Client) ExtendSubscriptionRenewalDate(ctx context.Context, originalTransactionID string, request *store.ExtendRenewalDateRequest) (*store.ExtendRenewalDateResponse, error) {
	ctx, span := Tracer.Start(ctx, "ExtendSubscriptionRenewalDate")
	defer span.End()

	resp := new(store.ExtendRenewalDateResponse)
	err := c.call(ctx, http.MethodPut, "/inApps/v1/subscriptions/extend/"+url.PathEscape(originalTransactionID), nil, request, resp)
	return resp, err
}

// SendConsumptionData responds to a consumption request notification with
// information about the customer's use of the refunded purchase.
func (c *Client) SendConsumptionData(ctx context.Context, transactionID string, request *store.ConsumptionRequest) error {
	ctx, span := Tracer.Start(ctx, "SendConsumptionData")
	defer span.End()

	return c.call(ctx, http.MethodPut, "/inApps/v1/transactions/consumption/"+url.PathEscape(transactionID), nil, request, nil)
}

// LookUpOrderID returns the signed transactions that belong to a customer
// order identifier.
func (c *Client) LookUpOrderID(ctx context.Context, orderID string) (*store.OrderLookupResponse, error) {
	ctx, span := Tracer.Start(ctx, "LookUpOrderID")
	defer span.End()

	resp := new(store.OrderLookupResponse)
	err := c.call(ctx, http.MethodGet, "/inApps/v1/lookup/"+url.PathEscape(orderID), nil, nil, resp)
	return resp, err
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, response any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to mint bearer token: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return httphelper.HttpRequest(c.httpClient, req, response)
}
