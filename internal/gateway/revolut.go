// Package gateway talks to the Revolut merchant API. The core only
// needs one call: create a payment order and get back the token the
// hosted checkout widget consumes. Payment confirmation arrives through
// the success callback, never through polling here.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	sandboxBaseURL    = "https://sandbox-merchant.revolut.com/api/1.0"
	productionBaseURL = "https://merchant.revolut.com/api/1.0"

	// requestTimeout bounds the one blocking external call of the
	// checkout path. The call is never retried: a retry could create a
	// second payment session for the same order.
	requestTimeout = 10 * time.Second
)

// Error is a non-success response from the gateway. Its detail is for
// logs; customers only see a generic payment-initialization failure.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("revolut API error [%d]: %s", e.StatusCode, e.Body)
}

// Session is the gateway's handle on a pending payment. Token feeds the
// hosted checkout popup on the frontend.
type Session struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// Client creates payment orders against the merchant API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a client for the given mode ("sandbox" or
// "production") and API key.
func NewClient(mode, apiKey string) *Client {
	baseURL := sandboxBaseURL
	if mode == "production" {
		baseURL = productionBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type createOrderRequest struct {
	// Amount is in minor units: 10.50 EUR is sent as 1050.
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	CaptureMode string `json:"capture_mode"`
}

// CreateOrder registers a payment order for the amount (major units)
// and returns the session whose token drives the hosted checkout.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, description string) (Session, error) {
	payload := createOrderRequest{
		Amount:      amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:    currency,
		Description: description,
		CaptureMode: "automatic",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Session{}, fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "WendysDiner/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Session{}, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Session{}, &Error{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var session Session
	if err := json.Unmarshal(respBody, &session); err != nil {
		return Session{}, fmt.Errorf("decode gateway response: %w", err)
	}
	return session, nil
}
