// Package payos implements the create-payment-link call against the PayOS
// merchant API. Only the checkout URL and the order code are consumed by the
// rest of the system; callbacks are correlated by order code alone.
package payos

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Config holds the merchant credentials and redirect URLs.
type Config struct {
	BaseURL     string
	ClientID    string
	APIKey      string
	ChecksumKey string
}

// Client is an HTTP client for the PayOS merchant API.
type Client struct {
	// baseURL is the base url of the PayOS merchant API.
	baseURL string

	// clientID and apiKey authenticate every request.
	clientID string
	apiKey   string

	// checksumKey signs the payment data of each create request.
	checksumKey string

	// hc is the http client.
	hc *http.Client
}

// NewClient creates a new PayOS client.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		clientID:    cfg.ClientID,
		apiKey:      cfg.APIKey,
		checksumKey: cfg.ChecksumKey,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CheckoutRequest is the create-payment-link payload.
type CheckoutRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	CancelURL   string `json:"cancelUrl"`
	ReturnURL   string `json:"returnUrl"`
	ExpiredAt   int64  `json:"expiredAt"`
	Signature   string `json:"signature"`
}

// CheckoutResponse is the subset of the gateway response the platform uses.
type CheckoutResponse struct {
	CheckoutURL   string
	PaymentLinkID string
}

type createResponseEnvelope struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data struct {
		CheckoutURL   string `json:"checkoutUrl"`
		PaymentLinkID string `json:"paymentLinkId"`
	} `json:"data"`
}

// CreatePaymentLink opens a checkout session for the given order code and
// returns its checkout URL.
func (c *Client) CreatePaymentLink(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	req.Signature = c.Sign(req)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("payos: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/payment-requests", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payos: failed to build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-client-id", c.clientID)
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payos: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payos: unexpected status %d", resp.StatusCode)
	}

	var envelope createResponseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("payos: failed to decode response: %w", err)
	}

	// "00" is the gateway's success code
	if envelope.Code != "00" {
		return nil, fmt.Errorf("payos: gateway error %s: %s", envelope.Code, envelope.Desc)
	}

	if envelope.Data.CheckoutURL == "" {
		return nil, fmt.Errorf("payos: response missing checkout url")
	}

	return &CheckoutResponse{
		CheckoutURL:   envelope.Data.CheckoutURL,
		PaymentLinkID: envelope.Data.PaymentLinkID,
	}, nil
}

// Sign computes the HMAC-SHA256 hex signature over the payment fields in
// alphabetical key order, as required by the merchant API.
func (c *Client) Sign(req CheckoutRequest) string {
	data := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		req.Amount, req.CancelURL, req.Description, req.OrderCode, req.ReturnURL)

	mac := hmac.New(sha256.New, []byte(c.checksumKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
