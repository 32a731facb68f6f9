package payos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIsDeterministic(t *testing.T) {
	client := NewClient(Config{ChecksumKey: "test-checksum-key"})

	req := CheckoutRequest{
		OrderCode:   10042,
		Amount:      300000,
		Description: "Booking #42",
		CancelURL:   "https://example.com/cancel",
		ReturnURL:   "https://example.com/success",
	}

	first := client.Sign(req)
	second := client.Sign(req)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64, "hex-encoded sha256")
}

func TestSignChangesWithPaymentData(t *testing.T) {
	client := NewClient(Config{ChecksumKey: "test-checksum-key"})

	base := CheckoutRequest{
		OrderCode:   10042,
		Amount:      300000,
		Description: "Booking #42",
		CancelURL:   "https://example.com/cancel",
		ReturnURL:   "https://example.com/success",
	}

	tampered := base
	tampered.Amount = 1

	assert.NotEqual(t, client.Sign(base), client.Sign(tampered))
}

func TestCreatePaymentLink(t *testing.T) {
	var received CheckoutRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/payment-requests", r.URL.Path)
		assert.Equal(t, "client-1", r.Header.Get("x-client-id"))
		assert.Equal(t, "api-key-1", r.Header.Get("x-api-key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": "00",
			"desc": "success",
			"data": map[string]interface{}{
				"checkoutUrl":   "https://pay.payos.vn/web/abc123",
				"paymentLinkId": "abc123",
			},
		})
	}))
	defer ts.Close()

	client := NewClient(Config{
		BaseURL:     ts.URL,
		ClientID:    "client-1",
		APIKey:      "api-key-1",
		ChecksumKey: "secret",
	})

	resp, err := client.CreatePaymentLink(context.Background(), CheckoutRequest{
		OrderCode:   10042,
		Amount:      300000,
		Description: "Booking #42",
		CancelURL:   "https://example.com/cancel",
		ReturnURL:   "https://example.com/success",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://pay.payos.vn/web/abc123", resp.CheckoutURL)
	assert.Equal(t, "abc123", resp.PaymentLinkID)

	// The request went out signed
	assert.NotEmpty(t, received.Signature)
	assert.Equal(t, int64(10042), received.OrderCode)
}

func TestCreatePaymentLinkGatewayError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": "231",
			"desc": "duplicate order code",
		})
	}))
	defer ts.Close()

	client := NewClient(Config{BaseURL: ts.URL, ChecksumKey: "secret"})

	_, err := client.CreatePaymentLink(context.Background(), CheckoutRequest{OrderCode: 10042, Amount: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "231")
}

func TestCreatePaymentLinkHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	client := NewClient(Config{BaseURL: ts.URL, ChecksumKey: "secret"})

	_, err := client.CreatePaymentLink(context.Background(), CheckoutRequest{OrderCode: 10042, Amount: 1})
	assert.Error(t, err)
}
