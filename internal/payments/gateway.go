package payments

import (
	"context"
	"time"

	"thticket/internal/payments/payos"
	"thticket/internal/shared/config"
)

// Gateway opens checkout sessions with the payment provider. The service
// depends on this interface so tests can settle without a live gateway.
type Gateway interface {
	CreateCheckout(ctx context.Context, orderCode, amount int64, description string) (checkoutURL string, err error)
}

// payosGateway adapts the PayOS client to the Gateway interface, filling in
// the redirect URLs and session expiry from config.
type payosGateway struct {
	client         *payos.Client
	returnURL      string
	cancelURL      string
	sessionTimeout time.Duration
}

func NewPayOSGateway(cfg config.PayOSConfig) Gateway {
	return &payosGateway{
		client: payos.NewClient(payos.Config{
			BaseURL:     cfg.BaseURL,
			ClientID:    cfg.ClientID,
			APIKey:      cfg.APIKey,
			ChecksumKey: cfg.ChecksumKey,
		}),
		returnURL:      cfg.ReturnURL,
		cancelURL:      cfg.CancelURL,
		sessionTimeout: cfg.SessionTimeout,
	}
}

func (g *payosGateway) CreateCheckout(ctx context.Context, orderCode, amount int64, description string) (string, error) {
	resp, err := g.client.CreatePaymentLink(ctx, payos.CheckoutRequest{
		OrderCode:   orderCode,
		Amount:      amount,
		Description: description,
		ReturnURL:   g.returnURL,
		CancelURL:   g.cancelURL,
		ExpiredAt:   time.Now().Add(g.sessionTimeout).Unix(),
	})
	if err != nil {
		return "", err
	}
	return resp.CheckoutURL, nil
}
