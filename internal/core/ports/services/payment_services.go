package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentIntent is the collaborator's handle for a pending charge.
type PaymentIntent struct {
	ID           string          `json:"id"`
	ClientSecret string          `json:"clientSecret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
}

// CheckoutSession is a hosted payment page created by the collaborator.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Refund is the collaborator's record of a (possibly partial) refund.
type Refund struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

// PaymentSvc is the port over the server-side payment collaborator. Error
// messages from the collaborator are surfaced verbatim (apperrors.ErrPayment).
type PaymentSvc interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*PaymentIntent, error)
	CreateCheckoutSession(ctx context.Context, amount decimal.Decimal, currency string, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error)
	CreateRefund(ctx context.Context, paymentIntentID string, amount *decimal.Decimal) (*Refund, error)
	GetPaymentStatus(ctx context.Context, paymentIntentID string) (string, error)
}
