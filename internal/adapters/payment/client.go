// Package payment is the HTTP adapter over the server-side payment
// collaborator. The collaborator exposes JSON callables; this client owns the
// request shaping and error translation, nothing more. Business rules about
// when a payment may happen live in the services layer.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/apperrors"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
)

const defaultTimeout = 30 * time.Second

// Client calls the payment collaborator's callable endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a payment client against the collaborator's base URL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

var _ portssvc.PaymentSvc = (*Client)(nil)

// collaboratorError is the JSON error envelope the collaborator returns on
// non-2xx responses. Its message is surfaced verbatim.
type collaboratorError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// call POSTs a JSON payload to a callable and decodes the response into out.
func (c *Client) call(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment collaborator unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read payment response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ce collaboratorError
		if jsonErr := json.Unmarshal(respBody, &ce); jsonErr == nil && ce.Error.Message != "" {
			return apperrors.NewPaymentError(ce.Error.Message)
		}
		return apperrors.NewPaymentError(fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, endpoint))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode payment response from %s: %w", endpoint, err)
		}
	}
	return nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*portssvc.PaymentIntent, error) {
	payload := map[string]any{
		"amount":   amount,
		"currency": currency,
		"metadata": metadata,
	}
	var intent portssvc.PaymentIntent
	if err := c.call(ctx, "/createPaymentIntent", payload, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, amount decimal.Decimal, currency string, successURL, cancelURL string, metadata map[string]string) (*portssvc.CheckoutSession, error) {
	payload := map[string]any{
		"amount":     amount,
		"currency":   currency,
		"successUrl": successURL,
		"cancelUrl":  cancelURL,
		"metadata":   metadata,
	}
	var session portssvc.CheckoutSession
	if err := c.call(ctx, "/createCheckoutSession", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) CreateRefund(ctx context.Context, paymentIntentID string, amount *decimal.Decimal) (*portssvc.Refund, error) {
	payload := map[string]any{
		"paymentIntentId": paymentIntentID,
	}
	if amount != nil {
		payload["amount"] = *amount
	}
	var refund portssvc.Refund
	if err := c.call(ctx, "/createRefund", payload, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (c *Client) GetPaymentStatus(ctx context.Context, paymentIntentID string) (string, error) {
	payload := map[string]any{
		"paymentIntentId": paymentIntentID,
	}
	var result struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, "/getPaymentStatus", payload, &result); err != nil {
		return "", err
	}
	return result.Status, nil
}
