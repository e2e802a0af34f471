package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// ReceiptLineItem is one line the extractor pulled from a receipt image.
type ReceiptLineItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

// ReceiptFields is the structured result of receipt extraction. Category is
// the raw AI suggestion and must be validated against the closed category set
// before being written.
type ReceiptFields struct {
	Date       string            `json:"date"` // ISO date as extracted
	Supplier   string            `json:"supplier"`
	Category   string            `json:"category"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
	Tax        decimal.Decimal   `json:"tax"`
	Total      decimal.Decimal   `json:"total"`
	Currency   string            `json:"currency"`
	LineItems  []ReceiptLineItem `json:"lineItems"`
	Confidence float64           `json:"confidence"`
}

// ReceiptExtractorSvc is the port over the proxied AI generation collaborator.
type ReceiptExtractorSvc interface {
	// ExtractReceipt sends the receipt to the generation endpoint and parses
	// the extractable text into structured fields.
	ExtractReceipt(ctx context.Context, receiptURL string) (*ReceiptFields, error)

	// SuggestCategory asks for a single category word for the given supplier
	// and amount. The caller validates the suggestion.
	SuggestCategory(ctx context.Context, supplier string, total decimal.Decimal) (string, error)
}
