package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/core/domain"
)

// ExtractReceiptRequest points the extractor at an uploaded receipt.
type ExtractReceiptRequest struct {
	ReceiptURL string `json:"receiptURL" binding:"required,url"`
}

// CreateExpenseRequest defines a manually entered expense.
type CreateExpenseRequest struct {
	Date         time.Time       `json:"date" binding:"required"`
	Supplier     string          `json:"supplier" binding:"required"`
	Category     string          `json:"category" binding:"required"`
	Subtotal     decimal.Decimal `json:"subtotal" binding:"required"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3"`
}

// UpdateExpenseRequest defines inline edits. Pointers distinguish zero-value
// updates from fields not provided.
type UpdateExpenseRequest struct {
	Date     *time.Time            `json:"date"`
	Supplier *string               `json:"supplier"`
	Category *string               `json:"category"`
	Subtotal *decimal.Decimal      `json:"subtotal"`
	Tax      *decimal.Decimal      `json:"tax"`
	Total    *decimal.Decimal      `json:"total"`
	Status   *domain.ExpenseStatus `json:"status" binding:"omitempty,oneof=pending approved"`
}

// ExpenseResponse defines the data returned for an expense.
type ExpenseResponse struct {
	ExpenseID    string                 `json:"expenseID"`
	ProjectID    string                 `json:"projectID"`
	Date         time.Time              `json:"date"`
	Supplier     string                 `json:"supplier"`
	Category     domain.ExpenseCategory `json:"category"`
	Subtotal     decimal.Decimal        `json:"subtotal"`
	Tax          decimal.Decimal        `json:"tax"`
	Total        decimal.Decimal        `json:"total"`
	CurrencyCode string                 `json:"currencyCode"`
	Confidence   float64                `json:"confidence"`
	Status       domain.ExpenseStatus   `json:"status"`
	ReceiptURL   string                 `json:"receiptURL,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// ToExpenseResponse converts a domain.Expense to ExpenseResponse DTO
func ToExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ExpenseID:    e.ExpenseID,
		ProjectID:    e.ProjectID,
		Date:         e.Date,
		Supplier:     e.Supplier,
		Category:     e.Category,
		Subtotal:     e.Subtotal,
		Tax:          e.Tax,
		Total:        e.Total,
		CurrencyCode: e.CurrencyCode,
		Confidence:   e.Confidence,
		Status:       e.Status,
		ReceiptURL:   e.ReceiptURL,
		CreatedAt:    e.CreatedAt,
	}
}

// ToListExpenseResponse converts a slice of domain.Expense.
func ToListExpenseResponse(expenses []domain.Expense) []ExpenseResponse {
	res := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		res[i] = ToExpenseResponse(&e)
	}
	return res
}

// ExportResult is a rendered export file ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}
