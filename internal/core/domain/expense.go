package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory is one of a fixed closed set of spending categories.
// AI-suggested categories outside this set are discarded rather than written.
type ExpenseCategory string

const (
	CategoryInventory ExpenseCategory = "inventory"
	CategoryMarketing ExpenseCategory = "marketing"
	CategoryRent      ExpenseCategory = "rent"
	CategoryUtilities ExpenseCategory = "utilities"
	CategorySalaries  ExpenseCategory = "salaries"
	CategorySoftware  ExpenseCategory = "software"
	CategoryShipping  ExpenseCategory = "shipping"
	CategoryTravel    ExpenseCategory = "travel"
	CategoryMeals     ExpenseCategory = "meals"
	CategoryOther     ExpenseCategory = "other"
)

// ExpenseCategories lists every recognized category.
var ExpenseCategories = []ExpenseCategory{
	CategoryInventory,
	CategoryMarketing,
	CategoryRent,
	CategoryUtilities,
	CategorySalaries,
	CategorySoftware,
	CategoryShipping,
	CategoryTravel,
	CategoryMeals,
	CategoryOther,
}

// IsValid reports whether the category belongs to the closed set.
func (c ExpenseCategory) IsValid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseExpenseCategory normalizes a free-form (typically AI-suggested)
// category string. The second return value reports whether the suggestion was
// recognized; unrecognized suggestions must not be written.
func ParseExpenseCategory(s string) (ExpenseCategory, bool) {
	c := ExpenseCategory(strings.ToLower(strings.TrimSpace(s)))
	if c.IsValid() {
		return c, true
	}
	return CategoryOther, false
}

// ExpenseStatus indicates whether an expense has been reviewed.
type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
)

// ExpenseLineItem is a single line extracted from a receipt.
type ExpenseLineItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

// Expense is a single spending record within a project, typically created
// from asynchronous receipt extraction and refined by inline edits.
type Expense struct {
	ExpenseID    string            `json:"expenseID"` // Primary Key (UUID)
	ProjectID    string            `json:"projectID"` // Owning project (scope key)
	Date         time.Time         `json:"date"`
	Supplier     string            `json:"supplier"`
	Category     ExpenseCategory   `json:"category"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Tax          decimal.Decimal   `json:"tax"`
	Total        decimal.Decimal   `json:"total"`
	CurrencyCode string            `json:"currencyCode"`
	LineItems    []ExpenseLineItem `json:"lineItems,omitempty"`
	Confidence   float64           `json:"confidence"` // Receipt-extraction confidence [0,1]
	Status       ExpenseStatus     `json:"status"`
	ReceiptURL   string            `json:"receiptURL,omitempty"`
	AuditFields
}
