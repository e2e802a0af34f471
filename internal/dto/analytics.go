package dto

import (
	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/core/domain"
)

// CategoryTotal is one row of the category breakdown. Percentage is of the
// grand total, rounded to one decimal place.
type CategoryTotal struct {
	Category   domain.ExpenseCategory `json:"category"`
	Total      decimal.Decimal        `json:"total"`
	Percentage float64                `json:"percentage"`
}

// MonthTotal is one charting point of the monthly series, keyed by year-month.
type MonthTotal struct {
	Month string          `json:"month"` // "2006-01"
	Total decimal.Decimal `json:"total"`
}

// Anomaly flags an expense whose total exceeds twice the mean.
type Anomaly struct {
	ExpenseID string          `json:"expenseID"`
	Supplier  string          `json:"supplier"`
	Total     decimal.Decimal `json:"total"`
	Ratio     string          `json:"ratio"` // human readable, e.g. "3.1x average"
}

// ExpenseAnalyticsResponse carries every derived aggregate, recomputed from
// scratch on each request.
type ExpenseAnalyticsResponse struct {
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	ExpenseCount   int             `json:"expenseCount"`
	ByCategory     []CategoryTotal `json:"byCategory"`
	ByMonth        []MonthTotal    `json:"byMonth"`
	MonthlyAverage decimal.Decimal `json:"monthlyAverage"`
	Anomalies      []Anomaly       `json:"anomalies"`
}
