package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/core/domain"
	"github.com/storekit/storefront_backend/internal/dto"
)

// Pure, referentially transparent calculators over the full in-memory expense
// list. Everything recomputes from scratch on each call; the input size is
// bounded by UI pagination, so there is no incremental state to keep.

// GrandTotal sums every expense total.
func GrandTotal(expenses []domain.Expense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e.Total)
	}
	return sum
}

// GroupByCategory sums totals per category and computes each category's share
// of the grand total as a percentage with one decimal place. Categories with
// no spend are omitted. Results are ordered by descending total.
func GroupByCategory(expenses []domain.Expense) []dto.CategoryTotal {
	totals := make(map[domain.ExpenseCategory]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Total)
	}

	grand := GrandTotal(expenses)
	out := make([]dto.CategoryTotal, 0, len(totals))
	hundred := decimal.NewFromInt(100)
	for category, total := range totals {
		row := dto.CategoryTotal{Category: category, Total: total}
		if grand.IsPositive() {
			row.Percentage = total.Div(grand).Mul(hundred).Round(1).InexactFloat64()
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// GroupByMonth sums totals per year-month, sorted ascending by key for
// charting.
func GroupByMonth(expenses []domain.Expense) []dto.MonthTotal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		key := e.Date.Format("2006-01")
		totals[key] = totals[key].Add(e.Total)
	}

	out := make([]dto.MonthTotal, 0, len(totals))
	for month, total := range totals {
		out = append(out, dto.MonthTotal{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// MonthlyAverage divides the grand total across the distinct months that have
// spend. An empty list yields zero.
func MonthlyAverage(expenses []domain.Expense) decimal.Decimal {
	months := GroupByMonth(expenses)
	if len(months) == 0 {
		return decimal.Zero
	}
	return GrandTotal(expenses).Div(decimal.NewFromInt(int64(len(months)))).Round(2)
}

// DetectAnomalies flags every expense whose total strictly exceeds twice the
// mean expense, with a human-readable ratio string.
func DetectAnomalies(expenses []domain.Expense) []dto.Anomaly {
	if len(expenses) == 0 {
		return []dto.Anomaly{}
	}

	mean := GrandTotal(expenses).Div(decimal.NewFromInt(int64(len(expenses))))
	if !mean.IsPositive() {
		return []dto.Anomaly{}
	}
	threshold := mean.Mul(decimal.NewFromInt(2))

	out := []dto.Anomaly{}
	for _, e := range expenses {
		if e.Total.GreaterThan(threshold) {
			ratio := e.Total.Div(mean).Round(1)
			out = append(out, dto.Anomaly{
				ExpenseID: e.ExpenseID,
				Supplier:  e.Supplier,
				Total:     e.Total,
				Ratio:     fmt.Sprintf("%sx average", ratio.String()),
			})
		}
	}
	return out
}

// Summary computes every derived aggregate in one pass over the expense list.
func Summary(expenses []domain.Expense) *dto.ExpenseAnalyticsResponse {
	return &dto.ExpenseAnalyticsResponse{
		GrandTotal:     GrandTotal(expenses),
		ExpenseCount:   len(expenses),
		ByCategory:     GroupByCategory(expenses),
		ByMonth:        GroupByMonth(expenses),
		MonthlyAverage: MonthlyAverage(expenses),
		Anomalies:      DetectAnomalies(expenses),
	}
}
