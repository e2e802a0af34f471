package analytics_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/core/domain"
	"github.com/storekit/storefront_backend/internal/utils/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expense(id string, category domain.ExpenseCategory, total int64, date time.Time) domain.Expense {
	return domain.Expense{
		ExpenseID: id,
		Category:  category,
		Total:     decimal.NewFromInt(total),
		Date:      date,
	}
}

func TestGroupByCategory_PercentagesSumTo100(t *testing.T) {
	jan := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	expenses := []domain.Expense{
		expense("e1", domain.CategoryRent, 700, jan),
		expense("e2", domain.CategoryMarketing, 200, jan),
		expense("e3", domain.CategoryMeals, 100, jan),
	}

	rows := analytics.GroupByCategory(expenses)
	require.Len(t, rows, 3)

	var pctSum float64
	for _, row := range rows {
		pctSum += row.Percentage
	}
	assert.InDelta(t, 100.0, pctSum, 0.3, "percentages must sum to 100 within rounding tolerance")

	// Ordered by descending total.
	assert.Equal(t, domain.CategoryRent, rows[0].Category)
	assert.InDelta(t, 70.0, rows[0].Percentage, 0.01)
}

func TestGroupByMonth_SortedAscending(t *testing.T) {
	expenses := []domain.Expense{
		expense("e1", domain.CategoryRent, 10, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		expense("e2", domain.CategoryRent, 20, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)),
		expense("e3", domain.CategoryRent, 30, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)),
	}

	months := analytics.GroupByMonth(expenses)
	require.Len(t, months, 2)
	assert.Equal(t, "2025-01", months[0].Month)
	assert.True(t, months[0].Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "2025-03", months[1].Month)
}

func TestDetectAnomalies(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expenses := []domain.Expense{
		expense("e1", domain.CategoryMeals, 10, jan),
		expense("e2", domain.CategoryMeals, 10, jan),
		expense("e3", domain.CategoryMeals, 10, jan),
		expense("e4", domain.CategoryTravel, 100, jan),
	}

	// mean = 32.5, threshold = 65; only the 100 expense crosses it.
	anomalies := analytics.DetectAnomalies(expenses)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "e4", anomalies[0].ExpenseID)
	assert.Equal(t, "3.1x average", anomalies[0].Ratio)
}

func TestAnalytics_EmptyListIsSafe(t *testing.T) {
	assert.Empty(t, analytics.GroupByCategory(nil))
	assert.Empty(t, analytics.GroupByMonth(nil))
	assert.Empty(t, analytics.DetectAnomalies(nil))
	assert.True(t, analytics.MonthlyAverage(nil).IsZero())

	summary := analytics.Summary(nil)
	assert.Equal(t, 0, summary.ExpenseCount)
	assert.True(t, summary.GrandTotal.IsZero())
}

func TestMonthlyAverage(t *testing.T) {
	expenses := []domain.Expense{
		expense("e1", domain.CategoryRent, 100, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		expense("e2", domain.CategoryRent, 50, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
	}
	assert.True(t, analytics.MonthlyAverage(expenses).Equal(decimal.NewFromInt(75)))
}
