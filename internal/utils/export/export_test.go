package export_test

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/core/domain"
	"github.com/storekit/storefront_backend/internal/utils/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExpenses() []domain.Expense {
	return []domain.Expense{
		{
			ExpenseID:    "e1",
			Date:         time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
			Supplier:     "Acme, Inc.", // comma must survive the round trip
			Category:     domain.CategorySoftware,
			Subtotal:     decimal.NewFromInt(100),
			Tax:          decimal.NewFromInt(20),
			Total:        decimal.NewFromInt(120),
			CurrencyCode: "USD",
			Status:       domain.ExpenseApproved,
		},
	}
}

func TestExpensesCSV_QuotesCommaFields(t *testing.T) {
	data, err := export.ExpensesCSV(sampleExpenses())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Date", records[0][0])
	assert.Equal(t, "Acme, Inc.", records[1][1], "comma in supplier must not split the field")
	assert.Equal(t, "120", records[1][5])
}

func TestExpensesCSV_Empty(t *testing.T) {
	data, err := export.ExpensesCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1, "header only")
}

func TestExpensesXLSX(t *testing.T) {
	data, err := export.ExpensesXLSX(sampleExpenses())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// XLSX files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}
