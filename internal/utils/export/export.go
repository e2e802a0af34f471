package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/storekit/storefront_backend/internal/core/domain"
	"github.com/xuri/excelize/v2"
)

// expenseHeader is the column layout shared by both export encodings.
var expenseHeader = []string{"Date", "Supplier", "Category", "Subtotal", "Tax", "Total", "Currency", "Status"}

func expenseRow(e domain.Expense) []string {
	return []string{
		e.Date.Format("2006-01-02"),
		e.Supplier,
		string(e.Category),
		e.Subtotal.String(),
		e.Tax.String(),
		e.Total.String(),
		e.CurrencyCode,
		string(e.Status),
	}
}

// ExpensesCSV renders the expense list as RFC 4180 CSV. Fields containing
// commas or quotes are quoted properly rather than naively joined.
func ExpensesCSV(expenses []domain.Expense) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(expenseHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range expenses {
		if err := w.Write(expenseRow(e)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row for expense %s: %w", e.ExpenseID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ExpensesXLSX renders the expense list as a single-sheet workbook.
func ExpensesXLSX(expenses []domain.Expense) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expenses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := make([]interface{}, len(expenseHeader))
	for i, h := range expenseHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, e := range expenses {
		row := expenseRow(e)
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row for expense %s: %w", e.ExpenseID, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
