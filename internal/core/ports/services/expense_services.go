package services

import (
	"context"

	"github.com/storekit/storefront_backend/internal/core/domain"
	"github.com/storekit/storefront_backend/internal/dto"
)

// ExportFormat selects the expense export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ExpenseReaderSvc defines read operations for expense data
type ExpenseReaderSvc interface {
	GetExpenseByID(ctx context.Context, projectID, expenseID string) (*domain.Expense, error)
	ListExpenses(ctx context.Context, projectID string) ([]domain.Expense, error)

	// GetAnalytics recomputes all derived aggregates (category breakdown,
	// monthly totals, monthly average, anomalies) from the full expense list.
	GetAnalytics(ctx context.Context, projectID string) (*dto.ExpenseAnalyticsResponse, error)

	// Export renders the project's expenses as a downloadable file.
	Export(ctx context.Context, projectID string, format ExportFormat) (*dto.ExportResult, error)
}

// ExpenseWriterSvc defines write operations for expense data
type ExpenseWriterSvc interface {
	// CreateFromReceipt runs receipt extraction on the uploaded file and
	// persists the resulting expense. Unrecognized extracted categories fall
	// back to "other" rather than being written.
	CreateFromReceipt(ctx context.Context, projectID string, req dto.ExtractReceiptRequest, creatorUserID string) (*domain.Expense, error)

	// CreateExpense persists a manually entered expense.
	CreateExpense(ctx context.Context, projectID string, req dto.CreateExpenseRequest, creatorUserID string) (*domain.Expense, error)

	// UpdateExpense applies inline edits.
	UpdateExpense(ctx context.Context, projectID, expenseID string, req dto.UpdateExpenseRequest, actorUserID string) (*domain.Expense, error)

	// Recategorize asks the AI collaborator for a category suggestion and
	// applies it only when it belongs to the closed category set.
	Recategorize(ctx context.Context, projectID, expenseID string, actorUserID string) (*domain.Expense, error)

	DeleteExpense(ctx context.Context, projectID, expenseID string) error
}

// ExpenseSvcFacade combines all expense-related service interfaces
type ExpenseSvcFacade interface {
	ExpenseReaderSvc
	ExpenseWriterSvc
}
