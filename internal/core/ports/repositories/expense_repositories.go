package repositories

import (
	"context"

	"github.com/storekit/storefront_backend/internal/core/domain"
)

// ExpenseRepositoryFacade defines the persistence operations for expense
// records within a project.
type ExpenseRepositoryFacade interface {
	SaveExpense(ctx context.Context, expense domain.Expense) error
	FindExpenseByID(ctx context.Context, projectID, expenseID string) (*domain.Expense, error)
	// ListExpenses returns every expense in the project, newest-first.
	ListExpenses(ctx context.Context, projectID string) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, projectID, expenseID string) error
	// SubscribeExpenses opens a change feed on the project's expense
	// collection.
	SubscribeExpenses(ctx context.Context, projectID string) (CollectionSubscription, error)
}
