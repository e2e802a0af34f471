package docrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/storekit/storefront_backend/internal/apperrors"
	"github.com/storekit/storefront_backend/internal/core/domain"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
)

type DocExpenseRepository struct {
	store portsrepo.DocumentStore
}

// NewDocExpenseRepository creates an expense repository over the injected store.
func NewDocExpenseRepository(store portsrepo.DocumentStore) portsrepo.ExpenseRepositoryFacade {
	return &DocExpenseRepository{store: store}
}

// SaveExpense persists the full expense with merge semantics.
func (r *DocExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	data, err := json.Marshal(expense)
	if err != nil {
		return fmt.Errorf("failed to encode expense %s: %w", expense.ExpenseID, err)
	}
	if err := r.store.Set(ctx, expensePath(expense.ProjectID, expense.ExpenseID), data, true); err != nil {
		return fmt.Errorf("failed to save expense %s: %w", expense.ExpenseID, err)
	}
	return nil
}

// FindExpenseByID retrieves one expense within a project.
func (r *DocExpenseRepository) FindExpenseByID(ctx context.Context, projectID, expenseID string) (*domain.Expense, error) {
	doc, err := r.store.Get(ctx, expensePath(projectID, expenseID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find expense %s: %w", expenseID, err)
	}

	var expense domain.Expense
	if err := json.Unmarshal(doc.Data, &expense); err != nil {
		return nil, fmt.Errorf("failed to decode expense %s: %w", expenseID, err)
	}
	return &expense, nil
}

// ListExpenses returns every expense in the project, newest-first.
func (r *DocExpenseRepository) ListExpenses(ctx context.Context, projectID string) ([]domain.Expense, error) {
	docs, err := r.store.List(ctx, expensesCollection(projectID), portsrepo.Query{
		OrderBy:    "createdAt",
		Descending: true,
		TimeField:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for project %s: %w", projectID, err)
	}

	expenses := make([]domain.Expense, 0, len(docs))
	for _, doc := range docs {
		var expense domain.Expense
		if err := json.Unmarshal(doc.Data, &expense); err != nil {
			return nil, fmt.Errorf("failed to decode expense at %s: %w", doc.Path, err)
		}
		expenses = append(expenses, expense)
	}
	return expenses, nil
}

// DeleteExpense removes the expense document.
func (r *DocExpenseRepository) DeleteExpense(ctx context.Context, projectID, expenseID string) error {
	if err := r.store.Delete(ctx, expensePath(projectID, expenseID)); err != nil {
		return fmt.Errorf("failed to delete expense %s: %w", expenseID, err)
	}
	return nil
}

// SubscribeExpenses opens the project's expense collection change feed.
func (r *DocExpenseRepository) SubscribeExpenses(ctx context.Context, projectID string) (portsrepo.CollectionSubscription, error) {
	return r.store.SubscribeCollection(ctx, expensesCollection(projectID))
}
