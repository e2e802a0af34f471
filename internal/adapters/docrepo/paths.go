// Package docrepo implements the aggregate repository ports on top of the
// document store port. Every aggregate maps to a hierarchical path owned by
// its (user, store) or project scope.
package docrepo

import (
	"fmt"

	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
)

// One cart per (user, store) pair.
func cartPath(scope portsrepo.CartScope) string {
	return fmt.Sprintf("stores/%s/carts/%s", scope.StoreID, scope.UserID)
}

func ordersCollection(storeID string) string {
	return fmt.Sprintf("stores/%s/orders", storeID)
}

// The per-store counter document behind sequential order numbering.
func orderCounterPath(storeID string) string {
	return fmt.Sprintf("stores/%s/counters/orders", storeID)
}

func orderPath(storeID, orderID string) string {
	return fmt.Sprintf("stores/%s/orders/%s", storeID, orderID)
}

func expensesCollection(projectID string) string {
	return fmt.Sprintf("projects/%s/expenses", projectID)
}

func expensePath(projectID, expenseID string) string {
	return fmt.Sprintf("projects/%s/expenses/%s", projectID, expenseID)
}
