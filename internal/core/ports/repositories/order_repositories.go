package repositories

import (
	"context"
	"time"

	"github.com/storekit/storefront_backend/internal/core/domain"
)

// ListOrdersParams controls order listing pagination.
type ListOrdersParams struct {
	Limit int
	// CreatedBefore is an exclusive cursor; zero means "from the newest".
	CreatedBefore time.Time
}

// OrderRepositoryFacade defines the persistence operations for orders.
// Orders are never deleted, only written and transitioned.
type OrderRepositoryFacade interface {
	// CreateOrder assigns the next sequential order number and persists the
	// order atomically. When clearCart is non-nil the scoped cart document is
	// deleted in the same transaction, so a crash cannot leave both an order
	// and a live cart behind.
	CreateOrder(ctx context.Context, order domain.Order, clearCart *CartScope) (*domain.Order, error)

	// FindOrderByID retrieves one order within a store.
	FindOrderByID(ctx context.Context, storeID, orderID string) (*domain.Order, error)

	// ListOrders returns orders newest-first.
	ListOrders(ctx context.Context, storeID string, params ListOrdersParams) ([]domain.Order, error)

	// SaveOrder persists the full order document with merge semantics
	// (status transitions touch only the fields they change).
	SaveOrder(ctx context.Context, order domain.Order) error

	// SubscribeOrders opens a change feed on the store's order collection.
	SubscribeOrders(ctx context.Context, storeID string) (CollectionSubscription, error)
}
