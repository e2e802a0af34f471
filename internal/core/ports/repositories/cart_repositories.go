package repositories

import (
	"context"

	"github.com/storekit/storefront_backend/internal/core/domain"
)

// CartScope identifies the single cart owned by a (user, store) pair.
type CartScope struct {
	StoreID string
	UserID  string
}

// CartRepositoryFacade defines the persistence operations for carts.
type CartRepositoryFacade interface {
	// FindCart loads the cart for the scope, returning the empty default
	// aggregate if no document exists yet.
	FindCart(ctx context.Context, scope CartScope) (*domain.Cart, error)

	// SaveCart persists the full cart document with merge semantics.
	SaveCart(ctx context.Context, cart domain.Cart) error

	// DeleteCart removes the remote cart document (checkout completion or
	// explicit clear).
	DeleteCart(ctx context.Context, scope CartScope) error

	// SubscribeCart opens a change feed on the scoped cart document.
	SubscribeCart(ctx context.Context, scope CartScope) (DocSubscription, error)
}
