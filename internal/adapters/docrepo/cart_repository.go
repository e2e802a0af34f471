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

type DocCartRepository struct {
	store portsrepo.DocumentStore
}

// NewDocCartRepository creates a cart repository over the injected store.
func NewDocCartRepository(store portsrepo.DocumentStore) portsrepo.CartRepositoryFacade {
	return &DocCartRepository{store: store}
}

// FindCart loads the scoped cart. A missing document is not an error; it
// means "not yet created" and yields the empty default aggregate.
func (r *DocCartRepository) FindCart(ctx context.Context, scope portsrepo.CartScope) (*domain.Cart, error) {
	doc, err := r.store.Get(ctx, cartPath(scope))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			cart := domain.EmptyCart(scope.UserID, scope.StoreID)
			return &cart, nil
		}
		return nil, fmt.Errorf("failed to find cart for %s/%s: %w", scope.StoreID, scope.UserID, err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(doc.Data, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart for %s/%s: %w", scope.StoreID, scope.UserID, err)
	}
	return &cart, nil
}

// SaveCart persists the full cart with merge semantics.
func (r *DocCartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart for %s/%s: %w", cart.StoreID, cart.UserID, err)
	}
	scope := portsrepo.CartScope{StoreID: cart.StoreID, UserID: cart.UserID}
	if err := r.store.Set(ctx, cartPath(scope), data, true); err != nil {
		return fmt.Errorf("failed to save cart for %s/%s: %w", cart.StoreID, cart.UserID, err)
	}
	return nil
}

// DeleteCart removes the remote cart document.
func (r *DocCartRepository) DeleteCart(ctx context.Context, scope portsrepo.CartScope) error {
	if err := r.store.Delete(ctx, cartPath(scope)); err != nil {
		return fmt.Errorf("failed to delete cart for %s/%s: %w", scope.StoreID, scope.UserID, err)
	}
	return nil
}

// SubscribeCart opens the scoped cart change feed.
func (r *DocCartRepository) SubscribeCart(ctx context.Context, scope portsrepo.CartScope) (portsrepo.DocSubscription, error) {
	return r.store.SubscribeDoc(ctx, cartPath(scope))
}
