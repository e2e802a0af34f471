package services

import (
	"context"

	"github.com/storekit/storefront_backend/internal/core/domain"
	"github.com/storekit/storefront_backend/internal/dto"
)

// CartReaderSvc defines read operations for cart data
type CartReaderSvc interface {
	// GetCart retrieves the cart for the (user, store) scope, creating the
	// empty default in memory if none exists yet.
	GetCart(ctx context.Context, storeID, userID string) (*domain.Cart, error)
}

// CartWriterSvc defines write operations for cart data. Every mutation
// recomputes the derived fields before persisting.
type CartWriterSvc interface {
	// AddItem merges a line into the cart, incrementing quantity when the
	// (product, variant) pair already exists.
	AddItem(ctx context.Context, storeID, userID string, req dto.AddCartItemRequest) (*domain.Cart, error)

	// RemoveItem drops a line; removing an absent line is a no-op.
	RemoveItem(ctx context.Context, storeID, userID, productID string, variantID *string) (*domain.Cart, error)

	// UpdateQuantity replaces a line quantity; zero or less removes the line.
	UpdateQuantity(ctx context.Context, storeID, userID string, req dto.UpdateCartQuantityRequest) (*domain.Cart, error)

	// ApplyDiscount replaces any prior discount (no stacking).
	ApplyDiscount(ctx context.Context, storeID, userID string, req dto.ApplyDiscountRequest) (*domain.Cart, error)

	// ClearCart deletes the remote cart document.
	ClearCart(ctx context.Context, storeID, userID string) error
}

// CartSvcFacade combines all cart-related service interfaces
type CartSvcFacade interface {
	CartReaderSvc
	CartWriterSvc
}
