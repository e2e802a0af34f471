package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/storekit/storefront_backend/internal/core/domain"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
	"github.com/storekit/storefront_backend/internal/dto"
	"github.com/storekit/storefront_backend/internal/middleware"
)

// CartService handles business logic for the shopping cart. Every mutation is
// a pure transformation on the loaded cart followed by a full merge write, so
// derived totals are never stale on the remote document.
type CartService struct {
	cartRepo portsrepo.CartRepositoryFacade
}

// NewCartService creates a new CartService.
func NewCartService(cr portsrepo.CartRepositoryFacade) portssvc.CartSvcFacade {
	return &CartService{cartRepo: cr}
}

var _ portssvc.CartSvcFacade = (*CartService)(nil)

func (s *CartService) GetCart(ctx context.Context, storeID, userID string) (*domain.Cart, error) {
	return s.cartRepo.FindCart(ctx, portsrepo.CartScope{StoreID: storeID, UserID: userID})
}

// mutateCart loads, transforms, stamps, and persists the scoped cart.
func (s *CartService) mutateCart(ctx context.Context, storeID, userID string, op func(domain.Cart) domain.Cart) (*domain.Cart, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	scope := portsrepo.CartScope{StoreID: storeID, UserID: userID}

	current, err := s.cartRepo.FindCart(ctx, scope)
	if err != nil {
		logger.Error("Failed to load cart", slog.String("error", err.Error()), slog.String("store_id", storeID), slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	next := op(*current)
	next.LastUpdatedAt = time.Now()
	next.LastUpdatedBy = userID

	if err := s.cartRepo.SaveCart(ctx, next); err != nil {
		logger.Error("Failed to save cart", slog.String("error", err.Error()), slog.String("store_id", storeID), slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return &next, nil
}

func (s *CartService) AddItem(ctx context.Context, storeID, userID string, req dto.AddCartItemRequest) (*domain.Cart, error) {
	return s.mutateCart(ctx, storeID, userID, func(cart domain.Cart) domain.Cart {
		return cart.AddItem(domain.CartItem{
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Name:      req.Name,
			ImageURL:  req.ImageURL,
			UnitPrice: req.UnitPrice,
			Quantity:  req.Quantity,
		})
	})
}

func (s *CartService) RemoveItem(ctx context.Context, storeID, userID, productID string, variantID *string) (*domain.Cart, error) {
	return s.mutateCart(ctx, storeID, userID, func(cart domain.Cart) domain.Cart {
		return cart.RemoveItem(productID, variantID)
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, storeID, userID string, req dto.UpdateCartQuantityRequest) (*domain.Cart, error) {
	return s.mutateCart(ctx, storeID, userID, func(cart domain.Cart) domain.Cart {
		return cart.SetQuantity(req.ProductID, req.VariantID, req.Quantity)
	})
}

func (s *CartService) ApplyDiscount(ctx context.Context, storeID, userID string, req dto.ApplyDiscountRequest) (*domain.Cart, error) {
	return s.mutateCart(ctx, storeID, userID, func(cart domain.Cart) domain.Cart {
		return cart.ApplyDiscount(req.Code, req.Amount)
	})
}

func (s *CartService) ClearCart(ctx context.Context, storeID, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	scope := portsrepo.CartScope{StoreID: storeID, UserID: userID}
	if err := s.cartRepo.DeleteCart(ctx, scope); err != nil {
		logger.Error("Failed to clear cart", slog.String("error", err.Error()), slog.String("store_id", storeID), slog.String("user_id", userID))
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
