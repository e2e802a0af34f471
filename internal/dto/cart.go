package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/core/domain"
)

// AddCartItemRequest defines the data needed to add a line to the cart.
type AddCartItemRequest struct {
	ProductID string          `json:"productID" binding:"required"`
	VariantID *string         `json:"variantID"` // Optional, use pointer for nullability
	Name      string          `json:"name" binding:"required"`
	ImageURL  string          `json:"imageURL"`
	UnitPrice decimal.Decimal `json:"unitPrice" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartQuantityRequest replaces a line quantity. A quantity of zero or
// less removes the line.
type UpdateCartQuantityRequest struct {
	ProductID string  `json:"productID" binding:"required"`
	VariantID *string `json:"variantID"`
	Quantity  int64   `json:"quantity"`
}

// ApplyDiscountRequest replaces the cart discount.
type ApplyDiscountRequest struct {
	Code   string          `json:"code" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// CartItemResponse mirrors domain.CartItem.
type CartItemResponse struct {
	ProductID string          `json:"productID"`
	VariantID *string         `json:"variantID,omitempty"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageURL,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CartResponse defines the data returned for a cart.
type CartResponse struct {
	StoreID        string             `json:"storeID"`
	UserID         string             `json:"userID"`
	Items          []CartItemResponse `json:"items"`
	DiscountCode   string             `json:"discountCode,omitempty"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Total          decimal.Decimal    `json:"total"`
	ItemCount      int64              `json:"itemCount"`
	LastUpdatedAt  time.Time          `json:"lastUpdatedAt"`
}

// ToCartResponse converts a domain.Cart to CartResponse DTO
func ToCartResponse(cart *domain.Cart) CartResponse {
	items := make([]CartItemResponse, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemResponse{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		}
	}
	return CartResponse{
		StoreID:        cart.StoreID,
		UserID:         cart.UserID,
		Items:          items,
		DiscountCode:   cart.DiscountCode,
		DiscountAmount: cart.DiscountAmount,
		Subtotal:       cart.Subtotal,
		Total:          cart.Total,
		ItemCount:      cart.ItemCount,
		LastUpdatedAt:  cart.LastUpdatedAt,
	}
}
