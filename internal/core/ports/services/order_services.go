package services

import (
	"context"

	"github.com/storekit/storefront_backend/internal/core/domain"
	"github.com/storekit/storefront_backend/internal/dto"
)

// OrderReaderSvc defines read operations for order data
type OrderReaderSvc interface {
	// GetOrderByID retrieves a specific order within a store.
	GetOrderByID(ctx context.Context, storeID, orderID string) (*domain.Order, error)

	// ListOrders retrieves a paginated list of orders, newest first.
	ListOrders(ctx context.Context, storeID string, params dto.ListOrdersParams) (*dto.ListOrdersResponse, error)
}

// OrderWriterSvc defines state transitions on existing orders. Orders are
// never deleted, only transitioned.
type OrderWriterSvc interface {
	// UpdateStatus moves the order through its status machine, stamping the
	// transition timestamp. Shipping also forces fulfillment.
	UpdateStatus(ctx context.Context, storeID, orderID string, status domain.OrderStatus, actorUserID string) (*domain.Order, error)

	// UpdatePaymentStatus sets the payment status; marking paid also moves
	// the order status to paid.
	UpdatePaymentStatus(ctx context.Context, storeID, orderID string, status domain.PaymentStatus, actorUserID string) (*domain.Order, error)

	// AttachTracking records carrier and tracking number.
	AttachTracking(ctx context.Context, storeID, orderID string, req dto.AttachTrackingRequest, actorUserID string) (*domain.Order, error)

	// AddNote appends free-form fulfillment notes.
	AddNote(ctx context.Context, storeID, orderID, note, actorUserID string) (*domain.Order, error)

	// Refund requests a refund from the payment collaborator and, on
	// success, transitions the order to refunded.
	Refund(ctx context.Context, storeID, orderID string, actorUserID string) (*domain.Order, error)
}

// CheckoutSvc turns a cart into an order.
type CheckoutSvc interface {
	// Checkout snapshots the cart into a new order, assigns the sequential
	// order number, clears the cart in the same store transaction, and
	// opens a payment intent with the payment collaborator.
	Checkout(ctx context.Context, storeID, userID string, req dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

// OrderSvcFacade combines all order-related service interfaces
type OrderSvcFacade interface {
	OrderReaderSvc
	OrderWriterSvc
	CheckoutSvc
}
