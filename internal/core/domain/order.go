package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks the overall lifecycle of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

// IsTerminal reports whether no further status transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// PaymentStatus tracks the payment side of an order independently of
// fulfillment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// FulfillmentStatus tracks whether the goods have left the warehouse.
type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
)

// Address is a postal address snapshot attached to an order.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// OrderItem is a snapshot copy of a cart line at checkout time, not a live
// reference back into the cart.
type OrderItem struct {
	ProductID string          `json:"productID"`
	VariantID *string         `json:"variantID,omitempty"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageURL,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int64           `json:"quantity"`
}

// Order is the immutable record of a completed checkout. Orders are never
// deleted, only transitioned through their status machine.
type Order struct {
	OrderID       string      `json:"orderID"`     // Primary Key (UUID)
	OrderNumber   string      `json:"orderNumber"` // Human readable, e.g. ORD-000042
	StoreID       string      `json:"storeID"`
	CustomerID    string      `json:"customerID"`
	CustomerName  string      `json:"customerName"`
	CustomerEmail string      `json:"customerEmail"`
	CustomerPhone string      `json:"customerPhone,omitempty"`
	Items         []OrderItem `json:"items"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	ShippingAmount decimal.Decimal `json:"shippingAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"total"`
	CurrencyCode   string          `json:"currencyCode"`

	ShippingAddress Address `json:"shippingAddress"`
	BillingAddress  Address `json:"billingAddress"`
	PaymentMethod   string  `json:"paymentMethod"`
	PaymentIntentID string  `json:"paymentIntentID,omitempty"` // Collaborator handle, needed for refunds

	Status            OrderStatus       `json:"status"`
	PaymentStatus     PaymentStatus     `json:"paymentStatus"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillmentStatus"`

	PaidAt      *time.Time `json:"paidAt,omitempty"`
	ShippedAt   *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	RefundedAt  *time.Time `json:"refundedAt,omitempty"`

	TrackingCarrier string `json:"trackingCarrier,omitempty"`
	TrackingNumber  string `json:"trackingNumber,omitempty"`
	Notes           string `json:"notes,omitempty"`

	AuditFields
}

// WithStatus returns a copy of the order transitioned to the given status,
// stamping the corresponding timestamp. Transitioning to shipped also forces
// the fulfillment status to fulfilled.
func (o Order) WithStatus(status OrderStatus, now time.Time) Order {
	next := o
	next.Status = status
	switch status {
	case OrderPaid:
		next.PaidAt = &now
	case OrderShipped:
		next.ShippedAt = &now
		next.FulfillmentStatus = FulfillmentFulfilled
	case OrderDelivered:
		next.DeliveredAt = &now
	case OrderCancelled:
		next.CancelledAt = &now
	case OrderRefunded:
		next.RefundedAt = &now
	}
	return next
}

// WithPaymentStatus returns a copy with the payment status replaced. Marking
// payment as paid also moves the order status to paid, and a refund moves it
// to refunded.
func (o Order) WithPaymentStatus(status PaymentStatus, now time.Time) Order {
	next := o
	next.PaymentStatus = status
	switch status {
	case PaymentPaid:
		next = next.WithStatus(OrderPaid, now)
	case PaymentRefunded:
		next = next.WithStatus(OrderRefunded, now)
	}
	return next
}

// CanTransitionTo reports whether the status machine allows moving from the
// current status to target. Cancelled and refunded are reachable from any
// non-terminal state; the forward path is pending -> paid -> shipped ->
// delivered.
func (o Order) CanTransitionTo(target OrderStatus) bool {
	if o.Status.IsTerminal() {
		return false
	}
	switch target {
	case OrderCancelled, OrderRefunded:
		return true
	case OrderPaid:
		return o.Status == OrderPending
	case OrderShipped:
		return o.Status == OrderPaid
	case OrderDelivered:
		return o.Status == OrderShipped
	}
	return false
}
