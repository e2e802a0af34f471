package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/core/domain"
)

// CheckoutRequest defines the data needed to turn the caller's cart into an
// order.
type CheckoutRequest struct {
	CustomerName    string          `json:"customerName" binding:"required"`
	CustomerEmail   string          `json:"customerEmail" binding:"required,email"`
	CustomerPhone   string          `json:"customerPhone"`
	ShippingAddress AddressDTO      `json:"shippingAddress" binding:"required"`
	BillingAddress  *AddressDTO     `json:"billingAddress"` // Optional, defaults to shipping
	PaymentMethod   string          `json:"paymentMethod" binding:"required,oneof=card wallet bank_transfer cod"`
	ShippingAmount  decimal.Decimal `json:"shippingAmount"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	CurrencyCode    string          `json:"currencyCode" binding:"required,len=3"`
}

// AddressDTO mirrors domain.Address for request binding.
type AddressDTO struct {
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required,len=2"`
}

// ToDomainAddress converts the DTO into the domain snapshot type.
func (a AddressDTO) ToDomainAddress() domain.Address {
	return domain.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// CheckoutResponse returns the created order together with the payment
// collaborator's client handle.
type CheckoutResponse struct {
	Order               OrderResponse `json:"order"`
	PaymentIntentID     string        `json:"paymentIntentID,omitempty"`
	PaymentClientSecret string        `json:"paymentClientSecret,omitempty"`
}

// UpdateOrderStatusRequest moves an order through its status machine.
type UpdateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required,oneof=pending paid shipped delivered cancelled refunded"`
}

// UpdatePaymentStatusRequest sets the payment side of an order.
type UpdatePaymentStatusRequest struct {
	PaymentStatus domain.PaymentStatus `json:"paymentStatus" binding:"required,oneof=pending paid failed refunded"`
}

// AttachTrackingRequest records shipment tracking details.
type AttachTrackingRequest struct {
	Carrier        string `json:"carrier" binding:"required"`
	TrackingNumber string `json:"trackingNumber" binding:"required"`
}

// AddOrderNoteRequest appends a fulfillment note.
type AddOrderNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

// ListOrdersParams defines query parameters for listing orders.
type ListOrdersParams struct {
	Limit     int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken string `form:"nextToken"`
}

// OrderItemResponse mirrors domain.OrderItem.
type OrderItemResponse struct {
	ProductID string          `json:"productID"`
	VariantID *string         `json:"variantID,omitempty"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageURL,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int64           `json:"quantity"`
}

// OrderResponse defines the data returned for an order.
type OrderResponse struct {
	OrderID           string                   `json:"orderID"`
	OrderNumber       string                   `json:"orderNumber"`
	StoreID           string                   `json:"storeID"`
	CustomerID        string                   `json:"customerID"`
	CustomerName      string                   `json:"customerName"`
	CustomerEmail     string                   `json:"customerEmail"`
	Items             []OrderItemResponse      `json:"items"`
	Subtotal          decimal.Decimal          `json:"subtotal"`
	DiscountAmount    decimal.Decimal          `json:"discountAmount"`
	ShippingAmount    decimal.Decimal          `json:"shippingAmount"`
	TaxAmount         decimal.Decimal          `json:"taxAmount"`
	Total             decimal.Decimal          `json:"total"`
	CurrencyCode      string                   `json:"currencyCode"`
	Status            domain.OrderStatus       `json:"status"`
	PaymentStatus     domain.PaymentStatus     `json:"paymentStatus"`
	FulfillmentStatus domain.FulfillmentStatus `json:"fulfillmentStatus"`
	PaidAt            *time.Time               `json:"paidAt,omitempty"`
	ShippedAt         *time.Time               `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time               `json:"deliveredAt,omitempty"`
	CancelledAt       *time.Time               `json:"cancelledAt,omitempty"`
	RefundedAt        *time.Time               `json:"refundedAt,omitempty"`
	TrackingCarrier   string                   `json:"trackingCarrier,omitempty"`
	TrackingNumber    string                   `json:"trackingNumber,omitempty"`
	Notes             string                   `json:"notes,omitempty"`
	CreatedAt         time.Time                `json:"createdAt"`
}

// ListOrdersResponse is a page of orders plus the cursor for the next page.
type ListOrdersResponse struct {
	Orders    []OrderResponse `json:"orders"`
	NextToken string          `json:"nextToken,omitempty"`
}

// ToOrderResponse converts a domain.Order to OrderResponse DTO
func ToOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}
	return OrderResponse{
		OrderID:           order.OrderID,
		OrderNumber:       order.OrderNumber,
		StoreID:           order.StoreID,
		CustomerID:        order.CustomerID,
		CustomerName:      order.CustomerName,
		CustomerEmail:     order.CustomerEmail,
		Items:             items,
		Subtotal:          order.Subtotal,
		DiscountAmount:    order.DiscountAmount,
		ShippingAmount:    order.ShippingAmount,
		TaxAmount:         order.TaxAmount,
		Total:             order.Total,
		CurrencyCode:      order.CurrencyCode,
		Status:            order.Status,
		PaymentStatus:     order.PaymentStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		PaidAt:            order.PaidAt,
		ShippedAt:         order.ShippedAt,
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		RefundedAt:        order.RefundedAt,
		TrackingCarrier:   order.TrackingCarrier,
		TrackingNumber:    order.TrackingNumber,
		Notes:             order.Notes,
		CreatedAt:         order.CreatedAt,
	}
}

// ToListOrdersResponse converts a page of domain orders.
func ToListOrdersResponse(orders []domain.Order, nextToken string) *ListOrdersResponse {
	res := make([]OrderResponse, len(orders))
	for i, order := range orders {
		res[i] = ToOrderResponse(&order)
	}
	return &ListOrdersResponse{Orders: res, NextToken: nextToken}
}
