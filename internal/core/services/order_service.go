package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/storekit/storefront_backend/internal/apperrors"
	"github.com/storekit/storefront_backend/internal/core/domain"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
	"github.com/storekit/storefront_backend/internal/dto"
	"github.com/storekit/storefront_backend/internal/middleware"
	"github.com/storekit/storefront_backend/internal/utils/pagination"
)

// OrderService handles business logic for orders: checkout, the status
// machine, and fulfillment details. Orders are never deleted.
type OrderService struct {
	orderRepo  portsrepo.OrderRepositoryFacade
	cartRepo   portsrepo.CartRepositoryFacade
	paymentSvc portssvc.PaymentSvc
}

// NewOrderService creates a new OrderService.
func NewOrderService(or portsrepo.OrderRepositoryFacade, cr portsrepo.CartRepositoryFacade, ps portssvc.PaymentSvc) portssvc.OrderSvcFacade {
	return &OrderService{
		orderRepo:  or,
		cartRepo:   cr,
		paymentSvc: ps,
	}
}

var _ portssvc.OrderSvcFacade = (*OrderService)(nil)

func (s *OrderService) GetOrderByID(ctx context.Context, storeID, orderID string) (*domain.Order, error) {
	return s.orderRepo.FindOrderByID(ctx, storeID, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, storeID string, params dto.ListOrdersParams) (*dto.ListOrdersResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	repoParams := portsrepo.ListOrdersParams{Limit: params.Limit}
	if params.NextToken != "" {
		cursor, err := pagination.DecodeToken(params.NextToken)
		if err != nil {
			logger.Warn("Invalid pagination token", slog.String("error", err.Error()))
			return nil, fmt.Errorf("%w: invalid nextToken", apperrors.ErrValidation)
		}
		repoParams.CreatedBefore = cursor
	}

	orders, err := s.orderRepo.ListOrders(ctx, storeID, repoParams)
	if err != nil {
		logger.Error("Failed to list orders", slog.String("error", err.Error()), slog.String("store_id", storeID))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	nextToken := ""
	if params.Limit > 0 && len(orders) == params.Limit {
		nextToken = pagination.EncodeToken(orders[len(orders)-1].CreatedAt)
	}
	return dto.ToListOrdersResponse(orders, nextToken), nil
}

// Checkout snapshots the caller's cart into a new order. Order creation and
// cart clearing happen in one store transaction; the payment intent is opened
// first so a collaborator failure leaves the cart untouched.
func (s *OrderService) Checkout(ctx context.Context, storeID, userID string, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	scope := portsrepo.CartScope{StoreID: storeID, UserID: userID}

	cart, err := s.cartRepo.FindCart(ctx, scope)
	if err != nil {
		logger.Error("Failed to load cart for checkout", slog.String("error", err.Error()), slog.String("store_id", storeID), slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%w: cannot checkout an empty cart", apperrors.ErrValidation)
	}

	now := time.Now()
	orderID := uuid.NewString()

	items := make([]domain.OrderItem, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	total := cart.Total.Add(req.ShippingAmount).Add(req.TaxAmount)

	order := domain.Order{
		OrderID:           orderID,
		StoreID:           storeID,
		CustomerID:        userID,
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		CustomerPhone:     req.CustomerPhone,
		Items:             items,
		Subtotal:          cart.Subtotal,
		DiscountAmount:    cart.DiscountAmount,
		ShippingAmount:    req.ShippingAmount,
		TaxAmount:         req.TaxAmount,
		Total:             total,
		CurrencyCode:      req.CurrencyCode,
		ShippingAddress:   req.ShippingAddress.ToDomainAddress(),
		BillingAddress:    billing.ToDomainAddress(),
		PaymentMethod:     req.PaymentMethod,
		Status:            domain.OrderPending,
		PaymentStatus:     domain.PaymentPending,
		FulfillmentStatus: domain.FulfillmentUnfulfilled,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	var intent *portssvc.PaymentIntent
	if req.PaymentMethod != "cod" {
		intent, err = s.paymentSvc.CreatePaymentIntent(ctx, total, req.CurrencyCode, map[string]string{
			"orderID": orderID,
			"storeID": storeID,
		})
		if err != nil {
			logger.Error("Payment intent creation failed", slog.String("error", err.Error()), slog.String("order_id", orderID))
			return nil, err
		}
		order.PaymentIntentID = intent.ID
	}

	created, err := s.orderRepo.CreateOrder(ctx, order, &scope)
	if err != nil {
		logger.Error("Failed to create order", slog.String("error", err.Error()), slog.String("order_id", orderID))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	logger.Info("Order created", slog.String("order_id", created.OrderID), slog.String("order_number", created.OrderNumber), slog.String("store_id", storeID))

	resp := &dto.CheckoutResponse{Order: dto.ToOrderResponse(created)}
	if intent != nil {
		resp.PaymentIntentID = intent.ID
		resp.PaymentClientSecret = intent.ClientSecret
	}
	return resp, nil
}

// transition loads the order, applies op, and persists the result with merge
// semantics.
func (s *OrderService) transition(ctx context.Context, storeID, orderID, actorUserID string, op func(domain.Order) (domain.Order, error)) (*domain.Order, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	current, err := s.orderRepo.FindOrderByID(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	next, err := op(*current)
	if err != nil {
		return nil, err
	}
	next.LastUpdatedAt = time.Now()
	next.LastUpdatedBy = actorUserID

	if err := s.orderRepo.SaveOrder(ctx, next); err != nil {
		logger.Error("Failed to save order", slog.String("error", err.Error()), slog.String("order_id", orderID))
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	return &next, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, storeID, orderID string, status domain.OrderStatus, actorUserID string) (*domain.Order, error) {
	return s.transition(ctx, storeID, orderID, actorUserID, func(order domain.Order) (domain.Order, error) {
		if !order.CanTransitionTo(status) {
			return order, fmt.Errorf("%w: cannot transition order from %s to %s", apperrors.ErrConflict, order.Status, status)
		}
		return order.WithStatus(status, time.Now()), nil
	})
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, storeID, orderID string, status domain.PaymentStatus, actorUserID string) (*domain.Order, error) {
	return s.transition(ctx, storeID, orderID, actorUserID, func(order domain.Order) (domain.Order, error) {
		// A refunded payment drags the order to refunded, so the status
		// machine must allow that move; paid keeps its forcing behavior.
		if status == domain.PaymentRefunded && !order.CanTransitionTo(domain.OrderRefunded) {
			return order, fmt.Errorf("%w: cannot refund order in status %s", apperrors.ErrConflict, order.Status)
		}
		return order.WithPaymentStatus(status, time.Now()), nil
	})
}

func (s *OrderService) AttachTracking(ctx context.Context, storeID, orderID string, req dto.AttachTrackingRequest, actorUserID string) (*domain.Order, error) {
	return s.transition(ctx, storeID, orderID, actorUserID, func(order domain.Order) (domain.Order, error) {
		order.TrackingCarrier = req.Carrier
		order.TrackingNumber = req.TrackingNumber
		return order, nil
	})
}

func (s *OrderService) AddNote(ctx context.Context, storeID, orderID, note, actorUserID string) (*domain.Order, error) {
	return s.transition(ctx, storeID, orderID, actorUserID, func(order domain.Order) (domain.Order, error) {
		if order.Notes == "" {
			order.Notes = note
		} else {
			order.Notes = order.Notes + "\n" + note
		}
		return order, nil
	})
}

// Refund asks the payment collaborator to refund the full amount and, only on
// success, transitions the order. The collaborator's error message passes
// through verbatim.
func (s *OrderService) Refund(ctx context.Context, storeID, orderID string, actorUserID string) (*domain.Order, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	current, err := s.orderRepo.FindOrderByID(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus != domain.PaymentPaid {
		return nil, fmt.Errorf("%w: order %s is not paid", apperrors.ErrConflict, orderID)
	}
	if !current.CanTransitionTo(domain.OrderRefunded) {
		return nil, fmt.Errorf("%w: cannot refund order in status %s", apperrors.ErrConflict, current.Status)
	}
	if current.PaymentIntentID == "" {
		return nil, fmt.Errorf("%w: order %s has no payment intent to refund", apperrors.ErrConflict, orderID)
	}

	if _, err := s.paymentSvc.CreateRefund(ctx, current.PaymentIntentID, nil); err != nil {
		logger.Error("Refund failed", slog.String("error", err.Error()), slog.String("order_id", orderID))
		return nil, err
	}

	return s.transition(ctx, storeID, orderID, actorUserID, func(order domain.Order) (domain.Order, error) {
		return order.WithPaymentStatus(domain.PaymentRefunded, time.Now()), nil
	})
}
