package docrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/storekit/storefront_backend/internal/apperrors"
	"github.com/storekit/storefront_backend/internal/core/domain"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	"github.com/storekit/storefront_backend/internal/utils/ordernum"
)

type DocOrderRepository struct {
	store portsrepo.DocumentStore
}

// NewDocOrderRepository creates an order repository over the injected store.
func NewDocOrderRepository(store portsrepo.DocumentStore) portsrepo.OrderRepositoryFacade {
	return &DocOrderRepository{store: store}
}

// CreateOrder assigns the next sequential order number and persists the order
// inside a single store transaction. Numbering increments a per-store counter
// document whose lock is held until commit, so concurrent checkouts serialize
// on it and never derive the same number (deriving from the latest order row
// is racy: the row lock does not cover the order another transaction is about
// to insert, and an empty collection locks nothing at all). When clearCart is
// set the cart document dies in the same transaction.
func (r *DocOrderRepository) CreateOrder(ctx context.Context, order domain.Order, clearCart *portsrepo.CartScope) (*domain.Order, error) {
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx portsrepo.DocumentReadWriter) error {
		seq, err := tx.Increment(ctx, orderCounterPath(order.StoreID), "orderSeq")
		if err != nil {
			return fmt.Errorf("failed to advance order counter for store %s: %w", order.StoreID, err)
		}
		if seq == 1 {
			// Fresh counter: adopt continuity from an already-numbered
			// store. Only one transaction can see 1, so the seeding read
			// needs no lock of its own. A corrupted or foreign latest
			// number restarts the sequence rather than aborting checkout.
			seq, err = r.seedCounter(ctx, tx, order.StoreID)
			if err != nil {
				return err
			}
		}
		order.OrderNumber = ordernum.Format(seq)

		data, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("failed to encode order %s: %w", order.OrderID, err)
		}
		if err := tx.Set(ctx, orderPath(order.StoreID, order.OrderID), data, false); err != nil {
			return fmt.Errorf("failed to insert order %s: %w", order.OrderID, err)
		}

		if clearCart != nil {
			if err := tx.Delete(ctx, cartPath(*clearCart)); err != nil {
				return fmt.Errorf("failed to clear cart during checkout for order %s: %w", order.OrderID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// seedCounter aligns a brand-new counter with orders numbered before the
// counter document existed, returning the sequence the current order should
// take and persisting it so later increments continue from there.
func (r *DocOrderRepository) seedCounter(ctx context.Context, tx portsrepo.DocumentReadWriter, storeID string) (int64, error) {
	latest, err := tx.List(ctx, ordersCollection(storeID), portsrepo.Query{
		OrderBy:    "orderNumber",
		Descending: true,
		Limit:      1,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read latest order for store %s: %w", storeID, err)
	}
	if len(latest) == 0 {
		return 1, nil
	}

	var prev struct {
		OrderNumber string `json:"orderNumber"`
	}
	if err := json.Unmarshal(latest[0].Data, &prev); err != nil {
		return 1, nil
	}
	prevSeq, ok := ordernum.Parse(prev.OrderNumber)
	if !ok {
		return 1, nil
	}

	seq := prevSeq + 1
	data, err := json.Marshal(map[string]int64{"orderSeq": seq})
	if err != nil {
		return 0, err
	}
	if err := tx.Set(ctx, orderCounterPath(storeID), data, false); err != nil {
		return 0, fmt.Errorf("failed to seed order counter for store %s: %w", storeID, err)
	}
	return seq, nil
}

// FindOrderByID retrieves one order within a store.
func (r *DocOrderRepository) FindOrderByID(ctx context.Context, storeID, orderID string) (*domain.Order, error) {
	doc, err := r.store.Get(ctx, orderPath(storeID, orderID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order %s: %w", orderID, err)
	}

	var order domain.Order
	if err := json.Unmarshal(doc.Data, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", orderID, err)
	}
	return &order, nil
}

// ListOrders returns orders newest-first with cursor pagination.
func (r *DocOrderRepository) ListOrders(ctx context.Context, storeID string, params portsrepo.ListOrdersParams) ([]domain.Order, error) {
	query := portsrepo.Query{
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      params.Limit,
		TimeField:  true,
	}
	if !params.CreatedBefore.IsZero() {
		query.After = params.CreatedBefore.Format(time.RFC3339Nano)
	}

	docs, err := r.store.List(ctx, ordersCollection(storeID), query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for store %s: %w", storeID, err)
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		var order domain.Order
		if err := json.Unmarshal(doc.Data, &order); err != nil {
			return nil, fmt.Errorf("failed to decode order at %s: %w", doc.Path, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// SaveOrder persists the full order with merge semantics so concurrent
// transition writes touch only the fields they change.
func (r *DocOrderRepository) SaveOrder(ctx context.Context, order domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order %s: %w", order.OrderID, err)
	}
	if err := r.store.Set(ctx, orderPath(order.StoreID, order.OrderID), data, true); err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.OrderID, err)
	}
	return nil
}

// SubscribeOrders opens the store's order collection change feed.
func (r *DocOrderRepository) SubscribeOrders(ctx context.Context, storeID string) (portsrepo.CollectionSubscription, error) {
	return r.store.SubscribeCollection(ctx, ordersCollection(storeID))
}
