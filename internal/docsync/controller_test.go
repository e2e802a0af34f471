package docsync_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/adapters/docstore/memdoc"
	"github.com/storekit/storefront_backend/internal/core/domain"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	"github.com/storekit/storefront_backend/internal/docsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docSubscriber(store *memdoc.Store) func(ctx context.Context, scope docsync.Scope) (portsrepo.DocSubscription, error) {
	return func(ctx context.Context, scope docsync.Scope) (portsrepo.DocSubscription, error) {
		return store.SubscribeDoc(ctx, string(scope))
	}
}

func emptyCartFor(scope docsync.Scope) domain.Cart {
	return domain.EmptyCart("", "")
}

// waitFor blocks until cond holds after an update signal, or fails the test.
func waitFor[T any](t *testing.T, c *docsync.Controller[T], cond func(T, error) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if state, err := c.Snapshot(); cond(state, err) {
			return
		}
		select {
		case <-c.Updates():
		case <-deadline:
			state, err := c.Snapshot()
			t.Fatalf("condition never held; last state %+v, err %v", state, err)
		}
	}
}

func TestController_InitialSnapshotIsEmptyDefaultForAbsentDoc(t *testing.T) {
	store := memdoc.New()
	c := docsync.NewController(docSubscriber(store), emptyCartFor)
	defer c.Close()

	h, err := c.SetScope(context.Background(), "stores/s1/carts/u1")
	require.NoError(t, err)
	assert.Equal(t, docsync.Scope("stores/s1/carts/u1"), h.Scope())

	waitFor(t, c, func(cart domain.Cart, err error) bool {
		return err == nil && len(cart.Items) == 0
	})
}

func TestController_RemoteWriteReplacesLocalState(t *testing.T) {
	store := memdoc.New()
	ctx := context.Background()
	c := docsync.NewController(docSubscriber(store), emptyCartFor)
	defer c.Close()

	_, err := c.SetScope(ctx, "stores/s1/carts/u1")
	require.NoError(t, err)

	cart := domain.EmptyCart("u1", "s1").AddItem(domain.CartItem{
		ProductID: "A", Name: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 2,
	})
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "stores/s1/carts/u1", data, false))

	waitFor(t, c, func(got domain.Cart, err error) bool {
		return err == nil && len(got.Items) == 1 && got.Items[0].Quantity == 2
	})
}

func TestController_ScopeChangeDropsStaleDeliveries(t *testing.T) {
	store := memdoc.New()
	ctx := context.Background()
	c := docsync.NewController(docSubscriber(store), emptyCartFor)
	defer c.Close()

	_, err := c.SetScope(ctx, "stores/s1/carts/u1")
	require.NoError(t, err)

	oldCart := domain.EmptyCart("u1", "s1").AddItem(domain.CartItem{
		ProductID: "OLD", Name: "Old", UnitPrice: decimal.NewFromInt(5), Quantity: 1,
	})
	oldData, err := json.Marshal(oldCart)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "stores/s1/carts/u1", oldData, false))

	h2, err := c.SetScope(ctx, "stores/s2/carts/u1")
	require.NoError(t, err)
	assert.Equal(t, docsync.Scope("stores/s2/carts/u1"), h2.Scope())

	// Writes to the old scope must never surface after the rebind.
	require.NoError(t, store.Set(ctx, "stores/s1/carts/u1", oldData, false))

	waitFor(t, c, func(cart domain.Cart, err error) bool {
		return err == nil
	})
	cart, err := c.Snapshot()
	require.NoError(t, err)
	for _, item := range cart.Items {
		assert.NotEqual(t, "OLD", item.ProductID)
	}
}

func TestController_ApplyPersistsOptimistically(t *testing.T) {
	store := memdoc.New()
	ctx := context.Background()
	c := docsync.NewController(docSubscriber(store), emptyCartFor)
	defer c.Close()

	_, err := c.SetScope(ctx, "stores/s1/carts/u1")
	require.NoError(t, err)
	waitFor(t, c, func(cart domain.Cart, err error) bool { return err == nil })

	err = c.Apply(ctx,
		func(cart domain.Cart) domain.Cart {
			return cart.AddItem(domain.CartItem{
				ProductID: "A", Name: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 3,
			})
		},
		func(ctx context.Context, cart domain.Cart) error {
			data, merr := json.Marshal(cart)
			if merr != nil {
				return merr
			}
			return store.Set(ctx, "stores/s1/carts/u1", data, true)
		},
	)
	require.NoError(t, err)

	waitFor(t, c, func(cart domain.Cart, err error) bool {
		return err == nil && len(cart.Items) == 1 && cart.Items[0].Quantity == 3
	})
	doc, err := store.Get(ctx, "stores/s1/carts/u1")
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), `"Widget"`)
}

func TestController_ApplyRollsBackOnPersistFailure(t *testing.T) {
	store := memdoc.New()
	ctx := context.Background()
	c := docsync.NewController(docSubscriber(store), emptyCartFor)
	defer c.Close()

	_, err := c.SetScope(ctx, "stores/s1/carts/u1")
	require.NoError(t, err)
	waitFor(t, c, func(cart domain.Cart, err error) bool { return err == nil })

	writeErr := errors.New("write refused")
	err = c.Apply(ctx,
		func(cart domain.Cart) domain.Cart {
			return cart.AddItem(domain.CartItem{
				ProductID: "A", Name: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 1,
			})
		},
		func(ctx context.Context, cart domain.Cart) error { return writeErr },
	)
	require.ErrorIs(t, err, writeErr)

	cart, stateErr := c.Snapshot()
	assert.ErrorIs(t, stateErr, writeErr)
	assert.Empty(t, cart.Items, "failed persist must roll local state back")
}

func TestController_SubscriptionFailureBecomesErrorState(t *testing.T) {
	store := memdoc.New()
	ctx := context.Background()
	c := docsync.NewController(docSubscriber(store), emptyCartFor)
	defer c.Close()

	_, err := c.SetScope(ctx, "stores/s1/carts/u1")
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "stores/s1/carts/u1", []byte(`{not json`), false))

	waitFor(t, c, func(cart domain.Cart, err error) bool {
		var subErr *docsync.SubscriptionError
		return errors.As(err, &subErr)
	})
}

func TestListController_MirrorsCollection(t *testing.T) {
	store := memdoc.New()
	ctx := context.Background()
	c := docsync.NewListController[domain.Expense](func(ctx context.Context, scope docsync.Scope) (portsrepo.CollectionSubscription, error) {
		return store.SubscribeCollection(ctx, string(scope))
	})
	defer c.Close()

	_, err := c.SetScope(ctx, "projects/p1/expenses")
	require.NoError(t, err)

	exp := domain.Expense{ExpenseID: "e1", ProjectID: "p1", Supplier: "Acme", Total: decimal.NewFromInt(42)}
	data, err := json.Marshal(exp)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "projects/p1/expenses/e1", data, false))

	deadline := time.After(2 * time.Second)
	for {
		items, err := c.Snapshot()
		require.NoError(t, err)
		if len(items) == 1 && items[0].ExpenseID == "e1" {
			break
		}
		select {
		case <-c.Updates():
		case <-deadline:
			t.Fatalf("collection mirror never caught up; items=%v", items)
		}
	}
}
