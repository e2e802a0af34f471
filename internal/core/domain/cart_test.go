package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringPtr(s string) *string { return &s }

func itemA(qty int64) domain.CartItem {
	return domain.CartItem{
		ProductID: "A",
		Name:      "Widget",
		UnitPrice: decimal.NewFromInt(10),
		Quantity:  qty,
	}
}

func TestCart_AddItem_MergesExistingLine(t *testing.T) {
	cart := domain.EmptyCart("user-1", "store-1").AddItem(itemA(2))
	cart = cart.AddItem(itemA(3))

	require.Len(t, cart.Items, 1, "same (product, variant) pair must not duplicate the row")
	assert.EqualValues(t, 5, cart.Items[0].Quantity)
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(50)), "subtotal was %s", cart.Subtotal)
	assert.EqualValues(t, 5, cart.ItemCount)
}

func TestCart_AddItem_VariantIsDistinctKey(t *testing.T) {
	base := itemA(1)
	variant := itemA(1)
	variant.VariantID = stringPtr("red")

	cart := domain.EmptyCart("user-1", "store-1").AddItem(base).AddItem(variant)

	require.Len(t, cart.Items, 2)

	// A second add of the same variant still merges.
	cart = cart.AddItem(variant)
	require.Len(t, cart.Items, 2)
	assert.EqualValues(t, 2, cart.Items[1].Quantity)
}

func TestCart_RemoveItem_AbsentIsNoOp(t *testing.T) {
	cart := domain.EmptyCart("user-1", "store-1").AddItem(itemA(2))
	next := cart.RemoveItem("missing", nil)

	assert.Equal(t, cart.Items, next.Items)
	assert.True(t, cart.Subtotal.Equal(next.Subtotal))
}

func TestCart_SetQuantity(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int64
		wantLines int
		wantCount int64
	}{
		{name: "positive quantity replaces", quantity: 7, wantLines: 1, wantCount: 7},
		{name: "zero removes the line", quantity: 0, wantLines: 0, wantCount: 0},
		{name: "negative removes the line", quantity: -3, wantLines: 0, wantCount: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := domain.EmptyCart("user-1", "store-1").AddItem(itemA(2))
			cart = cart.SetQuantity("A", nil, tt.quantity)

			assert.Len(t, cart.Items, tt.wantLines)
			assert.EqualValues(t, tt.wantCount, cart.ItemCount)
		})
	}
}

func TestCart_ApplyDiscount(t *testing.T) {
	cart := domain.EmptyCart("user-1", "store-1").AddItem(itemA(5)) // subtotal 50

	cart = cart.ApplyDiscount("SAVE10", decimal.NewFromInt(10))
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(50)), "discount must not alter subtotal")
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(40)))

	// Re-applying replaces rather than stacking.
	cart = cart.ApplyDiscount("SAVE5", decimal.NewFromInt(5))
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(45)))

	// Total is floored at zero.
	cart = cart.ApplyDiscount("HUGE", decimal.NewFromInt(999))
	assert.True(t, cart.Total.Equal(decimal.Zero), "total must never go negative")
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(50)))
}

func TestCart_MutationsArePure(t *testing.T) {
	original := domain.EmptyCart("user-1", "store-1").AddItem(itemA(2))
	_ = original.AddItem(itemA(9))
	_ = original.SetQuantity("A", nil, 1)

	require.Len(t, original.Items, 1)
	assert.EqualValues(t, 2, original.Items[0].Quantity)
}
