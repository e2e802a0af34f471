package domain

import "github.com/shopspring/decimal"

// CartItem represents a single purchasable line within a cart.
// Line identity within a cart is the (ProductID, VariantID) pair; an absent
// VariantID is a distinct key from any present variant.
type CartItem struct {
	ProductID string          `json:"productID"`           // FK -> products.product_id (Not Null)
	VariantID *string         `json:"variantID,omitempty"` // Nullable variant reference
	Name      string          `json:"name"`                // Display name snapshot
	ImageURL  string          `json:"imageURL,omitempty"`  // Display image snapshot
	UnitPrice decimal.Decimal `json:"unitPrice"`           // Price per unit; precise decimal type
	Quantity  int64           `json:"quantity"`            // Always > 0 for a stored line
}

// SameLine reports whether other identifies the same cart line.
func (i CartItem) SameLine(productID string, variantID *string) bool {
	if i.ProductID != productID {
		return false
	}
	if (i.VariantID == nil) != (variantID == nil) {
		return false
	}
	return i.VariantID == nil || *i.VariantID == *variantID
}

// LineTotal returns unit price multiplied by quantity for this line.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Cart is the per-(user, store) shopping aggregate. Derived fields
// (Subtotal, Total, ItemCount) are recomputed by every mutation and are never
// stale relative to Items.
type Cart struct {
	UserID         string          `json:"userID"`  // Owning user (scope key)
	StoreID        string          `json:"storeID"` // Owning store (scope key)
	Items          []CartItem      `json:"items"`
	DiscountCode   string          `json:"discountCode,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Subtotal       decimal.Decimal `json:"subtotal"`  // Derived: sum of line totals
	Total          decimal.Decimal `json:"total"`     // Derived: max(0, subtotal - discount)
	ItemCount      int64           `json:"itemCount"` // Derived: sum of quantities
	AuditFields
}

// EmptyCart returns the default aggregate used when no remote document exists
// for the scope yet. Absence is "not yet created", not a fault.
func EmptyCart(userID, storeID string) Cart {
	return Cart{
		UserID:         userID,
		StoreID:        storeID,
		Items:          []CartItem{},
		DiscountAmount: decimal.Zero,
		Subtotal:       decimal.Zero,
		Total:          decimal.Zero,
	}
}

// AddItem returns a new cart with the item merged in. Adding a line that is
// already present (same product and variant) increments its quantity instead
// of duplicating the row.
func (c Cart) AddItem(item CartItem) Cart {
	next := c.cloneItems()
	merged := false
	for idx, existing := range next.Items {
		if existing.SameLine(item.ProductID, item.VariantID) {
			next.Items[idx].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		next.Items = append(next.Items, item)
	}
	return next.recompute()
}

// RemoveItem returns a new cart without the identified line. Removing a line
// that is not present is a no-op.
func (c Cart) RemoveItem(productID string, variantID *string) Cart {
	next := c.cloneItems()
	kept := next.Items[:0]
	for _, item := range next.Items {
		if !item.SameLine(productID, variantID) {
			kept = append(kept, item)
		}
	}
	next.Items = kept
	return next.recompute()
}

// SetQuantity returns a new cart with the line quantity replaced. A quantity
// of zero or less removes the line entirely.
func (c Cart) SetQuantity(productID string, variantID *string, quantity int64) Cart {
	if quantity <= 0 {
		return c.RemoveItem(productID, variantID)
	}
	next := c.cloneItems()
	for idx, item := range next.Items {
		if item.SameLine(productID, variantID) {
			next.Items[idx].Quantity = quantity
			break
		}
	}
	return next.recompute()
}

// ApplyDiscount returns a new cart with the discount replaced. Discounts do
// not stack; applying a new one drops any prior discount.
func (c Cart) ApplyDiscount(code string, amount decimal.Decimal) Cart {
	next := c.cloneItems()
	next.DiscountCode = code
	next.DiscountAmount = amount
	return next.recompute()
}

// cloneItems copies the cart with its own items slice so mutations stay pure.
func (c Cart) cloneItems() Cart {
	next := c
	next.Items = make([]CartItem, len(c.Items))
	copy(next.Items, c.Items)
	return next
}

// recompute refreshes all derived fields from the current item list.
func (c Cart) recompute() Cart {
	subtotal := decimal.Zero
	var count int64
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.LineTotal())
		count += item.Quantity
	}
	total := subtotal.Sub(c.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	c.Subtotal = subtotal
	c.Total = total
	c.ItemCount = count
	return c
}
