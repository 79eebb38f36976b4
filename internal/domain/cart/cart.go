// Package cart implements the shopping cart aggregate: line items, coupon
// code and the pricing of both into totals.
package cart

import (
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/domain/money"
)

// MaxQuantity is the largest quantity a single line may hold.
const MaxQuantity = 9999

var (
	// ErrInvalidQuantity is returned when a line would hold fewer than one or
	// more than MaxQuantity units.
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 9999")
	// ErrProductUnavailable is returned when adding an inactive product.
	ErrProductUnavailable = errors.New("product unavailable")
)

// LineItem is one product/quantity pair. Name and UnitPrice are copied from
// the catalog when the product is first added.
type LineItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total returns UnitPrice * Quantity.
func (l LineItem) Total() decimal.Decimal {
	return money.Line(l.UnitPrice, l.Quantity)
}

// Snapshot is the catalog data captured when a product enters the cart.
type Snapshot struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
}

// Cart holds the line items of one shopping session. No two items share a
// ProductID. The zero value is an empty cart.
type Cart struct {
	Items []LineItem
	// CouponCode is the canonical code of the applied coupon, if any.
	CouponCode string
}

// Totals is the priced view of a cart.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// AddItem adds quantity units of the product. An existing line for the same
// product has its quantity increased; its price snapshot is kept.
func (c *Cart) AddItem(p Snapshot, quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if i := c.index(p.ProductID); i >= 0 {
		if c.Items[i].Quantity > MaxQuantity-quantity {
			return ErrInvalidQuantity
		}
		c.Items[i].Quantity += quantity
		return nil
	}
	c.Items = append(c.Items, LineItem{
		ProductID: p.ProductID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Quantity:  quantity,
	})
	return nil
}

// UpdateQuantity sets the quantity of a line exactly. A quantity of zero or
// less removes the line. Unknown products are ignored.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return nil
	}
	if quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if i := c.index(productID); i >= 0 {
		c.Items[i].Quantity = quantity
	}
	return nil
}

// RemoveItem drops the line for productID. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID string) {
	c.Items = slices.DeleteFunc(c.Items, func(l LineItem) bool {
		return l.ProductID == productID
	})
}

// Clear empties the cart and removes the applied coupon.
func (c *Cart) Clear() {
	c.Items = nil
	c.CouponCode = ""
}

// ApplyCoupon records code, in canonical form, as the cart's coupon. The
// code must have been validated by the caller.
func (c *Cart) ApplyCoupon(code string) {
	c.CouponCode = coupon.Canonical(code)
}

// RemoveCoupon detaches the applied coupon.
func (c *Cart) RemoveCoupon() {
	c.CouponCode = ""
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Quantity returns the total number of units across all lines.
func (c *Cart) Quantity() int {
	n := 0
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

// Find returns the line for productID.
func (c *Cart) Find(productID string) (LineItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// ComputeTotals prices the cart. Shipping is charged only when the cart has
// items. A nil discount means no coupon; otherwise the descriptor is applied
// against subtotal+shipping, so the total never goes below zero.
func (c *Cart) ComputeTotals(shippingCost decimal.Decimal, discount *coupon.Descriptor) Totals {
	return Price(c.Items, shippingCost, discount)
}

// Price computes totals for an arbitrary set of lines.
func Price(items []LineItem, shippingCost decimal.Decimal, discount *coupon.Descriptor) Totals {
	subtotal := decimal.Zero
	for _, l := range items {
		subtotal = subtotal.Add(l.Total())
	}

	shipping := decimal.Zero
	if len(items) > 0 {
		shipping = money.FloorAtZero(shippingCost)
	}

	ceiling := subtotal.Add(shipping)
	amount := decimal.Zero
	if discount != nil {
		amount = discount.Discount(ceiling)
	}

	t := Totals{
		Subtotal: money.Round(subtotal),
		Shipping: money.Round(shipping),
		Discount: money.Round(amount),
	}
	t.Total = money.FloorAtZero(t.Subtotal.Add(t.Shipping).Sub(t.Discount))
	return t
}

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.Items, func(l LineItem) bool {
		return l.ProductID == productID
	})
}
