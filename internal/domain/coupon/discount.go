package coupon

import (
	"github.com/shopspring/decimal"

	"github.com/lumenis/storefront/internal/domain/money"
)

// Discount computes the amount d takes off an order whose subtotal plus
// shipping equals ceiling. The result is always within [0, ceiling] and
// rounded to 2 decimal places.
func (d Descriptor) Discount(ceiling decimal.Decimal) decimal.Decimal {
	ceiling = money.FloorAtZero(ceiling)

	var amount decimal.Decimal
	switch d.Kind {
	case KindPercentage:
		amount = money.Percent(ceiling, d.Value)
	case KindFixed:
		amount = decimal.Min(d.Value, ceiling)
	default:
		return decimal.Zero
	}
	return money.Clamp(money.Round(amount), ceiling)
}

// validateDefinition checks the value range for the coupon's kind.
func validateDefinition(c *Coupon) error {
	if Canonical(c.Code) == "" {
		return ErrInvalidCoupon
	}
	if !c.Kind.Valid() {
		return ErrInvalidCoupon
	}
	if c.Value.IsNegative() {
		return ErrInvalidCoupon
	}
	if c.Kind == KindPercentage && c.Value.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidCoupon
	}
	if c.UsageLimit != nil && *c.UsageLimit < 0 {
		return ErrInvalidCoupon
	}
	return nil
}
