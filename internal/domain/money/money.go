// Package money collects the decimal helpers used for prices and totals.
package money

import "github.com/shopspring/decimal"

// Places is the number of decimal places every computed amount is rounded to.
const Places = 2

var hundred = decimal.NewFromInt(100)

// DefaultShippingCost is the flat shipping fee charged on non-empty carts.
var DefaultShippingCost = decimal.NewFromInt(10)

// Round rounds d to Places decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// FloorAtZero clamps negative values to zero.
func FloorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Clamp limits d to the closed range [0, ceiling].
func Clamp(d, ceiling decimal.Decimal) decimal.Decimal {
	d = FloorAtZero(d)
	if d.GreaterThan(ceiling) {
		return ceiling
	}
	return d
}

// Percent returns pct percent of d.
func Percent(d, pct decimal.Decimal) decimal.Decimal {
	return d.Mul(pct).Div(hundred)
}

// Line returns unit * quantity.
func Line(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}
