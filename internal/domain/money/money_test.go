package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name    string
		in      decimal.Decimal
		ceiling decimal.Decimal
		want    decimal.Decimal
	}{
		{name: "inside range", in: d("5"), ceiling: d("10"), want: d("5")},
		{name: "negative floors at zero", in: d("-3"), ceiling: d("10"), want: d("0")},
		{name: "above ceiling", in: d("12.50"), ceiling: d("10"), want: d("10")},
		{name: "zero ceiling", in: d("1"), ceiling: d("0"), want: d("0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.in, tt.ceiling)
			assert.True(t, tt.want.Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestPercentAndRound(t *testing.T) {
	// 29.97 * 15% = 4.4955 -> 4.50
	got := Round(Percent(d("29.97"), d("15")))
	assert.True(t, d("4.50").Equal(got), "got %s", got)
}

func TestLine(t *testing.T) {
	got := Line(d("49.99"), 3)
	assert.True(t, d("149.97").Equal(got), "got %s", got)
}
