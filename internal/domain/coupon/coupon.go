package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported coupon discount strategies.
type Kind string

const (
	// KindPercentage takes a percentage (0-100) off subtotal plus shipping.
	KindPercentage Kind = "percentage"
	// KindFixed takes a fixed amount off, capped at subtotal plus shipping.
	KindFixed Kind = "fixed"
)

// Valid reports whether k is a known discount kind.
func (k Kind) Valid() bool {
	return k == KindPercentage || k == KindFixed
}

var (
	// ErrCouponNotFound is returned when no coupon exists for a code.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrCouponInactive is returned for coupons switched off by an administrator.
	ErrCouponInactive = errors.New("coupon inactive")
	// ErrCouponExpired is returned when the current time is past the coupon expiry.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrCouponLimitReached is returned when a coupon has exhausted its allowed uses.
	ErrCouponLimitReached = errors.New("coupon usage limit reached")
	// ErrDuplicateCouponCode is returned when creating or renaming onto an existing code.
	ErrDuplicateCouponCode = errors.New("duplicate coupon code")
	// ErrCouponInUse is returned when deleting a coupon that has been redeemed.
	ErrCouponInUse = errors.New("coupon in use")
	// ErrInvalidCoupon is returned for malformed coupon definitions.
	ErrInvalidCoupon = errors.New("invalid coupon")
)

// Coupon is an administrator-defined discount.
type Coupon struct {
	Code       string
	Kind       Kind
	Value      decimal.Decimal
	Commission decimal.Decimal
	Active     bool
	ExpiresAt  time.Time
	UsageCount int
	// UsageLimit is nil for coupons without a redemption cap.
	UsageLimit *int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Descriptor is the resolved {kind, value} pair produced by a successful
// validation. Carts only ever see descriptors, never coupons.
type Descriptor struct {
	Kind  Kind
	Value decimal.Decimal
}

// Repository is the coupon directory.
type Repository interface {
	// FindByCode returns ErrCouponNotFound when no coupon matches the
	// canonical form of code.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	// Create returns ErrDuplicateCouponCode when the code is taken.
	Create(ctx context.Context, c *Coupon) error
	// Update replaces the coupon stored under code. Renaming onto a taken code
	// returns ErrDuplicateCouponCode.
	Update(ctx context.Context, code string, c *Coupon) error
	Delete(ctx context.Context, code string) error
	// IncrementUsage bumps the usage counter unless the limit is already
	// reached, in which case it returns ErrCouponLimitReached.
	IncrementUsage(ctx context.Context, code string) error
}

// Canonical returns the stored/displayed form of a coupon code.
func Canonical(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Check applies the validation rules to c in their fixed order: not found,
// inactive, expired, usage limit. The first failing rule wins.
func Check(c *Coupon, now time.Time) (Descriptor, error) {
	if c == nil {
		return Descriptor{}, ErrCouponNotFound
	}
	if !c.Active {
		return Descriptor{}, ErrCouponInactive
	}
	if now.After(c.ExpiresAt) {
		return Descriptor{}, ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return Descriptor{}, ErrCouponLimitReached
	}
	return Descriptor{Kind: c.Kind, Value: c.Value}, nil
}
