package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/lumenis/storefront/internal/domain/fault"
)

// Validator resolves a coupon code into a discount descriptor.
type Validator interface {
	Validate(ctx context.Context, code string) (Descriptor, error)
}

// Resolver implements Validator by looking up coupons in a Repository and
// running Check against the current time. It never touches usage counters;
// redemption is recorded by the payment confirmation flow.
type Resolver struct {
	repo Repository
	now  func() time.Time
}

var _ Validator = (*Resolver)(nil)

// NewResolver creates a Resolver backed by the given Repository.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo, now: time.Now}
}

// Validate looks up the coupon for code and checks it.
func (r *Resolver) Validate(ctx context.Context, code string) (Descriptor, error) {
	code = Canonical(code)
	if code == "" {
		return Descriptor{}, ErrCouponNotFound
	}

	c, err := r.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return Descriptor{}, ErrCouponNotFound
		}
		return Descriptor{}, fault.Unavailable(err, "lookup coupon")
	}

	return Check(c, r.now())
}
