package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/lumenis/storefront/internal/domain/fault"
)

// AdminService implements the administrative coupon operations and their
// safety invariants: canonical unique codes, value ranges per kind, and no
// deletion of redeemed coupons.
type AdminService struct {
	repo Repository
	now  func() time.Time
}

// NewAdminService creates an AdminService backed by the given Repository.
func NewAdminService(repo Repository) *AdminService {
	return &AdminService{repo: repo, now: time.Now}
}

// List returns every coupon.
func (s *AdminService) List(ctx context.Context) ([]Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, fault.Unavailable(err, "list coupons")
	}
	return coupons, nil
}

// Get returns the coupon stored under code.
func (s *AdminService) Get(ctx context.Context, code string) (*Coupon, error) {
	c, err := s.repo.FindByCode(ctx, Canonical(code))
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fault.Unavailable(err, "get coupon")
	}
	return c, nil
}

// Create stores a new coupon. The code is canonicalised and the usage
// counter starts at zero.
func (s *AdminService) Create(ctx context.Context, c Coupon) (*Coupon, error) {
	c.Code = Canonical(c.Code)
	if err := validateDefinition(&c); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByCode(ctx, c.Code); err == nil {
		return nil, ErrDuplicateCouponCode
	} else if !errors.Is(err, ErrCouponNotFound) {
		return nil, fault.Unavailable(err, "check coupon code")
	}

	now := s.now()
	c.UsageCount = 0
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.repo.Create(ctx, &c); err != nil {
		if errors.Is(err, ErrDuplicateCouponCode) {
			return nil, ErrDuplicateCouponCode
		}
		return nil, fault.Unavailable(err, "create coupon")
	}
	return &c, nil
}

// Update replaces the definition of the coupon stored under code. The usage
// counter and creation time are preserved.
func (s *AdminService) Update(ctx context.Context, code string, c Coupon) (*Coupon, error) {
	code = Canonical(code)
	c.Code = Canonical(c.Code)
	if c.Code == "" {
		c.Code = code
	}
	if err := validateDefinition(&c); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if c.Code != code {
		if _, err := s.repo.FindByCode(ctx, c.Code); err == nil {
			return nil, ErrDuplicateCouponCode
		} else if !errors.Is(err, ErrCouponNotFound) {
			return nil, fault.Unavailable(err, "check coupon code")
		}
	}

	c.UsageCount = current.UsageCount
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, code, &c); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateCouponCode), errors.Is(err, ErrCouponNotFound):
			return nil, err
		}
		return nil, fault.Unavailable(err, "update coupon")
	}
	return &c, nil
}

// Delete removes an unredeemed coupon.
func (s *AdminService) Delete(ctx context.Context, code string) error {
	c, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if c.UsageCount > 0 {
		return ErrCouponInUse
	}

	if err := s.repo.Delete(ctx, c.Code); err != nil {
		switch {
		case errors.Is(err, ErrCouponNotFound), errors.Is(err, ErrCouponInUse):
			return err
		}
		return fault.Unavailable(err, "delete coupon")
	}
	return nil
}
