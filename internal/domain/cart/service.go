package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/domain/fault"
	"github.com/lumenis/storefront/internal/domain/product"
)

// Store persists carts per shopping session.
type Store interface {
	// Load returns the session's cart, or an empty cart when none is stored.
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// Summary is a cart together with its priced totals.
type Summary struct {
	Cart   *Cart
	Totals Totals
	// CouponErr is set when the cart carries a coupon that no longer
	// validates. Such a coupon contributes no discount.
	CouponErr error
}

// Service runs cart operations against a Store, snapshotting catalog data
// and resolving coupons on the way.
type Service struct {
	store    Store
	products product.Repository
	coupons  coupon.Validator
	shipping decimal.Decimal
}

// NewService creates a cart Service. shippingCost is the flat fee charged
// on non-empty carts.
func NewService(
	store Store,
	products product.Repository,
	coupons coupon.Validator,
	shippingCost decimal.Decimal,
) *Service {
	return &Service{
		store:    store,
		products: products,
		coupons:  coupons,
		shipping: shippingCost,
	}
}

// ShippingCost returns the flat shipping fee used for pricing.
func (s *Service) ShippingCost() decimal.Decimal {
	return s.shipping
}

// Summary loads and prices the session's cart.
func (s *Service) Summary(ctx context.Context, sessionID string) (*Summary, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, c)
}

// AddItem snapshots the product from the catalog and adds quantity units of
// it to the session's cart.
func (s *Service) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*Summary, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, product.ErrNotFound
		}
		return nil, fault.Unavailable(err, "get product")
	}
	if !p.Active {
		return nil, ErrProductUnavailable
	}

	return s.mutate(ctx, sessionID, func(c *Cart) error {
		return c.AddItem(Snapshot{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price}, quantity)
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes it.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*Summary, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		return c.UpdateQuantity(productID, quantity)
	})
}

// RemoveItem drops a product from the session's cart.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) (*Summary, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

// ApplyCoupon validates code and attaches it to the session's cart. A code
// that fails validation leaves the cart untouched.
func (s *Service) ApplyCoupon(ctx context.Context, sessionID, code string) (*Summary, error) {
	if _, err := s.coupons.Validate(ctx, code); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.ApplyCoupon(code)
		return nil
	})
}

// RemoveCoupon detaches the coupon from the session's cart.
func (s *Service) RemoveCoupon(ctx context.Context, sessionID string) (*Summary, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.RemoveCoupon()
		return nil
	})
}

// Clear discards the session's cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fault.Unavailable(err, "delete cart")
	}
	return nil
}

// Load returns the raw cart for a session.
func (s *Service) Load(ctx context.Context, sessionID string) (*Cart, error) {
	return s.load(ctx, sessionID)
}

func (s *Service) mutate(ctx context.Context, sessionID string, fn func(c *Cart) error) (*Summary, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return nil, fault.Unavailable(err, "save cart")
	}
	return s.price(ctx, c)
}

func (s *Service) load(ctx context.Context, sessionID string) (*Cart, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fault.Unavailable(err, "load cart")
	}
	if c == nil {
		c = &Cart{}
	}
	return c, nil
}

// price resolves the cart's coupon and computes totals. Business-rule
// coupon failures are reported on the summary; collaborator failures abort.
func (s *Service) price(ctx context.Context, c *Cart) (*Summary, error) {
	sum := &Summary{Cart: c}

	var discount *coupon.Descriptor
	if c.CouponCode != "" {
		d, err := s.coupons.Validate(ctx, c.CouponCode)
		switch {
		case err == nil:
			discount = &d
		case errors.Is(err, fault.ErrCollaboratorUnavailable):
			return nil, err
		default:
			sum.CouponErr = err
		}
	}

	sum.Totals = c.ComputeTotals(s.shipping, discount)
	return sum, nil
}
