package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/lumenis/storefront/internal/domain/address"
	"github.com/lumenis/storefront/internal/domain/cart"
	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/domain/fault"
	"github.com/lumenis/storefront/internal/domain/product"
)

// ProductNotFoundError indicates a cart line references a product that is
// no longer in the catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// CartSource is the part of the cart service checkout needs.
type CartSource interface {
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// AddressDirectory resolves a customer's stored address.
type AddressDirectory interface {
	Get(ctx context.Context, ownerID, id string) (*address.Address, error)
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	SessionID     string
	OwnerID       string
	AddressID     string
	PaymentMethod string
}

// Service encapsulates checkout and the status pipeline.
type Service struct {
	carts     CartSource
	addresses AddressDirectory
	products  product.Repository
	coupons   coupon.Validator
	orders    Repository
	shipping  decimal.Decimal

	placed      metric.Int64Counter
	transitions metric.Int64Counter

	now   func() time.Time
	newID func() string
}

// NewService creates an order Service. Counters are registered on meter.
func NewService(
	carts CartSource,
	addresses AddressDirectory,
	products product.Repository,
	coupons coupon.Validator,
	orders Repository,
	shippingCost decimal.Decimal,
	meter metric.Meter,
) (*Service, error) {
	placed, err := meter.Int64Counter("lumenis.orders.placed",
		metric.WithDescription("Orders created at checkout"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create placed counter")
	}
	transitions, err := meter.Int64Counter("lumenis.orders.transitions",
		metric.WithDescription("Order status transitions"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create transitions counter")
	}

	return &Service{
		carts:       carts,
		addresses:   addresses,
		products:    products,
		coupons:     coupons,
		orders:      orders,
		shipping:    shippingCost,
		placed:      placed,
		transitions: transitions,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}, nil
}

// PlaceOrder checks out the session's cart. Lines are re-read from the
// catalog so the order freezes the names and prices current at this
// instant. The cart is cleared once the order is stored.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	c, err := s.carts.Load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if req.AddressID == "" {
		return nil, ErrMissingAddress
	}

	addr, err := s.addresses.Get(ctx, req.OwnerID, req.AddressID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshot(ctx, c)
	if err != nil {
		return nil, err
	}

	var discount *coupon.Descriptor
	if snapshot.CouponCode != "" {
		d, err := s.coupons.Validate(ctx, snapshot.CouponCode)
		if err != nil {
			return nil, errors.Wrap(err, "validate coupon")
		}
		discount = &d
	}
	totals := snapshot.ComputeTotals(s.shipping, discount)

	o, err := New(s.newID(), req.OwnerID, snapshot, addr, req.PaymentMethod, totals, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fault.Unavailable(err, "create order")
	}
	s.placed.Add(ctx, 1)

	lg := zctx.From(ctx)
	lg.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("owner_id", o.OwnerID),
		zap.Stringer("total", o.Total),
	)
	if err := s.carts.Clear(ctx, req.SessionID); err != nil {
		lg.Warn("Failed to clear cart after checkout",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
	}
	return o, nil
}

// snapshot rebuilds the cart's lines from the catalog in a single batch.
func (s *Service) snapshot(ctx context.Context, c *cart.Cart) (*cart.Cart, error) {
	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fault.Unavailable(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	out := &cart.Cart{CouponCode: c.CouponCode}
	for _, item := range c.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		if !p.Active {
			return nil, errors.Wrapf(cart.ErrProductUnavailable, "product %s", p.ID)
		}
		snap := cart.Snapshot{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price}
		if err := out.AddItem(snap, item.Quantity); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Get returns the order with id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fault.Unavailable(err, "get order")
	}
	return o, nil
}

// ListByOwner returns the customer's orders, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Order, error) {
	list, err := s.orders.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fault.Unavailable(err, "list orders")
	}
	return list, nil
}

// List returns all orders, newest first, optionally narrowed to one status.
func (s *Service) List(ctx context.Context, status Status) ([]Order, error) {
	if status != "" && !status.Valid() {
		return nil, ErrUnknownStatus
	}
	list, err := s.orders.List(ctx, status)
	if err != nil {
		return nil, fault.Unavailable(err, "list orders")
	}
	return list, nil
}

// Transition moves the stored order to status to.
func (s *Service) Transition(ctx context.Context, id string, to Status, note string) (*Order, error) {
	return s.Modify(ctx, id, func(o *Order, now time.Time) error {
		return o.Transition(to, note, now)
	})
}

// Cancel cancels the stored order.
func (s *Service) Cancel(ctx context.Context, id, note string) (*Order, error) {
	return s.Transition(ctx, id, StatusCancelled, note)
}

// Modify loads the order, applies fn and stores the result with a version
// check. A concurrent writer makes it fail with ErrConcurrentUpdate; the
// caller decides whether to retry.
func (s *Service) Modify(ctx context.Context, id string, fn func(o *Order, now time.Time) error) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := o.Status
	expected := o.Version

	if err := fn(o, s.now()); err != nil {
		return nil, err
	}
	o.Version = expected + 1

	if err := s.orders.Update(ctx, o, expected); err != nil {
		if errors.Is(err, ErrConcurrentUpdate) {
			return nil, ErrConcurrentUpdate
		}
		return nil, fault.Unavailable(err, "update order")
	}

	if o.Status != before {
		s.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(o.Status))))
		zctx.From(ctx).Info("Order status changed",
			zap.String("order_id", o.ID),
			zap.String("from", string(before)),
			zap.String("to", string(o.Status)),
		)
	}
	return o, nil
}
