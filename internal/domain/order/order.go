// Package order freezes priced carts into orders and moves them through the
// fulfilment pipeline.
package order

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lumenis/storefront/internal/domain/address"
	"github.com/lumenis/storefront/internal/domain/cart"
)

// Sentinel errors for order operations.
var (
	ErrNotFound            = errors.New("order not found")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrMissingAddress      = errors.New("shipping address required")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidCancellation = errors.New("order can no longer be cancelled")
	ErrUnknownStatus       = errors.New("unknown order status")
	// ErrConcurrentUpdate is returned when the stored order changed between
	// read and write.
	ErrConcurrentUpdate = errors.New("order was modified concurrently")
)

// Status is a step of the order pipeline.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusPreparing Status = "preparing"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var ranks = map[Status]int{
	StatusPending:   0,
	StatusApproved:  1,
	StatusPreparing: 2,
	StatusShipped:   3,
	StatusDelivered: 4,
	StatusCancelled: 5,
}

// Rank returns the position of s in the pipeline, or -1 for unknown values.
func (s Status) Rank() int {
	r, ok := ranks[s]
	if !ok {
		return -1
	}
	return r
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// PaymentStatus tracks the payment captured for an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
)

// Line is a frozen copy of a cart line.
type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// StatusChange is one entry of an order's status history.
type StatusChange struct {
	Status Status
	Note   string
	At     time.Time
}

// Timestamps records when each status was first reached.
type Timestamps struct {
	ApprovedAt  *time.Time
	PreparingAt *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// Order is an immutable snapshot of a checkout plus its mutable status.
type Order struct {
	ID              string
	OwnerID         string
	Items           []Line
	ShippingAddress address.Address
	PaymentMethod   string
	PaymentStatus   PaymentStatus
	TransactionID   string
	CouponCode      string
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	Status          Status
	History         []StatusChange
	Timestamps
	CreatedAt time.Time
	UpdatedAt time.Time
	// Version increases with every persisted change.
	Version int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Order, error)
	// List returns every order, newest first. A non-empty status keeps only
	// orders currently in that status.
	List(ctx context.Context, status Status) ([]Order, error)
	// Update stores o if the stored version still equals expectedVersion,
	// otherwise it returns ErrConcurrentUpdate.
	Update(ctx context.Context, o *Order, expectedVersion int) error
}

// New creates a pending order from the cart's lines and the given totals.
func New(
	id, ownerID string,
	c *cart.Cart,
	addr *address.Address,
	paymentMethod string,
	totals cart.Totals,
	now time.Time,
) (*Order, error) {
	if c == nil || c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if addr == nil {
		return nil, ErrMissingAddress
	}

	lines := make([]Line, len(c.Items))
	for i, item := range c.Items {
		lines[i] = Line{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	return &Order{
		ID:              id,
		OwnerID:         ownerID,
		Items:           lines,
		ShippingAddress: *addr,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   PaymentPending,
		CouponCode:      c.CouponCode,
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.Shipping,
		Discount:        totals.Discount,
		Total:           totals.Total,
		Status:          StatusPending,
		History:         []StatusChange{{Status: StatusPending, At: now}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Transition moves the order to status to. Cancellation is only possible
// from pending or approved; every other move must strictly increase the
// rank. Skipping intermediate statuses is allowed.
func (o *Order) Transition(to Status, note string, now time.Time) error {
	if !to.Valid() {
		return ErrInvalidTransition
	}
	if to == StatusCancelled {
		if o.Status != StatusPending && o.Status != StatusApproved {
			return ErrInvalidCancellation
		}
	} else if to.Rank() <= o.Status.Rank() {
		return ErrInvalidTransition
	}

	o.History = append(o.History, StatusChange{Status: to, Note: note, At: now})
	o.Status = to
	o.UpdatedAt = now

	at := now
	switch to {
	case StatusApproved:
		o.ApprovedAt = &at
	case StatusPreparing:
		o.PreparingAt = &at
	case StatusShipped:
		o.ShippedAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	case StatusCancelled:
		o.CancelledAt = &at
	}
	return nil
}

// Cancel transitions the order to cancelled.
func (o *Order) Cancel(note string, now time.Time) error {
	return o.Transition(StatusCancelled, note, now)
}

// RecordPayment marks the payment captured under transactionID.
func (o *Order) RecordPayment(transactionID string, now time.Time) {
	o.TransactionID = transactionID
	o.PaymentStatus = PaymentApproved
	o.UpdatedAt = now
}

// Clone returns a deep copy of o.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	c.History = slices.Clone(o.History)
	c.ApprovedAt = cloneTime(o.ApprovedAt)
	c.PreparingAt = cloneTime(o.PreparingAt)
	c.ShippedAt = cloneTime(o.ShippedAt)
	c.DeliveredAt = cloneTime(o.DeliveredAt)
	c.CancelledAt = cloneTime(o.CancelledAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
