// Package payment applies gateway payment confirmations to orders.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/domain/order"
)

var (
	// ErrAlreadyConfirmed is returned when the order's payment was already
	// captured.
	ErrAlreadyConfirmed = errors.New("payment already confirmed")
	// ErrMissingTransaction is returned when no transaction id is given.
	ErrMissingTransaction = errors.New("transaction id required")
)

// OrderModifier applies a change to a stored order under a version check.
type OrderModifier interface {
	Modify(ctx context.Context, id string, fn func(o *order.Order, now time.Time) error) (*order.Order, error)
}

// UsageCounter records a coupon redemption.
type UsageCounter interface {
	IncrementUsage(ctx context.Context, code string) error
}

// Confirmer records captured payments, approves the order and counts the
// redemption of its coupon.
type Confirmer struct {
	orders  OrderModifier
	coupons UsageCounter
}

// NewConfirmer creates a Confirmer.
func NewConfirmer(orders OrderModifier, coupons UsageCounter) *Confirmer {
	return &Confirmer{orders: orders, coupons: coupons}
}

// Confirm marks the order paid under transactionID and moves it to
// approved. Coupon usage is counted once per order, after the order update
// is stored; a failed count is logged and does not undo the payment.
func (c *Confirmer) Confirm(ctx context.Context, orderID, transactionID string) (*order.Order, error) {
	if transactionID == "" {
		return nil, ErrMissingTransaction
	}

	o, err := c.orders.Modify(ctx, orderID, func(o *order.Order, now time.Time) error {
		if o.PaymentStatus == order.PaymentApproved {
			return ErrAlreadyConfirmed
		}
		if err := o.Transition(order.StatusApproved, "payment confirmed", now); err != nil {
			return err
		}
		o.RecordPayment(transactionID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	lg := zctx.From(ctx).With(
		zap.String("order_id", o.ID),
		zap.String("transaction_id", transactionID),
	)
	if o.CouponCode != "" {
		if err := c.coupons.IncrementUsage(ctx, o.CouponCode); err != nil {
			level := zap.ErrorLevel
			if errors.Is(err, coupon.ErrCouponLimitReached) {
				level = zap.WarnLevel
			}
			lg.Log(level, "Failed to count coupon usage",
				zap.String("coupon", o.CouponCode),
				zap.Error(err),
			)
		}
	}
	lg.Info("Payment confirmed")
	return o, nil
}
