package payment

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/domain/order"
)

// --- Mock implementations ---

type mockOrders struct {
	byID map[string]*order.Order
	err  error
}

func (m *mockOrders) Modify(_ context.Context, id string, fn func(o *order.Order, now time.Time) error) (*order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	cur, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o := cur.Clone()
	if err := fn(o, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		return nil, err
	}
	o.Version++
	m.byID[id] = o
	return o.Clone(), nil
}

type mockUsage struct {
	counts map[string]int
	err    error
}

func (m *mockUsage) IncrementUsage(_ context.Context, code string) error {
	if m.err != nil {
		return m.err
	}
	m.counts[code]++
	return nil
}

// --- Helpers ---

func newConfirmer(orders ...*order.Order) (*Confirmer, *mockOrders, *mockUsage) {
	mo := &mockOrders{byID: make(map[string]*order.Order)}
	for _, o := range orders {
		mo.byID[o.ID] = o
	}
	mu := &mockUsage{counts: make(map[string]int)}
	return NewConfirmer(mo, mu), mo, mu
}

func pendingOrder(id, code string) *order.Order {
	return &order.Order{
		ID:            id,
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentPending,
		CouponCode:    code,
	}
}

// --- Tests ---

func TestConfirm(t *testing.T) {
	c, orders, usage := newConfirmer(pendingOrder("o1", "WELCOME10"))

	o, err := c.Confirm(context.Background(), "o1", "tx-123")
	require.NoError(t, err)

	assert.Equal(t, order.StatusApproved, o.Status)
	assert.Equal(t, order.PaymentApproved, o.PaymentStatus)
	assert.Equal(t, "tx-123", o.TransactionID)
	require.NotNil(t, o.ApprovedAt)
	assert.Equal(t, 1, usage.counts["WELCOME10"])
	assert.Equal(t, order.StatusApproved, orders.byID["o1"].Status)
}

func TestConfirm_CountsUsageOnce(t *testing.T) {
	c, _, usage := newConfirmer(pendingOrder("o1", "WELCOME10"))
	ctx := context.Background()

	_, err := c.Confirm(ctx, "o1", "tx-1")
	require.NoError(t, err)
	_, err = c.Confirm(ctx, "o1", "tx-1")
	require.ErrorIs(t, err, ErrAlreadyConfirmed)

	assert.Equal(t, 1, usage.counts["WELCOME10"])
}

func TestConfirm_NoCoupon(t *testing.T) {
	c, _, usage := newConfirmer(pendingOrder("o1", ""))

	_, err := c.Confirm(context.Background(), "o1", "tx-1")
	require.NoError(t, err)
	assert.Empty(t, usage.counts)
}

func TestConfirm_Errors(t *testing.T) {
	shipped := pendingOrder("o2", "")
	shipped.Status = order.StatusShipped
	cancelled := pendingOrder("o3", "")
	cancelled.Status = order.StatusCancelled

	c, _, _ := newConfirmer(shipped, cancelled)
	ctx := context.Background()

	_, err := c.Confirm(ctx, "o1", "tx")
	require.ErrorIs(t, err, order.ErrNotFound)

	_, err = c.Confirm(ctx, "o2", "tx")
	require.ErrorIs(t, err, order.ErrInvalidTransition)

	_, err = c.Confirm(ctx, "o3", "tx")
	require.ErrorIs(t, err, order.ErrInvalidTransition)

	_, err = c.Confirm(ctx, "o2", "")
	require.ErrorIs(t, err, ErrMissingTransaction)
}

func TestConfirm_UsageFailureKeepsPayment(t *testing.T) {
	c, orders, usage := newConfirmer(pendingOrder("o1", "LIMITED"))
	usage.err = coupon.ErrCouponLimitReached

	o, err := c.Confirm(context.Background(), "o1", "tx")
	require.NoError(t, err)
	assert.Equal(t, order.PaymentApproved, o.PaymentStatus)
	assert.Equal(t, order.PaymentApproved, orders.byID["o1"].PaymentStatus)

	usage.err = errors.New("db down")
	c2, _, _ := newConfirmer(pendingOrder("o9", "X"))
	c2.coupons = usage
	_, err = c2.Confirm(context.Background(), "o9", "tx")
	require.NoError(t, err)
}
