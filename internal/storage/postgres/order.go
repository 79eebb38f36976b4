package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lumenis/storefront/internal/domain/address"
	"github.com/lumenis/storefront/internal/domain/order"
)

const (
	orderColumns = `id, owner_id, items, shipping_address, payment_method, payment_status,
		transaction_id, coupon_code, subtotal, shipping_cost, discount, total, status, history,
		approved_at, preparing_at, shipped_at, delivered_at, cancelled_at,
		created_at, updated_at, version`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByOwnerSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE owner_id = $1 ORDER BY created_at DESC`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE $1 = '' OR status = $1 ORDER BY created_at DESC`

	// Only status, payment and history fields change after checkout.
	updateOrderSQL = `UPDATE orders SET
			payment_status = $2, transaction_id = $3, status = $4, history = $5,
			approved_at = $6, preparing_at = $7, shipped_at = $8, delivered_at = $9, cancelled_at = $10,
			updated_at = $11, version = $12
		WHERE id = $1 AND version = $13`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

// orderLine is the JSONB form of an order line.
type orderLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// orderAddress is the JSONB form of the shipping address snapshot.
type orderAddress struct {
	ID           string `json:"id"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}

// statusChange is the JSONB form of a history entry.
type statusChange struct {
	Status string    `json:"status"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Lines,
// the shipping address and the history are stored as JSONB.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	items, addr, history, err := marshalOrder(o)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.OwnerID, items, addr, o.PaymentMethod, string(o.PaymentStatus),
		o.TransactionID, o.CouponCode, o.Subtotal, o.ShippingCost, o.Discount, o.Total,
		string(o.Status), history,
		o.ApprovedAt, o.PreparingAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt,
		o.CreatedAt, o.UpdatedAt, o.Version,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get returns the order with id or order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByOwner returns the owner's orders, newest first.
func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByOwnerSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of %q: %w", ownerID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// List returns every order, newest first, optionally filtered by status.
func (r *OrderRepository) List(ctx context.Context, status order.Status) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Update writes the mutable order fields if the stored version still equals
// expectedVersion.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order, expectedVersion int) error {
	history, err := json.Marshal(historyRecords(o.History))
	if err != nil {
		return fmt.Errorf("marshaling order history: %w", err)
	}

	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, string(o.PaymentStatus), o.TransactionID, string(o.Status), history,
		o.ApprovedAt, o.PreparingAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt,
		o.UpdatedAt, o.Version, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, orderExistsSQL, o.ID).Scan(&exists); err != nil {
		return fmt.Errorf("checking order %q: %w", o.ID, err)
	}
	if !exists {
		return order.ErrNotFound
	}
	return order.ErrConcurrentUpdate
}

func marshalOrder(o *order.Order) (items, addr, history []byte, err error) {
	lines := make([]orderLine, len(o.Items))
	for i, l := range o.Items {
		lines[i] = orderLine{ProductID: l.ProductID, Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}
	if items, err = json.Marshal(lines); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling order items: %w", err)
	}

	a := o.ShippingAddress
	addr, err = json.Marshal(orderAddress{
		ID:           a.ID,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling shipping address: %w", err)
	}

	if history, err = json.Marshal(historyRecords(o.History)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling order history: %w", err)
	}
	return items, addr, history, nil
}

func historyRecords(history []order.StatusChange) []statusChange {
	out := make([]statusChange, len(history))
	for i, h := range history {
		out[i] = statusChange{Status: string(h.Status), Note: h.Note, At: h.At}
	}
	return out
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		items         []byte
		addr          []byte
		history       []byte
		paymentStatus string
		status        string
		version       int32
	)
	err := row.Scan(
		&o.ID, &o.OwnerID, &items, &addr, &o.PaymentMethod, &paymentStatus,
		&o.TransactionID, &o.CouponCode, &o.Subtotal, &o.ShippingCost, &o.Discount, &o.Total,
		&status, &history,
		&o.ApprovedAt, &o.PreparingAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt,
		&o.CreatedAt, &o.UpdatedAt, &version,
	)
	if err != nil {
		return o, err
	}
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	o.Status = order.Status(status)
	o.Version = int(version)

	var lines []orderLine
	if err := json.Unmarshal(items, &lines); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	o.Items = make([]order.Line, len(lines))
	for i, l := range lines {
		o.Items[i] = order.Line{ProductID: l.ProductID, Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}

	var a orderAddress
	if err := json.Unmarshal(addr, &a); err != nil {
		return o, fmt.Errorf("unmarshaling shipping address: %w", err)
	}
	o.ShippingAddress = address.Address{
		ID:           a.ID,
		OwnerID:      o.OwnerID,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
	}

	var changes []statusChange
	if err := json.Unmarshal(history, &changes); err != nil {
		return o, fmt.Errorf("unmarshaling order history: %w", err)
	}
	o.History = make([]order.StatusChange, len(changes))
	for i, h := range changes {
		o.History[i] = order.StatusChange{Status: order.Status(h.Status), Note: h.Note, At: h.At}
	}
	return o, nil
}
