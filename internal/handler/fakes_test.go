package handler

import (
	"context"
	"slices"
	"sync"

	"github.com/lumenis/storefront/internal/domain/address"
	"github.com/lumenis/storefront/internal/domain/cart"
	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/domain/order"
	"github.com/lumenis/storefront/internal/domain/product"
)

// --- In-memory repositories ---

type memProducts struct {
	items []product.Product
}

func (m *memProducts) List(_ context.Context) ([]product.Product, error) {
	return slices.Clone(m.items), nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	for _, p := range m.items {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *memProducts) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, p := range m.items {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) Create(_ context.Context, p *product.Product) error {
	for _, cur := range m.items {
		if cur.ID == p.ID {
			return product.ErrDuplicateProduct
		}
	}
	m.items = append(m.items, *p)
	return nil
}

func (m *memProducts) Update(_ context.Context, p *product.Product) error {
	for i := range m.items {
		if m.items[i].ID == p.ID {
			m.items[i] = *p
			return nil
		}
	}
	return product.ErrNotFound
}

type memCarts struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

func (m *memCarts) Load(_ context.Context, sessionID string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.carts[sessionID]
	c.Items = slices.Clone(c.Items)
	return &c, nil
}

func (m *memCarts) Save(_ context.Context, sessionID string, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = cart.Cart{Items: slices.Clone(c.Items), CouponCode: c.CouponCode}
	return nil
}

func (m *memCarts) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

type memCoupons struct {
	byCode map[string]coupon.Coupon
}

func (m *memCoupons) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.byCode[coupon.Canonical(code)]
	if !ok {
		return nil, coupon.ErrCouponNotFound
	}
	return &c, nil
}

func (m *memCoupons) List(_ context.Context) ([]coupon.Coupon, error) {
	var out []coupon.Coupon
	for _, c := range m.byCode {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCoupons) Create(_ context.Context, c *coupon.Coupon) error {
	if _, ok := m.byCode[c.Code]; ok {
		return coupon.ErrDuplicateCouponCode
	}
	m.byCode[c.Code] = *c
	return nil
}

func (m *memCoupons) Update(_ context.Context, code string, c *coupon.Coupon) error {
	if _, ok := m.byCode[code]; !ok {
		return coupon.ErrCouponNotFound
	}
	delete(m.byCode, code)
	m.byCode[c.Code] = *c
	return nil
}

func (m *memCoupons) Delete(_ context.Context, code string) error {
	if _, ok := m.byCode[code]; !ok {
		return coupon.ErrCouponNotFound
	}
	delete(m.byCode, code)
	return nil
}

func (m *memCoupons) IncrementUsage(_ context.Context, code string) error {
	c, ok := m.byCode[code]
	if !ok {
		return coupon.ErrCouponNotFound
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return coupon.ErrCouponLimitReached
	}
	c.UsageCount++
	m.byCode[code] = c
	return nil
}

type memOrders struct {
	byID map[string]*order.Order
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	m.byID[o.ID] = o.Clone()
	return nil
}

func (m *memOrders) Get(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

func (m *memOrders) ListByOwner(_ context.Context, ownerID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.byID {
		if o.OwnerID == ownerID {
			out = append(out, *o.Clone())
		}
	}
	return out, nil
}

func (m *memOrders) List(_ context.Context, status order.Status) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.byID {
		if status == "" || o.Status == status {
			out = append(out, *o.Clone())
		}
	}
	slices.SortFunc(out, func(a, b order.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *memOrders) Update(_ context.Context, o *order.Order, expectedVersion int) error {
	cur, ok := m.byID[o.ID]
	if !ok {
		return order.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return order.ErrConcurrentUpdate
	}
	m.byID[o.ID] = o.Clone()
	return nil
}

type memAddresses struct {
	byOwner map[string][]address.Address
}

func (m *memAddresses) ListByOwner(_ context.Context, ownerID string) ([]address.Address, error) {
	return slices.Clone(m.byOwner[ownerID]), nil
}

func (m *memAddresses) Modify(
	_ context.Context,
	ownerID string,
	fn func([]address.Address) ([]address.Address, error),
) ([]address.Address, error) {
	list, err := fn(slices.Clone(m.byOwner[ownerID]))
	if err != nil {
		return nil, err
	}
	m.byOwner[ownerID] = slices.Clone(list)
	return list, nil
}
