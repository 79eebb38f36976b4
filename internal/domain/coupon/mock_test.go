package coupon

import (
	"context"
)

type mockCouponRepo struct {
	byCode      map[string]*Coupon
	findErr     error
	writeErr    error
	createCalls int
	updatedCode string
	deletedCode string
	incremented []string
}

func newMockRepo(coupons ...Coupon) *mockCouponRepo {
	m := &mockCouponRepo{byCode: make(map[string]*Coupon)}
	for i := range coupons {
		m.byCode[coupons[i].Code] = &coupons[i]
	}
	return m
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*Coupon, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.byCode[code]
	if !ok {
		return nil, ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCouponRepo) List(_ context.Context) ([]Coupon, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := make([]Coupon, 0, len(m.byCode))
	for _, c := range m.byCode {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCouponRepo) Create(_ context.Context, c *Coupon) error {
	m.createCalls++
	if m.writeErr != nil {
		return m.writeErr
	}
	cp := *c
	m.byCode[c.Code] = &cp
	return nil
}

func (m *mockCouponRepo) Update(_ context.Context, code string, c *Coupon) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.updatedCode = code
	delete(m.byCode, code)
	cp := *c
	m.byCode[c.Code] = &cp
	return nil
}

func (m *mockCouponRepo) Delete(_ context.Context, code string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.deletedCode = code
	delete(m.byCode, code)
	return nil
}

func (m *mockCouponRepo) IncrementUsage(_ context.Context, code string) error {
	m.incremented = append(m.incremented, code)
	return m.writeErr
}
