package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lumenis/storefront/internal/domain/fault"
	"github.com/lumenis/storefront/internal/domain/money"
)

// Changes lists the fields of a product an edit replaces. Nil fields are kept.
type Changes struct {
	Name        *string
	Price       *decimal.Decimal
	Category    *string
	Description *string
	ImageURL    *string
	Active      *bool
}

func (c Changes) apply(p *Product) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.Category != nil {
		p.Category = *c.Category
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.ImageURL != nil {
		p.ImageURL = *c.ImageURL
	}
	if c.Active != nil {
		p.Active = *c.Active
	}
}

// AdminService implements catalog administration. Products are never
// deleted, only deactivated, so orders keep resolving their lines.
type AdminService struct {
	store Store
	newID func() string
}

// NewAdminService creates an AdminService backed by store.
func NewAdminService(store Store) *AdminService {
	return &AdminService{
		store: store,
		newID: func() string { return uuid.New().String() },
	}
}

// Create adds p to the catalog. An empty ID is generated.
func (s *AdminService) Create(ctx context.Context, p Product) (*Product, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = s.newID()
	}
	if err := normalize(&p); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, &p); err != nil {
		if errors.Is(err, ErrDuplicateProduct) {
			return nil, ErrDuplicateProduct
		}
		return nil, fault.Unavailable(err, "create product")
	}
	return &p, nil
}

// Update applies changes to the product stored under id.
func (s *AdminService) Update(ctx context.Context, id string, changes Changes) (*Product, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	changes.apply(p)
	if err := normalize(p); err != nil {
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate hides the product from the storefront. Deactivating an inactive
// product succeeds.
func (s *AdminService) Deactivate(ctx context.Context, id string) (*Product, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return p, nil
	}
	p.Active = false
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *AdminService) get(ctx context.Context, id string) (*Product, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fault.Unavailable(err, "get product")
	}
	return p, nil
}

func (s *AdminService) save(ctx context.Context, p *Product) error {
	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fault.Unavailable(err, "update product")
	}
	return nil
}

// normalize trims text fields and rounds the price to cents.
func normalize(p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	if p.Name == "" || p.Price.IsNegative() {
		return ErrInvalidProduct
	}
	p.Price = money.Round(p.Price)
	return nil
}
