package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog operations.
var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicateProduct is returned when creating a product whose ID is taken.
	ErrDuplicateProduct = errors.New("product already exists")
	// ErrInvalidProduct is returned for a blank name or a negative price.
	ErrInvalidProduct = errors.New("product needs a name and a non-negative price")
)

// Product represents a personalised item in the storefront catalog.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Category    string
	Description string
	ImageURL    string
	Active      bool
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// Store extends Repository with the catalog administration writes.
type Store interface {
	Repository
	// Create inserts p, returning ErrDuplicateProduct when its ID is taken.
	Create(ctx context.Context, p *Product) error
	// Update replaces the stored product with the same ID, returning
	// ErrNotFound when there is none.
	Update(ctx context.Context, p *Product) error
}
