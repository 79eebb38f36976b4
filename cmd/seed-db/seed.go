package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/domain/product"
)

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Active      *bool           `json:"active"`
}

// readProducts decodes a JSON array of products from path, decompressing it
// first when the name ends in .gz. Products are active unless stated.
func readProducts(path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return decodeProducts(r)
}

func decodeProducts(r io.Reader) ([]product.Product, error) {
	var raw []productJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	products := make([]product.Product, 0, len(raw))
	for _, p := range raw {
		if p.ID == "" || p.Name == "" {
			return nil, errors.Errorf("product %q: id and name are required", p.ID)
		}
		if p.Price.IsNegative() {
			return nil, errors.Errorf("product %q: negative price", p.ID)
		}
		active := true
		if p.Active != nil {
			active = *p.Active
		}
		products = append(products, product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Category:    p.Category,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			Active:      active,
		})
	}
	return products, nil
}

func defaultCoupons(expiresAt time.Time) []coupon.Coupon {
	return []coupon.Coupon{
		{
			Code:      "WELCOME10",
			Kind:      coupon.KindPercentage,
			Value:     decimal.NewFromInt(10),
			Active:    true,
			ExpiresAt: expiresAt,
		},
		{
			Code:      "FREESHIP",
			Kind:      coupon.KindFixed,
			Value:     decimal.NewFromInt(10),
			Active:    true,
			ExpiresAt: expiresAt,
		},
	}
}

type couponCreator interface {
	Create(ctx context.Context, c coupon.Coupon) (*coupon.Coupon, error)
}

// seedCoupons creates coupons, leaving existing codes untouched.
func seedCoupons(ctx context.Context, admin couponCreator, coupons []coupon.Coupon) error {
	for _, c := range coupons {
		if _, err := admin.Create(ctx, c); err != nil {
			if errors.Is(err, coupon.ErrDuplicateCouponCode) {
				slog.Info("coupon exists, skipping", slog.String("code", c.Code))
				continue
			}
			return errors.Wrapf(err, "create coupon %s", c.Code)
		}
		slog.Info("created coupon", slog.String("code", c.Code), slog.String("kind", string(c.Kind)))
	}
	return nil
}
