// Command seed-db applies the schema, loads the product catalog and creates
// the default coupons.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"

	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		productsFile string
		couponTTL    time.Duration
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "products JSON file, optionally gzipped (.gz)")
	flag.DurationVar(&couponTTL, "coupon-ttl", 365*24*time.Hour, "lifetime of the default coupons")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, couponTTL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string, couponTTL time.Duration) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products, err := readProducts(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products")
	}
	slog.Info("upserting products", slog.Int("count", len(products)))
	if err := postgres.NewProductRepository(pool).Upsert(ctx, products); err != nil {
		return errors.Wrap(err, "upsert products")
	}

	admin := coupon.NewAdminService(postgres.NewCouponRepository(pool))
	if err := seedCoupons(ctx, admin, defaultCoupons(time.Now().Add(couponTTL))); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}
