// Command coupon-ingest imports coupon definitions from gzipped CSV files.
//
// Each line is code,kind,value,expires_at[,usage_limit] with expires_at in
// RFC 3339. Files are parsed concurrently; a code seen in more than one file
// is imported once, from the first file that lists it. Codes that already
// exist in the database are skipped.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/storage/postgres"
)

func main() {
	var (
		pattern     string
		databaseURL string
		dryRun      bool
	)

	flag.StringVar(&pattern, "files", "data/coupons*.csv.gz", "glob of gzipped CSV coupon files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and de-duplicate without writing")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, pattern, databaseURL, dryRun); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, pattern, databaseURL string, dryRun bool) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return errors.Wrapf(err, "glob %s", pattern)
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %s", pattern)
	}

	slog.Info("reading coupon files", slog.Int("files", len(files)))
	batches, err := readAll(ctx, files)
	if err != nil {
		return errors.Wrap(err, "read coupon files")
	}

	coupons, stats := dedupe(batches)
	slog.Info("coupons parsed",
		slog.Int("unique", len(coupons)),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("exact_lookups", stats.Lookups),
		slog.Int("false_positives", stats.FalsePositives),
	)
	if dryRun {
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	admin := coupon.NewAdminService(postgres.NewCouponRepository(pool))
	return writeCoupons(ctx, admin, coupons)
}

type couponCreator interface {
	Create(ctx context.Context, c coupon.Coupon) (*coupon.Coupon, error)
}

// writeCoupons creates every coupon, skipping codes that already exist.
func writeCoupons(ctx context.Context, admin couponCreator, coupons []coupon.Coupon) error {
	var created, skipped int
	for i, c := range coupons {
		if _, err := admin.Create(ctx, c); err != nil {
			if !errors.Is(err, coupon.ErrDuplicateCouponCode) {
				return errors.Wrapf(err, "create coupon %s", c.Code)
			}
			skipped++
		} else {
			created++
		}

		if (i+1)%1000 == 0 || i+1 == len(coupons) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(coupons)))
		}
	}

	slog.Info("coupons written", slog.Int("created", created), slog.Int("skipped", skipped))
	return nil
}
