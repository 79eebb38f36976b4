package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lumenis/storefront/internal/domain/coupon"
)

const bloomFPR = 0.001

// fileBatch is the parsed content of one file. Coupons holds the first
// definition of each code within the file; codes is its exact code set and
// filter a bloom filter over the same set.
type fileBatch struct {
	path    string
	coupons []coupon.Coupon
	dupes   int
	codes   map[string]struct{}
	filter  *bloom.BloomFilter
}

func (b *fileBatch) contains(code string) bool {
	_, ok := b.codes[code]
	return ok
}

// newBatch dedupes coupons within one file and indexes their codes.
func newBatch(path string, coupons []coupon.Coupon) *fileBatch {
	b := &fileBatch{
		path:   path,
		codes:  make(map[string]struct{}, len(coupons)),
		filter: bloom.NewWithEstimates(uint(max(len(coupons), 1)), bloomFPR),
	}
	for _, c := range coupons {
		if b.contains(c.Code) {
			b.dupes++
			continue
		}
		b.codes[c.Code] = struct{}{}
		b.filter.AddString(c.Code)
		b.coupons = append(b.coupons, c)
	}
	return b
}

// readAll parses and indexes every file concurrently. The result keeps the
// file order.
func readAll(ctx context.Context, files []string) ([]*fileBatch, error) {
	out := make([]*fileBatch, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			coupons, err := readFile(ctx, path)
			if err != nil {
				return err
			}
			out[i] = newBatch(path, coupons)
			slog.Info("file indexed",
				slog.String("path", path),
				slog.Int("coupons", len(out[i].coupons)),
				slog.Int("duplicates", out[i].dupes),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func readFile(ctx context.Context, path string) ([]coupon.Coupon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	coupons, err := parseCSV(ctx, gz)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return coupons, nil
}

// parseCSV reads code,kind,value,expires_at[,usage_limit] rows. Blank lines
// and lines starting with '#' are ignored.
func parseCSV(ctx context.Context, r io.Reader) ([]coupon.Coupon, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var coupons []coupon.Coupon
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return coupons, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		c, err := parseRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		coupons = append(coupons, c)
	}
}

func parseRecord(rec []string) (coupon.Coupon, error) {
	if len(rec) < 4 || len(rec) > 5 {
		return coupon.Coupon{}, errors.Errorf("want 4 or 5 fields, got %d", len(rec))
	}
	c := coupon.Coupon{
		Code:   coupon.Canonical(rec[0]),
		Kind:   coupon.Kind(strings.ToLower(strings.TrimSpace(rec[1]))),
		Active: true,
	}
	if c.Code == "" {
		return coupon.Coupon{}, errors.New("empty code")
	}
	if !c.Kind.Valid() {
		return coupon.Coupon{}, errors.Errorf("unknown kind %q", rec[1])
	}

	value, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
	if err != nil {
		return coupon.Coupon{}, errors.Wrap(err, "parse value")
	}
	c.Value = value

	expires, err := time.Parse(time.RFC3339, strings.TrimSpace(rec[3]))
	if err != nil {
		return coupon.Coupon{}, errors.Wrap(err, "parse expires_at")
	}
	c.ExpiresAt = expires

	if len(rec) == 5 && strings.TrimSpace(rec[4]) != "" {
		limit, err := strconv.Atoi(strings.TrimSpace(rec[4]))
		if err != nil {
			return coupon.Coupon{}, errors.Wrap(err, "parse usage_limit")
		}
		c.UsageLimit = &limit
	}
	return c, nil
}

// dedupeStats reports how dedupe resolved codes across files.
type dedupeStats struct {
	// Duplicates counts dropped definitions, within and across files.
	Duplicates int
	// Lookups counts exact set lookups made after a filter hit.
	Lookups int
	// FalsePositives counts filter hits the exact set did not confirm.
	FalsePositives int
}

// dedupe flattens the batches keeping the first definition of each code.
// A code is looked up in an earlier file's exact set only when that file's
// filter reports it.
func dedupe(batches []*fileBatch) ([]coupon.Coupon, dedupeStats) {
	var (
		out   []coupon.Coupon
		stats dedupeStats
	)
	for i, b := range batches {
		stats.Duplicates += b.dupes
		for _, c := range b.coupons {
			if seenBefore(batches[:i], c.Code, &stats) {
				stats.Duplicates++
				continue
			}
			out = append(out, c)
		}
	}
	return out, stats
}

func seenBefore(earlier []*fileBatch, code string, stats *dedupeStats) bool {
	for _, prev := range earlier {
		if !prev.filter.TestString(code) {
			continue
		}
		stats.Lookups++
		if prev.contains(code) {
			return true
		}
		stats.FalsePositives++
	}
	return false
}
