// Package redis stores shopping carts in Redis, one msgpack-encoded value
// per session with a sliding expiry.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lumenis/storefront/internal/domain/cart"
)

const (
	cartKeyPrefix = "cart:"

	// DefaultCartTTL is how long an untouched cart survives.
	DefaultCartTTL = 7 * 24 * time.Hour
)

type cartRecord struct {
	Items  []lineRecord `msgpack:"items"`
	Coupon string       `msgpack:"coupon,omitempty"`
}

type lineRecord struct {
	ProductID string `msgpack:"product_id"`
	Name      string `msgpack:"name"`
	// UnitPrice is kept as a decimal string to avoid float rounding.
	UnitPrice string `msgpack:"unit_price"`
	Quantity  int    `msgpack:"quantity"`
}

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store on a Redis client.
type CartStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewCartStore returns a CartStore. A non-positive ttl selects DefaultCartTTL.
func NewCartStore(client goredis.UniversalClient, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &CartStore{client: client, ttl: ttl}
}

// Load returns the session's cart and extends its expiry. A missing key
// yields an empty cart.
func (s *CartStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	raw, err := s.client.GetEx(ctx, cartKeyPrefix+sessionID, s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return &cart.Cart{}, nil
		}
		return nil, fmt.Errorf("loading cart %q: %w", sessionID, err)
	}

	var rec cartRecord
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding cart %q: %w", sessionID, err)
	}
	return rec.toCart()
}

// Save stores the cart and resets its expiry.
func (s *CartStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	raw, err := msgpack.Marshal(newCartRecord(c))
	if err != nil {
		return fmt.Errorf("encoding cart %q: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+sessionID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving cart %q: %w", sessionID, err)
	}
	return nil
}

// Delete removes the session's cart.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("deleting cart %q: %w", sessionID, err)
	}
	return nil
}

// Ping checks that Redis answers.
func (s *CartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// NewClient connects to the Redis server at url and verifies the connection.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

func newCartRecord(c *cart.Cart) cartRecord {
	rec := cartRecord{
		Items:  make([]lineRecord, len(c.Items)),
		Coupon: c.CouponCode,
	}
	for i, l := range c.Items {
		rec.Items[i] = lineRecord{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice.String(),
			Quantity:  l.Quantity,
		}
	}
	return rec
}

func (r cartRecord) toCart() (*cart.Cart, error) {
	c := &cart.Cart{CouponCode: r.Coupon}
	for _, l := range r.Items {
		price, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("parsing price of %q: %w", l.ProductID, err)
		}
		c.Items = append(c.Items, cart.LineItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: price,
			Quantity:  l.Quantity,
		})
	}
	return c, nil
}
