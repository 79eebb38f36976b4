//go:build integration

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/lumenis/storefront/internal/domain/product"
	"github.com/lumenis/storefront/internal/storage/postgres"
	"github.com/lumenis/storefront/internal/storage/redis"
	"github.com/lumenis/storefront/pkg/health"
)

// --- Helpers ---

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, ctr)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	mapped, err := ctr.MappedPort(ctx, port)
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

// newServer starts Postgres and Redis containers and serves the full API
// stack over them.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pgAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "lumenis",
			"POSTGRES_PASSWORD": "lumenis",
			"POSTGRES_DB":       "lumenis",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}, "5432/tcp")
	redisAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
	}, "6379/tcp")

	cfg := &Config{
		DatabaseURL: fmt.Sprintf("postgres://lumenis:lumenis@%s/lumenis?sslmode=disable", pgAddr),
		Redis:       RedisConfig{URL: "redis://" + redisAddr + "/0", CartTTL: time.Hour},
		Pricing:     PricingConfig{ShippingCost: "10.00"},
		RateLimit:   RateLimitConfig{Max: 1000, Window: time.Minute},
		CORS:        CORSConfig{Origins: []string{"*"}},
	}
	shipping, err := cfg.ShippingCost()
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.RunMigrations(ctx, pool))

	require.NoError(t, postgres.NewProductRepository(pool).Upsert(ctx, []product.Product{
		{ID: "p1", Name: "Candle", Price: decimal.RequireFromString("25.00"), Category: "Home", Active: true},
		{ID: "p2", Name: "Lamp", Price: decimal.RequireFromString("50.00"), Category: "Lighting", Active: true},
		{ID: "p3", Name: "Retired", Price: decimal.RequireFromString("5.00"), Category: "Home", Active: false},
	}))

	rdb, err := redis.NewClient(ctx, cfg.Redis.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	hs := health.New()
	hs.AddReadinessCheck("postgres", time.Second, health.PingCheck("postgres", pool))
	hs.SetReady(true)

	h, err := newHandler(ctx, cfg, shipping, pool, rdb, hs, noopTelemetry{})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	code, raw := send(t, srv, method, path, body)
	if len(raw) == 0 {
		return code, nil
	}
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return code, out
}

func callList(t *testing.T, srv *httptest.Server, path string) (int, []map[string]any) {
	t.Helper()
	code, raw := send(t, srv, http.MethodGet, path, "")
	var out []map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return code, out
}

func send(t *testing.T, srv *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func totals(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	tot, ok := body["totals"].(map[string]any)
	require.True(t, ok, "totals missing: %v", body)
	return tot
}

// --- Tests ---

func TestStorefront_EndToEnd(t *testing.T) {
	srv := newServer(t)

	code, body := call(t, srv, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = call(t, srv, http.MethodPost, "/api/coupons",
		`{"code":"welcome10","kind":"percentage","value":10,"expiresAt":"2099-01-01T00:00:00Z","usageLimit":1}`)
	require.Equal(t, http.StatusCreated, code)

	// Cart: 2 x 25 + 1 x 50, then WELCOME10.
	code, _ = call(t, srv, http.MethodPost, "/api/carts/s1/items", `{"productId":"p1","quantity":2}`)
	require.Equal(t, http.StatusOK, code)
	code, body = call(t, srv, http.MethodPost, "/api/carts/s1/items", `{"productId":"p2","quantity":1}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 110.0, totals(t, body)["total"])

	code, body = call(t, srv, http.MethodPut, "/api/carts/s1/coupon", `{"code":"Welcome10"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "WELCOME10", body["couponCode"])
	assert.Equal(t, 11.0, totals(t, body)["discount"])
	assert.Equal(t, 99.0, totals(t, body)["total"])

	code, body = call(t, srv, http.MethodPost, "/api/carts/s1/items", `{"productId":"p3","quantity":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "product_unavailable", body["reason"])

	// Address and checkout.
	code, addr := call(t, srv, http.MethodPost, "/api/users/u1/addresses",
		`{"street":"Rua XV","number":"10","neighborhood":"Centro","city":"Curitiba","state":"PR","zipCode":"80020-310"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, addr["isMain"])

	code, placed := call(t, srv, http.MethodPost, "/api/orders",
		fmt.Sprintf(`{"sessionId":"s1","ownerId":"u1","addressId":"%s","paymentMethod":"pix"}`, addr["id"]))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "pending", placed["status"])
	assert.Equal(t, 99.0, placed["total"])
	orderID := placed["id"].(string)

	code, body = call(t, srv, http.MethodGet, "/api/carts/s1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, totals(t, body)["total"])

	// Payment approves the order and uses up the coupon.
	code, body = call(t, srv, http.MethodPost, "/api/orders/"+orderID+"/payment", `{"transactionId":"tx-1"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "approved", body["status"])
	assert.Equal(t, "approved", body["paymentStatus"])

	code, body = call(t, srv, http.MethodPost, "/api/coupons/validate", `{"code":"WELCOME10"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "coupon_limit_reached", body["reason"])

	code, body = call(t, srv, http.MethodPut, "/api/orders/"+orderID+"/status", `{"status":"shipped"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "shipped", body["status"])

	code, body = call(t, srv, http.MethodPost, "/api/orders/"+orderID+"/cancel", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_cancellation", body["reason"])

	code, orders := callList(t, srv, "/api/users/u1/orders")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0]["id"])

	code, shipped := callList(t, srv, "/api/orders?status=shipped")
	require.Equal(t, http.StatusOK, code)
	var ids []any
	for _, o := range shipped {
		ids = append(ids, o["id"])
	}
	assert.Contains(t, ids, orderID)
}

func TestStorefront_CheckoutErrors(t *testing.T) {
	srv := newServer(t)

	code, body := call(t, srv, http.MethodPost, "/api/orders",
		`{"sessionId":"empty","ownerId":"u1","addressId":"a1","paymentMethod":"pix"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "empty_cart", body["reason"])

	code, _ = call(t, srv, http.MethodGet, "/api/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = call(t, srv, http.MethodGet, "/api/products/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "product_not_found", body["reason"])

	code, products := callList(t, srv, "/api/products")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, products, 2)
}
