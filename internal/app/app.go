// Package app wires configuration, storage, domain services and the HTTP
// server of the storefront API.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lumenis/storefront/internal/domain/address"
	"github.com/lumenis/storefront/internal/domain/cart"
	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/domain/order"
	"github.com/lumenis/storefront/internal/domain/payment"
	"github.com/lumenis/storefront/internal/domain/product"
	"github.com/lumenis/storefront/internal/handler"
	"github.com/lumenis/storefront/internal/storage/postgres"
	"github.com/lumenis/storefront/internal/storage/redis"
	"github.com/lumenis/storefront/pkg/health"
	"github.com/lumenis/storefront/pkg/httpmiddleware"
)

const meterName = "github.com/lumenis/storefront"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	shipping, err := cfg.ShippingCost()
	if err != nil {
		return err
	}

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Redis cart sessions.
	rdb, err := redis.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		return errors.Wrap(err, "create redis client")
	}
	defer func() { _ = rdb.Close() }()

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck("postgres", pool))
	healthSvc.AddReadinessCheck("redis", 2*time.Second, health.PingCheck("redis", redis.NewCartStore(rdb, 0)))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	apiHandler, err := newHandler(ctx, cfg, shipping, pool, rdb, healthSvc, m)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           apiHandler,
	}
	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newHandler builds the repositories, services and the middleware-wrapped
// HTTP handler on top of the storage clients.
func newHandler(
	ctx context.Context,
	cfg *Config,
	shipping decimal.Decimal,
	pool *pgxpool.Pool,
	rdb goredis.UniversalClient,
	healthSvc *health.Health,
	tp httpmiddleware.TelemetryProvider,
) (http.Handler, error) {
	productRepo := postgres.NewProductRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	addressRepo := postgres.NewAddressRepository(pool)
	cartStore := redis.NewCartStore(rdb, cfg.Redis.CartTTL)

	coupons := coupon.NewResolver(couponRepo)
	carts := cart.NewService(cartStore, productRepo, coupons, shipping)
	addresses := address.NewService(addressRepo)
	orders, err := order.NewService(carts, addresses, productRepo, coupons, orderRepo, shipping,
		tp.MeterProvider().Meter(meterName),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	h := handler.NewHandler(handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL}, handler.Services{
		Products:  productRepo,
		Catalog:   product.NewAdminService(productRepo),
		Carts:     carts,
		Coupons:   coupons,
		Admin:     coupon.NewAdminService(couponRepo),
		Orders:    orders,
		Payments:  payment.NewConfirmer(orders, couponRepo),
		Addresses: addresses,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.HeaderRequestID},
			ExposeHeaders:    []string{httpmiddleware.HeaderRequestID},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument("lumenis-api", routeFinder, tp),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
	), nil
}
