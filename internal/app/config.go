package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const defaultAddr = "0.0.0.0:8080"

// Config is loaded from LUMENIS_* environment variables, flags and YAML files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (LUMENIS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL prepended to product image paths" flag:"image-base-url"`
	Redis        RedisConfig
	Pricing      PricingConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// RedisConfig locates the cart session store.
type RedisConfig struct {
	URL     string        `usage:"Redis URL for cart sessions (LUMENIS_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	CartTTL time.Duration `default:"168h" usage:"Idle lifetime of a cart session" flag:"cart-ttl"`
}

// PricingConfig holds the pricing constants.
type PricingConfig struct {
	ShippingCost string `default:"10.00" usage:"Flat shipping fee charged on non-empty carts" flag:"shipping-cost"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads and validates the configuration.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "LUMENIS",
		Files:     []string{"config.yaml", "/etc/lumenis/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(os.Getenv)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set LUMENIS_DATABASE_URL or DATABASE_URL")
	}
	if c.Redis.URL == "" {
		return errors.New("redis URL is required: set LUMENIS_REDIS_URL or REDIS_URL")
	}
	cost, err := c.ShippingCost()
	if err != nil {
		return err
	}
	if cost.IsNegative() {
		return errors.Errorf("shipping cost %s is negative", cost)
	}
	return nil
}

// ShippingCost parses the configured flat shipping fee.
func (c *Config) ShippingCost() (decimal.Decimal, error) {
	cost, err := decimal.NewFromString(c.Pricing.ShippingCost)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse shipping cost %q", c.Pricing.ShippingCost)
	}
	return cost, nil
}

// applyPlatformDefaults maps the unprefixed variables that hosting platforms
// set (DATABASE_URL, REDIS_URL, PORT) onto the configuration.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.Redis.URL == "" {
		c.Redis.URL = getenv("REDIS_URL")
	}
	if port := getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
