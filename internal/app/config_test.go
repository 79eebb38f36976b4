package app

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Addr:        defaultAddr,
		DatabaseURL: "postgres://localhost/lumenis",
		Redis:       RedisConfig{URL: "redis://localhost:6379/0"},
		Pricing:     PricingConfig{ShippingCost: "10.00"},
	}
}

func TestConfig_PlatformDefaults(t *testing.T) {
	env := map[string]string{
		"DATABASE_URL": "postgres://platform/db",
		"REDIS_URL":    "redis://platform:6379",
		"PORT":         "9000",
	}
	getenv := func(k string) string { return env[k] }

	var cfg Config
	cfg.Addr = defaultAddr
	cfg.applyPlatformDefaults(getenv)
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "redis://platform:6379", cfg.Redis.URL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)

	explicit := validConfig()
	explicit.Addr = "127.0.0.1:7000"
	explicit.applyPlatformDefaults(getenv)
	assert.Equal(t, "postgres://localhost/lumenis", explicit.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", explicit.Redis.URL)
	assert.Equal(t, "127.0.0.1:7000", explicit.Addr)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "database URL is required"},
		{name: "no redis", mutate: func(c *Config) { c.Redis.URL = "" }, wantErr: "redis URL is required"},
		{name: "bad shipping", mutate: func(c *Config) { c.Pricing.ShippingCost = "ten" }, wantErr: "parse shipping cost"},
		{name: "negative shipping", mutate: func(c *Config) { c.Pricing.ShippingCost = "-1" }, wantErr: "is negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ShippingCost(t *testing.T) {
	cfg := validConfig()
	cfg.Pricing.ShippingCost = "4.50"
	cost, err := cfg.ShippingCost()
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.RequireFromString("4.5")))
}
