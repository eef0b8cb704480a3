package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromEnv(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	for k, v := range env {
		t.Setenv(k, v)
	}
	return loadConfig(aconfig.Config{
		EnvPrefix: "STORE",
		SkipFiles: true,
		SkipFlags: true,
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadFromEnv(t, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, SourceFile, cfg.Catalog.Source)
	assert.Equal(t, StoreMemory, cfg.Cart.Store)
	assert.Equal(t, 30*time.Minute, cfg.Cart.Idle)
	assert.False(t, cfg.NeedsPostgres())

	policy, err := cfg.Checkout.Policy()
	require.NoError(t, err)
	assert.Equal(t, int64(2000), policy.FreeShippingThreshold)
	assert.Equal(t, int64(99), policy.ShippingFee)
	assert.Equal(t, "0.05", policy.TaxRate.String())
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	cfg, err := loadFromEnv(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/store",
		"PORT":         "9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "postgres://localhost/store", cfg.DatabaseURL)
	assert.True(t, cfg.NeedsPostgres())
}

func TestLoadConfig_PostgresStoreNeedsDatabase(t *testing.T) {
	_, err := loadFromEnv(t, map[string]string{"STORE_CART_STORE": "postgres"})
	require.ErrorContains(t, err, "database URL is required")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Catalog:  CatalogConfig{Source: SourceFile, File: "products.json"},
			Cart:     CartConfig{Store: StoreMemory},
			Checkout: CheckoutConfig{FreeShippingThreshold: 2000, ShippingFee: 99, TaxRate: "0.05"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown source", func(c *Config) { c.Catalog.Source = "s3" }, `unknown catalog source "s3"`},
		{"missing file", func(c *Config) { c.Catalog.File = "" }, "catalog file is required"},
		{"unknown store", func(c *Config) { c.Cart.Store = "disk" }, `unknown cart store "disk"`},
		{"redis without url", func(c *Config) { c.Cart.Store = StoreRedis }, "redis URL is required"},
		{"postgres catalog without db", func(c *Config) { c.Catalog.Source = SourcePostgres }, "database URL is required"},
		{"short secret", func(c *Config) { c.Session.Secret = "hunter2" }, "at least 32 bytes"},
		{"bad tax rate", func(c *Config) { c.Checkout.TaxRate = "five" }, `parse tax rate "five"`},
		{"tax rate out of range", func(c *Config) { c.Checkout.TaxRate = "1.2" }, "must be within [0,1)"},
		{"negative fee", func(c *Config) { c.Checkout.ShippingFee = -1 }, "must not be negative"},
		{"postgres with db", func(c *Config) {
			c.Cart.Store = StorePostgres
			c.DatabaseURL = "postgres://db"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewSessionStore(t *testing.T) {
	store, err := newSessionStore(SessionConfig{MaxAge: time.Hour, Secure: true})
	require.NoError(t, err)
	assert.Equal(t, 3600, store.Options.MaxAge)
	assert.True(t, store.Options.HttpOnly)
	assert.True(t, store.Options.Secure)
}
