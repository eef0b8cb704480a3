package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/yourchoice-store/internal/domain/order"
)

// Catalog sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Cart stores.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	Catalog      CatalogConfig
	Cart         CartConfig
	Session      SessionConfig
	Checkout     CheckoutConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// CatalogConfig selects where the product dataset is read from.
type CatalogConfig struct {
	Source        string `default:"file" usage:"Product dataset source: file or postgres"`
	File          string `default:"db/seed/products.json" usage:"Product dataset file (.json or .json.gz)"`
	FeaturedCount int    `default:"4" usage:"Products per featured list"`
}

// CartConfig selects the cart snapshot store.
type CartConfig struct {
	Store    string        `default:"memory" usage:"Cart snapshot store: memory, redis or postgres"`
	RedisURL string        `default:"redis://localhost:6379/0" usage:"Redis URL for the redis cart store" flag:"redis-url"`
	TTL      time.Duration `default:"720h" usage:"Redis cart snapshot expiry, zero keeps forever"`
	Idle     time.Duration `default:"30m" usage:"Evict in-memory carts unused for this long, zero keeps them"`
}

// SessionConfig controls the cart session cookie.
type SessionConfig struct {
	Secret     string        `usage:"Cookie signing secret, at least 32 bytes; random per process when empty"`
	CookieName string        `default:"yc_session" usage:"Session cookie name"`
	MaxAge     time.Duration `default:"720h" usage:"Session cookie lifetime"`
	Secure     bool          `default:"false" usage:"Send the session cookie over HTTPS only"`
}

// CheckoutConfig holds the pricing rules and checkout throttling.
type CheckoutConfig struct {
	FreeShippingThreshold int64  `default:"2000" usage:"Subtotal above which shipping is free"`
	ShippingFee           int64  `default:"99" usage:"Shipping charge below the threshold"`
	TaxRate               string `default:"0.05" usage:"Tax rate applied to the subtotal"`
	RateLimit             RateLimitConfig
}

// RateLimitConfig controls the per-session checkout throttle.
type RateLimitConfig struct {
	Max    int           `default:"10" usage:"Max checkout requests per window, zero disables"`
	Window time.Duration `default:"1m" usage:"Checkout throttle window"`
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

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/yourchoice/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

// NeedsPostgres reports whether a component is configured to use PostgreSQL.
// Orders are stored in PostgreSQL whenever a database is configured.
func (c *Config) NeedsPostgres() bool {
	return c.DatabaseURL != "" ||
		c.Catalog.Source == SourcePostgres ||
		c.Cart.Store == StorePostgres
}

func (c *Config) validate() error {
	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.File == "" {
			return errors.New("catalog file is required for the file source")
		}
	case SourcePostgres:
	default:
		return errors.Errorf("unknown catalog source %q", c.Catalog.Source)
	}

	switch c.Cart.Store {
	case StoreMemory, StorePostgres:
	case StoreRedis:
		if c.Cart.RedisURL == "" {
			return errors.New("redis URL is required for the redis cart store")
		}
	default:
		return errors.Errorf("unknown cart store %q", c.Cart.Store)
	}

	if c.NeedsPostgres() && c.DatabaseURL == "" {
		return errors.New("database URL is required: set STORE_DATABASE_URL or DATABASE_URL")
	}
	if s := c.Session.Secret; s != "" && len(s) < 32 {
		return errors.New("session secret must be at least 32 bytes")
	}
	if _, err := c.Checkout.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy returns the checkout pricing rules.
func (c CheckoutConfig) Policy() (order.Policy, error) {
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return order.Policy{}, errors.Wrapf(err, "parse tax rate %q", c.TaxRate)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return order.Policy{}, errors.Errorf("tax rate %s must be within [0,1)", rate)
	}
	if c.FreeShippingThreshold < 0 || c.ShippingFee < 0 {
		return order.Policy{}, errors.New("shipping amounts must not be negative")
	}
	return order.Policy{
		FreeShippingThreshold: c.FreeShippingThreshold,
		ShippingFee:           c.ShippingFee,
		TaxRate:               rate,
	}, nil
}
