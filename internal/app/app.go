// Package app wires the storefront API server.
package app

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/yourchoice-store/internal/domain/analytics"
	"github.com/xenking/yourchoice-store/internal/domain/cart"
	"github.com/xenking/yourchoice-store/internal/domain/catalog"
	"github.com/xenking/yourchoice-store/internal/domain/order"
	"github.com/xenking/yourchoice-store/internal/domain/product"
	"github.com/xenking/yourchoice-store/internal/handler"
	"github.com/xenking/yourchoice-store/internal/storage/memory"
	"github.com/xenking/yourchoice-store/internal/storage/postgres"
	"github.com/xenking/yourchoice-store/internal/storage/redis"
	"github.com/xenking/yourchoice-store/pkg/health"
	"github.com/xenking/yourchoice-store/pkg/httpmiddleware"
)

const serviceName = "yourchoice-store"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("catalog", cfg.Catalog.Source),
		zap.String("cart_store", cfg.Cart.Store),
	)

	healthSvc := health.New()
	healthSvc.Liveness("goroutines", health.GoroutineLimit(10000))

	// PostgreSQL pool + migrations, only when some component needs them.
	var pool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		var err error
		pool, err = postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.Readiness("postgres", health.Ping(pool), health.WithTimeout(5*time.Second))
	}

	// Product dataset, loaded once.
	var products product.Repository = memory.NewProductFile(cfg.Catalog.File)
	if cfg.Catalog.Source == SourcePostgres {
		products = postgres.NewProductRepository(pool)
	}
	cat, err := catalog.Load(ctx, products)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	lg.Info("Catalog loaded", zap.Int("products", cat.Len()))
	healthSvc.Readiness("catalog", health.NonEmpty("catalog", cat.Len))

	store, closeStore, err := newCartStore(ctx, cfg.Cart, pool, healthSvc)
	if err != nil {
		return errors.Wrap(err, "create cart store")
	}
	defer func() {
		if err := closeStore.Close(); err != nil {
			lg.Warn("Close cart store", zap.Error(err))
		}
	}()

	// Analytics sinks.
	meterTracker, err := analytics.NewMeterTracker(m.MeterProvider().Meter(serviceName))
	if err != nil {
		return errors.Wrap(err, "create meter tracker")
	}
	events := analytics.NewDispatcher(
		analytics.NewLogTracker(lg.Named("analytics")),
		meterTracker,
		analytics.SpanTracker{},
	)

	// Checkout.
	policy, err := cfg.Checkout.Policy()
	if err != nil {
		return err
	}
	var orders order.Repository = memory.NewOrderRepository()
	if pool != nil {
		orders = postgres.NewOrderRepository(pool)
	}
	orderService := order.NewService(policy, orders, events)

	carts := cart.NewSessions(store, cat)

	// HTTP handlers.
	h := handler.New(handler.Config{
		ImageBaseURL:  cfg.ImageBaseURL,
		FeaturedCount: cfg.Catalog.FeaturedCount,
		Checkout: httpmiddleware.Throttle(ctx, httpmiddleware.ThrottleConfig{
			Max:    cfg.Checkout.RateLimit.Max,
			Window: cfg.Checkout.RateLimit.Window,
		}),
	}, cat, carts, orderService, events)
	router := h.Router()

	sessionStore, err := newSessionStore(cfg.Session)
	if err != nil {
		return errors.Wrap(err, "create session store")
	}
	if cfg.Session.Secret == "" {
		lg.Warn("Session secret not set, sessions will not survive a restart")
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newHTTPHandler(ctx, cfg, router, healthSvc, sessionStore, m),
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		carts.Run(gctx, cfg.Cart.Idle)
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	return g.Wait()
}

// newHTTPHandler puts the health endpoints and the API routes on one mux
// behind the middleware chain. Probes do not get a session cookie. A nil m
// disables instrumentation.
func newHTTPHandler(
	ctx context.Context,
	cfg *Config,
	router chi.Router,
	healthSvc *health.Health,
	sessionStore sessions.Store,
	m *app.Telemetry,
) http.Handler {
	routeFinder := httpmiddleware.MakeRouteFinder(router)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", httpmiddleware.Wrap(router,
		httpmiddleware.Session(sessionStore, cfg.Session.CookieName),
	))

	chain := []httpmiddleware.Middleware{
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
	}
	if m != nil {
		chain = append(chain,
			httpmiddleware.Instrument(serviceName, routeFinder, m),
			httpmiddleware.Labeler(routeFinder),
		)
	}
	chain = append(chain, httpmiddleware.LogRequests(routeFinder))
	return httpmiddleware.Wrap(mux, chain...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newCartStore builds the configured snapshot store and registers its
// readiness check.
func newCartStore(ctx context.Context, cfg CartConfig, pool *pgxpool.Pool, h *health.Health) (cart.Store, io.Closer, error) {
	switch cfg.Store {
	case StoreRedis:
		s, err := redis.New(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		h.Readiness("redis", health.Ping(s), health.WithTimeout(2*time.Second))
		return s, s, nil
	case StorePostgres:
		return postgres.NewCartStore(pool), nopCloser{}, nil
	default:
		return memory.NewCartStore(), nopCloser{}, nil
	}
}

// newSessionStore returns a signed cookie store. Without a configured secret
// a random key is used.
func newSessionStore(cfg SessionConfig) (*sessions.CookieStore, error) {
	key := []byte(cfg.Secret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("generate session key")
		}
	}

	store := sessions.NewCookieStore(key)
	store.MaxAge(int(cfg.MaxAge / time.Second))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store, nil
}
