package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/yourchoice-store/internal/domain/analytics"
	"github.com/xenking/yourchoice-store/internal/domain/cart"
	"github.com/xenking/yourchoice-store/internal/domain/catalog"
	"github.com/xenking/yourchoice-store/internal/domain/order"
	"github.com/xenking/yourchoice-store/internal/handler"
	"github.com/xenking/yourchoice-store/internal/storage/memory"
	"github.com/xenking/yourchoice-store/pkg/health"
)

// newTestServer assembles the API the way Run does, on in-memory stores and
// the bundled seed dataset.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := zctx.Base(context.Background(), zaptest.NewLogger(t))

	cfg := &Config{
		Session: SessionConfig{
			Secret:     strings.Repeat("s", 32),
			CookieName: "yc_session",
			MaxAge:     time.Hour,
		},
		CORS: CORSConfig{Origins: []string{"https://shop.example.com"}, AllowCredentials: true},
	}

	cat, err := catalog.Load(ctx, memory.NewProductFile("../../db/seed/products.json"))
	require.NoError(t, err)

	healthSvc := health.New()
	healthSvc.Readiness("catalog", health.NonEmpty("catalog", cat.Len))
	healthSvc.SetReady(true)

	svc := order.NewService(order.DefaultPolicy(), memory.NewOrderRepository(), analytics.NewDispatcher())
	h := handler.New(handler.Config{}, cat, cart.NewSessions(memory.NewCartStore(), cat), svc, nil)

	sessionStore, err := newSessionStore(cfg.Session)
	require.NoError(t, err)

	srv := httptest.NewServer(newHTTPHandler(ctx, cfg, h.Router(), healthSvc, sessionStore, nil))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func send(t *testing.T, c *http.Client, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type cartResponse struct {
	TotalItems int   `json:"totalItems"`
	TotalPrice int64 `json:"totalPrice"`
}

func decodeResponse[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_CartFollowsSessionCookie(t *testing.T) {
	srv := newTestServer(t)
	alice := newClient(t)

	resp := send(t, alice, http.MethodPost, srv.URL+"/api/cart/items", `{"productId":"1","quantity":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Cookies(), "session cookie is set on first visit")

	resp = send(t, alice, http.MethodGet, srv.URL+"/api/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeResponse[cartResponse](t, resp)
	assert.Equal(t, 2, got.TotalItems)
	assert.Equal(t, int64(2*8999), got.TotalPrice)

	// A different browser has its own cart.
	bob := newClient(t)
	resp = send(t, bob, http.MethodGet, srv.URL+"/api/cart", "")
	assert.Equal(t, 0, decodeResponse[cartResponse](t, resp).TotalItems)
}

func TestServer_Checkout(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	send(t, c, http.MethodPost, srv.URL+"/api/cart/items", `{"productId":"1"}`)
	resp := send(t, c, http.MethodPost, srv.URL+"/api/checkout", `{
		"customer": {"name": "Asha Rao", "email": "asha@example.com", "phone": "9845000000"},
		"address": {"street": "12 MG Road", "city": "Bengaluru", "state": "Karnataka", "pincode": "560001"}
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decodeResponse[struct {
		ID       string `json:"id"`
		Shipping int64  `json:"shipping"`
		Tax      int64  `json:"tax"`
		Total    int64  `json:"total"`
	}](t, resp)
	assert.True(t, strings.HasPrefix(got.ID, "ORD-"))
	assert.Zero(t, got.Shipping)
	assert.Equal(t, int64(450), got.Tax)
	assert.Equal(t, int64(8999+450), got.Total)

	resp = send(t, c, http.MethodGet, srv.URL+"/api/cart", "")
	assert.Equal(t, 0, decodeResponse[cartResponse](t, resp).TotalItems)
}

func TestServer_Middleware(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	resp := send(t, c, http.MethodGet, srv.URL+"/api/product", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/cart/items", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err = c.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "https://shop.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestServer_HealthProbes(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp := send(t, c, http.MethodGet, srv.URL+path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Empty(t, resp.Cookies(), "probes must not start sessions")
	}
}
