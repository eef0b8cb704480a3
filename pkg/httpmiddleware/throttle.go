package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ThrottleConfig limits requests per key in fixed windows.
type ThrottleConfig struct {
	Max    int
	Window time.Duration
	// Key extracts the throttling key. Defaults to the session id, falling
	// back to the client IP.
	Key func(*http.Request) string
}

type window struct {
	start time.Time
	count int
}

type throttle struct {
	cfg ThrottleConfig
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func newThrottle(cfg ThrottleConfig) *throttle {
	if cfg.Key == nil {
		cfg.Key = sessionOrIP
	}
	return &throttle{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// take records a hit for key. It reports whether the hit fits the window and
// when the window resets.
func (t *throttle) take(key string) (bool, time.Time) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[key]
	if !ok || now.Sub(w.start) >= t.cfg.Window {
		w = &window{start: now}
		t.windows[key] = w
	}
	reset := w.start.Add(t.cfg.Window)
	if w.count >= t.cfg.Max {
		return false, reset
	}
	w.count++
	return true, reset
}

func (t *throttle) evict() {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, w := range t.windows {
		if now.Sub(w.start) >= t.cfg.Window {
			delete(t.windows, k)
		}
	}
}

// Throttle rejects requests above cfg.Max per cfg.Window with 429. Expired
// windows are evicted until ctx is done. A non-positive Max disables it.
func Throttle(ctx context.Context, cfg ThrottleConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	t := newThrottle(cfg)
	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.evict()
			}
		}
	}()
	return t.middleware
}

func (t *throttle) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, reset := t.take(t.cfg.Key(r))
		if !ok {
			wait := math.Ceil(reset.Sub(t.now()).Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(max(int(wait), 0)))
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionOrIP(r *http.Request) string {
	if id, ok := SessionIDFromContext(r.Context()); ok {
		return "session:" + id
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
