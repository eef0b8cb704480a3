// Package redis keeps cart snapshots in Redis with a sliding TTL.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/yourchoice-store/internal/domain/cart"
)

const (
	keyNamespace = "yc"
	cartPrefix   = "cart"
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store. Every save refreshes the TTL; a zero TTL
// keeps snapshots forever.
type CartStore struct {
	store cmdable
	raw   *redis.Client
	ttl   time.Duration
}

// New connects to the Redis server at url and verifies connectivity.
func New(ctx context.Context, url string, ttl time.Duration) (*CartStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return &CartStore{store: raw, raw: raw, ttl: ttl}, nil
}

// Key returns the namespaced key holding the snapshot of sessionID.
func Key(sessionID string) string {
	return strings.Join([]string{keyNamespace, cartPrefix, strings.TrimSpace(sessionID)}, ":")
}

func (s *CartStore) Load(ctx context.Context, sessionID string) (cart.Snapshot, error) {
	data, err := s.store.Get(ctx, Key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrNoSnapshot
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get cart %q", sessionID)
	}
	return cart.DecodeSnapshot(data)
}

func (s *CartStore) Save(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	data := string(cart.EncodeSnapshot(snap))
	if err := s.store.Set(ctx, Key(sessionID), data, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set cart %q", sessionID)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Del(ctx, Key(sessionID)).Err(); err != nil {
		return errors.Wrapf(err, "del cart %q", sessionID)
	}
	return nil
}

// Ping verifies the connection.
func (s *CartStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (s *CartStore) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}
