package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// session pairs a ledger with the lock that serializes its writers.
type session struct {
	mu     sync.Mutex
	ledger *Ledger
	// Guarded by mu. An evicted session is no longer in the registry and
	// must not be used.
	evicted bool
	// Guarded by mu. Set while the last save failed, so the ledger has no
	// copy in the Store.
	unsaved bool

	// Guarded by Sessions.mu.
	used time.Time
}

// Sessions owns one Ledger per session id. All access to a ledger goes
// through View or Update, which hold the session lock for the whole call, so
// no caller observes a partially applied mutation. Ledgers are restored from
// the Store on first use and saved after every successful Update. Idle
// ledgers are evicted by Evict and restored again on next use.
type Sessions struct {
	store    Store
	products ProductLookup
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*session
	loads   singleflight.Group
}

// NewSessions creates a registry backed by store, resolving restored lines
// against products.
func NewSessions(store Store, products ProductLookup) *Sessions {
	return &Sessions{
		store:    store,
		products: products,
		now:      time.Now,
		entries:  make(map[string]*session),
	}
}

// acquire returns the locked session for id.
func (s *Sessions) acquire(ctx context.Context, id string) (*session, error) {
	for {
		sess, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		if !sess.evicted {
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

func (s *Sessions) get(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.entries[id]
	if ok {
		sess.used = s.now()
	}
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	v, err, _ := s.loads.Do(id, func() (any, error) {
		s.mu.Lock()
		if sess, ok := s.entries[id]; ok {
			s.mu.Unlock()
			return sess, nil
		}
		s.mu.Unlock()

		ledger, err := s.restore(ctx, id)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		sess := &session{ledger: ledger, used: s.now()}
		s.entries[id] = sess
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*session), nil
}

func (s *Sessions) restore(ctx context.Context, id string) (*Ledger, error) {
	snap, err := s.store.Load(ctx, id)
	var decodeErr *SnapshotDecodeError
	switch {
	case errors.Is(err, ErrNoSnapshot):
		return NewLedger(), nil
	case errors.As(err, &decodeErr):
		zctx.From(ctx).Warn("Discarded undecodable cart snapshot",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return NewLedger(), nil
	case err != nil:
		return nil, errors.Wrap(err, "load cart snapshot")
	}

	ledger, dropped := Restore(snap, s.products)
	if dropped > 0 {
		zctx.From(ctx).Warn("Dropped stale cart lines",
			zap.String("session_id", id),
			zap.Int("dropped", dropped),
		)
	}
	return ledger, nil
}

// View calls fn with the session ledger under the session lock. fn must not
// retain the ledger.
func (s *Sessions) View(ctx context.Context, id string, fn func(l *Ledger)) error {
	sess, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	fn(sess.ledger)
	return nil
}

// Update calls fn with the session ledger under the session lock and
// persists the result when fn succeeds. The error from fn is returned as is.
// A failed save is logged and does not fail the update: the in-memory ledger
// stays authoritative for the session.
func (s *Sessions) Update(ctx context.Context, id string, fn func(l *Ledger) error) error {
	sess, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	if err := fn(sess.ledger); err != nil {
		return err
	}
	sess.unsaved = !s.persist(ctx, id, sess.ledger)
	return nil
}

func (s *Sessions) persist(ctx context.Context, id string, l *Ledger) bool {
	var err error
	if l.IsEmpty() {
		err = s.store.Delete(ctx, id)
	} else {
		err = s.store.Save(ctx, id, l.Snapshot())
	}
	if err != nil {
		zctx.From(ctx).Error("Persist cart snapshot",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Forget drops the in-memory ledger for id. The persisted snapshot is kept
// and will be restored on next access.
func (s *Sessions) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.entries[id]; ok {
		s.drop(id, sess, true)
	}
}

// drop removes sess from the registry. Unless wait is set, a session that is
// in use is left alone. Must be called with s.mu held.
func (s *Sessions) drop(id string, sess *session, wait bool) bool {
	if wait {
		sess.mu.Lock()
	} else if !sess.mu.TryLock() {
		return false
	}
	defer sess.mu.Unlock()
	if !wait && sess.unsaved {
		return false
	}
	sess.evicted = true
	delete(s.entries, id)
	return true
}

// Evict drops ledgers unused for at least idle. Ledgers in use or whose last
// save failed are kept. It returns the number of evicted ledgers.
func (s *Sessions) Evict(idle time.Duration) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.entries {
		if now.Sub(sess.used) < idle {
			continue
		}
		if s.drop(id, sess, false) {
			n++
		}
	}
	return n
}

// Len returns the number of ledgers held in memory.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run evicts ledgers idle for longer than idle until ctx is done. A
// non-positive idle keeps ledgers for the life of the process.
func (s *Sessions) Run(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(idle); n > 0 {
				zctx.From(ctx).Debug("Evicted idle carts", zap.Int("count", n))
			}
		}
	}
}
