package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/yourchoice-store/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// CartStore keeps snapshots in a map. Contents are lost on restart.
type CartStore struct {
	mu    sync.RWMutex
	snaps map[string]cart.Snapshot
}

// NewCartStore returns an empty CartStore.
func NewCartStore() *CartStore {
	return &CartStore{snaps: make(map[string]cart.Snapshot)}
}

func (s *CartStore) Load(_ context.Context, sessionID string) (cart.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[sessionID]
	if !ok {
		return nil, cart.ErrNoSnapshot
	}
	return slices.Clone(snap), nil
}

func (s *CartStore) Save(_ context.Context, sessionID string, snap cart.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[sessionID] = slices.Clone(snap)
	return nil
}

func (s *CartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, sessionID)
	return nil
}
