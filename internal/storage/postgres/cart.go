package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/yourchoice-store/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// CartStore keeps cart snapshots in the cart_snapshots table.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Load returns cart.ErrNoSnapshot when the session has no row.
func (s *CartStore) Load(ctx context.Context, sessionID string) (cart.Snapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT lines FROM cart_snapshots WHERE session_id = $1`, sessionID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cart.ErrNoSnapshot
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load cart snapshot %q", sessionID)
	}
	return cart.DecodeSnapshot(data)
}

func (s *CartStore) Save(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO cart_snapshots (session_id, lines, updated_at) VALUES ($1, $2, now())
ON CONFLICT (session_id) DO UPDATE SET lines = EXCLUDED.lines, updated_at = EXCLUDED.updated_at`,
		sessionID, cart.EncodeSnapshot(snap),
	)
	if err != nil {
		return errors.Wrapf(err, "save cart snapshot %q", sessionID)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM cart_snapshots WHERE session_id = $1`, sessionID); err != nil {
		return errors.Wrapf(err, "delete cart snapshot %q", sessionID)
	}
	return nil
}
