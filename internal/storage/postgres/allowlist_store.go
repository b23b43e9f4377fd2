package postgres

import (
	"context"
	"fmt"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

// AllowlistStore is a PostgreSQL implementation of storage.AllowlistStore.
type AllowlistStore struct {
	pool *Pool
}

// NewAllowlistStore creates a new PostgreSQL allowlist store.
func NewAllowlistStore(pool *Pool) *AllowlistStore {
	return &AllowlistStore{pool: pool}
}

var _ storage.AllowlistStore = (*AllowlistStore)(nil)

// Add records id as eligible. Idempotent.
func (s *AllowlistStore) Add(ctx context.Context, id domain.Identity) error {
	if id == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO allowlist (identity, added_at)
		VALUES ($1, NOW())
		ON CONFLICT (identity) DO NOTHING
	`, string(id))
	if err != nil {
		return fmt.Errorf("add to allowlist: %w", err)
	}
	return nil
}

// Contains reports whether id is eligible.
func (s *AllowlistStore) Contains(ctx context.Context, id domain.Identity) (bool, error) {
	if id == "" {
		return false, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM allowlist WHERE identity = $1)
	`, string(id))

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check allowlist: %w", err)
	}
	return exists, nil
}

// List returns all eligible identities in lexical order.
func (s *AllowlistStore) List(ctx context.Context) ([]domain.Identity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT identity FROM allowlist ORDER BY identity ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list allowlist: %w", err)
	}
	defer rows.Close()

	var ids []domain.Identity
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan allowlist row: %w", err)
		}
		ids = append(ids, domain.Identity(id))
	}

	return ids, rows.Err()
}

// Count returns the allowlist size.
func (s *AllowlistStore) Count(ctx context.Context) (int64, error) {
	row := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM allowlist`)

	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count allowlist: %w", err)
	}
	return n, nil
}
