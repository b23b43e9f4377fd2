package memory

import (
	"context"
	"sort"
	"sync"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

// AllowlistStore is an in-memory implementation of storage.AllowlistStore.
type AllowlistStore struct {
	mu   sync.RWMutex
	data map[domain.Identity]struct{}
}

// NewAllowlistStore creates a new in-memory allowlist store.
func NewAllowlistStore() *AllowlistStore {
	return &AllowlistStore{
		data: make(map[domain.Identity]struct{}),
	}
}

var _ storage.AllowlistStore = (*AllowlistStore)(nil)

// Add records id as eligible. Idempotent.
func (s *AllowlistStore) Add(_ context.Context, id domain.Identity) error {
	if id == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[id] = struct{}{}
	return nil
}

// Contains reports whether id is eligible.
func (s *AllowlistStore) Contains(_ context.Context, id domain.Identity) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[id]
	return ok, nil
}

// List returns all eligible identities in lexical order.
func (s *AllowlistStore) List(_ context.Context) ([]domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Identity, 0, len(s.data))
	for id := range s.data {
		result = append(result, id)
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

// Count returns the allowlist size.
func (s *AllowlistStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data)), nil
}
