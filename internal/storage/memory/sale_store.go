package memory

import (
	"context"
	"sync"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

// SaleStore is an in-memory implementation of storage.SaleStore.
type SaleStore struct {
	mu   sync.RWMutex
	sale *domain.SaleRecord
}

// NewSaleStore creates a new in-memory sale store.
func NewSaleStore() *SaleStore {
	return &SaleStore{}
}

var _ storage.SaleStore = (*SaleStore)(nil)

// Save upserts the sale record.
func (s *SaleStore) Save(_ context.Context, sale *domain.SaleRecord) error {
	if sale == nil || sale.SaleID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *sale
	s.sale = &copy
	return nil
}

// Get returns the current sale record.
func (s *SaleStore) Get(_ context.Context) (*domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sale == nil {
		return nil, storage.ErrNotFound
	}

	copy := *s.sale
	return &copy, nil
}
