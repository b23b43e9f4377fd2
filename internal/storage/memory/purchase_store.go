package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

// PurchaseStore is an in-memory implementation of storage.PurchaseStore.
type PurchaseStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Purchase // keyed by (sale_id, seq)
}

// NewPurchaseStore creates a new in-memory purchase store.
func NewPurchaseStore() *PurchaseStore {
	return &PurchaseStore{
		data: make(map[string]*domain.Purchase),
	}
}

var _ storage.PurchaseStore = (*PurchaseStore)(nil)

// purchaseKey generates a unique key for a purchase.
func purchaseKey(saleID string, seq int64) string {
	return fmt.Sprintf("%s|%d", saleID, seq)
}

// Insert appends a purchase. Returns ErrDuplicateKey if (sale_id, seq) exists.
func (s *PurchaseStore) Insert(_ context.Context, p *domain.Purchase) error {
	if p == nil || p.SaleID == "" || p.Participant == "" || p.Seq < 0 {
		return storage.ErrInvalidInput
	}

	key := purchaseKey(p.SaleID, p.Seq)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *p
	s.data[key] = &copy
	return nil
}

// ListBySale returns all purchases for a sale ordered by seq ASC.
func (s *PurchaseStore) ListBySale(_ context.Context, saleID string) ([]*domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Purchase
	for _, p := range s.data {
		if p.SaleID == saleID {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})

	return result, nil
}

// CountBySale returns the number of purchases recorded for a sale.
func (s *PurchaseStore) CountBySale(_ context.Context, saleID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.data {
		if p.SaleID == saleID {
			n++
		}
	}
	return n, nil
}
