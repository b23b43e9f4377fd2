package memory

import (
	"context"
	"sort"
	"sync"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

// SaleEventStore is an in-memory implementation of storage.SaleEventStore.
type SaleEventStore struct {
	mu   sync.RWMutex
	data []*domain.SaleEvent
}

// NewSaleEventStore creates a new in-memory sale event store.
func NewSaleEventStore() *SaleEventStore {
	return &SaleEventStore{}
}

var _ storage.SaleEventStore = (*SaleEventStore)(nil)

// Insert appends an event.
func (s *SaleEventStore) Insert(_ context.Context, ev *domain.SaleEvent) error {
	if ev == nil || ev.Type == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *ev
	s.data = append(s.data, &copy)
	return nil
}

// ListBySale returns all events for a sale ordered by timestamp ASC.
func (s *SaleEventStore) ListBySale(_ context.Context, saleID string) ([]*domain.SaleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SaleEvent
	for _, ev := range s.data {
		if ev.SaleID == saleID {
			copy := *ev
			result = append(result, &copy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// GetByTimeRange returns events for a sale within [start, end] ms (inclusive).
func (s *SaleEventStore) GetByTimeRange(_ context.Context, saleID string, start, end int64) ([]*domain.SaleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SaleEvent
	for _, ev := range s.data {
		if ev.SaleID == saleID && ev.TimestampMs >= start && ev.TimestampMs <= end {
			copy := *ev
			result = append(result, &copy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}
