package storage

import (
	"context"

	"token-crowdsale/internal/domain"
)

// SaleStore persists the single sale snapshot a coordinator runs.
type SaleStore interface {
	// Save upserts the sale record.
	Save(ctx context.Context, sale *domain.SaleRecord) error

	// Get returns the current sale record. Returns ErrNotFound if no sale
	// was ever started.
	Get(ctx context.Context) (*domain.SaleRecord, error)
}

// PurchaseStore provides access to the append-only purchase sequence.
type PurchaseStore interface {
	// Insert appends a purchase. Returns ErrDuplicateKey if (sale_id, seq)
	// exists. Purchases are never updated or deleted.
	Insert(ctx context.Context, p *domain.Purchase) error

	// ListBySale returns all purchases for a sale ordered by seq ASC.
	ListBySale(ctx context.Context, saleID string) ([]*domain.Purchase, error)

	// CountBySale returns the number of purchases recorded for a sale.
	CountBySale(ctx context.Context, saleID string) (int64, error)
}

// AllowlistStore persists the set of identities permitted to contribute.
// Membership is monotonic; there is no removal.
type AllowlistStore interface {
	// Add records id as eligible. Idempotent.
	Add(ctx context.Context, id domain.Identity) error

	// Contains reports whether id is eligible.
	Contains(ctx context.Context, id domain.Identity) (bool, error)

	// List returns all eligible identities.
	List(ctx context.Context) ([]domain.Identity, error)

	// Count returns the allowlist size.
	Count(ctx context.Context) (int64, error)
}

// SaleEventStore is the analytics sink for sale events.
type SaleEventStore interface {
	// Insert appends an event.
	Insert(ctx context.Context, ev *domain.SaleEvent) error

	// ListBySale returns all events for a sale ordered by timestamp ASC.
	ListBySale(ctx context.Context, saleID string) ([]*domain.SaleEvent, error)

	// GetByTimeRange returns events for a sale within [start, end] ms (inclusive).
	GetByTimeRange(ctx context.Context, saleID string, start, end int64) ([]*domain.SaleEvent, error)
}
