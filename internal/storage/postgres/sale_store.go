package postgres

import (
	"context"
	"fmt"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

// SaleStore is a PostgreSQL implementation of storage.SaleStore.
// The coordinator runs a single sale, so the table holds one row (id = 1)
// updated in place as Released and Withdrawn change.
type SaleStore struct {
	pool *Pool
}

// NewSaleStore creates a new PostgreSQL sale store.
func NewSaleStore(pool *Pool) *SaleStore {
	return &SaleStore{pool: pool}
}

var _ storage.SaleStore = (*SaleStore)(nil)

// Save upserts the sale record.
func (s *SaleStore) Save(ctx context.Context, sale *domain.SaleRecord) error {
	if sale == nil || sale.SaleID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sales (
			id, sale_id, administrator, started_at, end_time,
			unit_price, inventory_at_start, min_contribution, max_contribution,
			released, withdrawn, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (id) DO UPDATE
		SET sale_id            = EXCLUDED.sale_id,
		    administrator      = EXCLUDED.administrator,
		    started_at         = EXCLUDED.started_at,
		    end_time           = EXCLUDED.end_time,
		    unit_price         = EXCLUDED.unit_price,
		    inventory_at_start = EXCLUDED.inventory_at_start,
		    min_contribution   = EXCLUDED.min_contribution,
		    max_contribution   = EXCLUDED.max_contribution,
		    released           = EXCLUDED.released,
		    withdrawn          = EXCLUDED.withdrawn,
		    updated_at         = NOW()
	`,
		sale.SaleID,
		string(sale.Administrator),
		sale.StartedAt,
		sale.EndTime,
		sale.UnitPrice,
		sale.InventoryAtStart,
		sale.MinContribution,
		sale.MaxContribution,
		sale.Released,
		sale.Withdrawn,
	)
	if err != nil {
		return fmt.Errorf("save sale: %w", err)
	}
	return nil
}

// Get returns the current sale record.
func (s *SaleStore) Get(ctx context.Context) (*domain.SaleRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT sale_id, administrator, started_at, end_time,
		       unit_price, inventory_at_start, min_contribution, max_contribution,
		       released, withdrawn
		FROM sales
		WHERE id = 1
	`)

	var sale domain.SaleRecord
	var admin string
	err := row.Scan(
		&sale.SaleID,
		&admin,
		&sale.StartedAt,
		&sale.EndTime,
		&sale.UnitPrice,
		&sale.InventoryAtStart,
		&sale.MinContribution,
		&sale.MaxContribution,
		&sale.Released,
		&sale.Withdrawn,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	sale.Administrator = domain.Identity(admin)
	return &sale, nil
}
