package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

// PurchaseStore implements storage.PurchaseStore using PostgreSQL.
type PurchaseStore struct {
	pool *Pool
}

// NewPurchaseStore creates a new PurchaseStore.
func NewPurchaseStore(pool *Pool) *PurchaseStore {
	return &PurchaseStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PurchaseStore = (*PurchaseStore)(nil)

// Insert appends a purchase. Returns ErrDuplicateKey if (sale_id, seq) exists.
func (s *PurchaseStore) Insert(ctx context.Context, p *domain.Purchase) error {
	if p == nil || p.SaleID == "" || p.Participant == "" || p.Seq < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO purchases (
			purchase_id, sale_id, seq, participant, value, quantity, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PurchaseID,
		p.SaleID,
		p.Seq,
		string(p.Participant),
		p.Value,
		p.Quantity,
		p.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

// ListBySale returns all purchases for a sale ordered by seq ASC.
func (s *PurchaseStore) ListBySale(ctx context.Context, saleID string) ([]*domain.Purchase, error) {
	query := `
		SELECT purchase_id, sale_id, seq, participant, value, quantity, timestamp
		FROM purchases
		WHERE sale_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	return scanPurchases(rows)
}

// CountBySale returns the number of purchases recorded for a sale.
func (s *PurchaseStore) CountBySale(ctx context.Context, saleID string) (int64, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM purchases WHERE sale_id = $1
	`, saleID)

	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count purchases: %w", err)
	}
	return n, nil
}

// scanPurchases scans multiple rows into a slice of Purchase.
func scanPurchases(rows pgx.Rows) ([]*domain.Purchase, error) {
	var purchases []*domain.Purchase

	for rows.Next() {
		var p domain.Purchase
		var participant string

		err := rows.Scan(
			&p.PurchaseID,
			&p.SaleID,
			&p.Seq,
			&participant,
			&p.Value,
			&p.Quantity,
			&p.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}

		p.Participant = domain.Identity(participant)
		purchases = append(purchases, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase rows: %w", err)
	}

	return purchases, nil
}
