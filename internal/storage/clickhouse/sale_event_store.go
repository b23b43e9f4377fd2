package clickhouse

import (
	"context"
	"fmt"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

// SaleEventStore implements storage.SaleEventStore using ClickHouse.
// Events are an append-only analytics stream; MergeTree does not enforce
// uniqueness and none is needed here.
type SaleEventStore struct {
	conn *Conn
}

// NewSaleEventStore creates a new SaleEventStore.
func NewSaleEventStore(conn *Conn) *SaleEventStore {
	return &SaleEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SaleEventStore = (*SaleEventStore)(nil)

// Insert appends an event.
func (s *SaleEventStore) Insert(ctx context.Context, ev *domain.SaleEvent) error {
	if ev == nil || ev.Type == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO sale_events (
			sale_id, type, participant, destination, value, quantity, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare sale_events batch: %w", err)
	}

	err = batch.Append(
		ev.SaleID,
		ev.Type,
		string(ev.Participant),
		string(ev.Destination),
		ev.Value,
		ev.Quantity,
		ev.TimestampMs,
	)
	if err != nil {
		return fmt.Errorf("append sale event: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send sale_events batch: %w", err)
	}
	return nil
}

// ListBySale returns all events for a sale ordered by timestamp ASC.
func (s *SaleEventStore) ListBySale(ctx context.Context, saleID string) ([]*domain.SaleEvent, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT sale_id, type, participant, destination, value, quantity, timestamp_ms
		FROM sale_events
		WHERE sale_id = ?
		ORDER BY timestamp_ms ASC
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale events: %w", err)
	}
	defer rows.Close()

	return scanSaleEvents(rows)
}

// GetByTimeRange returns events for a sale within [start, end] ms (inclusive).
func (s *SaleEventStore) GetByTimeRange(ctx context.Context, saleID string, start, end int64) ([]*domain.SaleEvent, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT sale_id, type, participant, destination, value, quantity, timestamp_ms
		FROM sale_events
		WHERE sale_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`, saleID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get sale events by time range: %w", err)
	}
	defer rows.Close()

	return scanSaleEvents(rows)
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSaleEvents(rows eventRows) ([]*domain.SaleEvent, error) {
	var events []*domain.SaleEvent

	for rows.Next() {
		var ev domain.SaleEvent
		var participant, destination string

		err := rows.Scan(
			&ev.SaleID,
			&ev.Type,
			&participant,
			&destination,
			&ev.Value,
			&ev.Quantity,
			&ev.TimestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale event row: %w", err)
		}

		ev.Participant = domain.Identity(participant)
		ev.Destination = domain.Identity(destination)
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale event rows: %w", err)
	}

	return events, nil
}
