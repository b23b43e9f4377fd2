package memory

import (
	"context"
	"errors"
	"testing"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

func TestSaleEventStore_InsertAndList(t *testing.T) {
	store := NewSaleEventStore()
	ctx := context.Background()

	events := []*domain.SaleEvent{
		{SaleID: "sale1", Type: domain.EventContribution, Participant: "alice", Value: 5, Quantity: 10, TimestampMs: 3000},
		{SaleID: "sale1", Type: domain.EventSaleStarted, TimestampMs: 1000},
		{SaleID: "sale2", Type: domain.EventSaleStarted, TimestampMs: 2000},
	}

	for _, ev := range events {
		if err := store.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.ListBySale(ctx, "sale1")
	if err != nil {
		t.Fatalf("ListBySale failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result))
	}
	if result[0].Type != domain.EventSaleStarted {
		t.Errorf("Events not ordered by timestamp: first is %s", result[0].Type)
	}
}

func TestSaleEventStore_GetByTimeRange(t *testing.T) {
	store := NewSaleEventStore()
	ctx := context.Background()

	for _, ts := range []int64{1000, 2000, 3000} {
		_ = store.Insert(ctx, &domain.SaleEvent{SaleID: "sale1", Type: domain.EventContribution, TimestampMs: ts})
	}

	result, err := store.GetByTimeRange(ctx, "sale1", 1500, 2500)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}

	if len(result) != 1 || result[0].TimestampMs != 2000 {
		t.Errorf("unexpected range result: %+v", result)
	}
}

func TestSaleEventStore_InvalidInput(t *testing.T) {
	store := NewSaleEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.SaleEvent{SaleID: "sale1"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing type, got %v", err)
	}
}
