package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

func TestSaleStore_GetBeforeSave(t *testing.T) {
	store := NewSaleStore()

	_, err := store.Get(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaleStore_SaveAndGet(t *testing.T) {
	store := NewSaleStore()
	ctx := context.Background()

	sale := &domain.SaleRecord{
		SaleID:           "sale1",
		Administrator:    "admin",
		StartedAt:        time.Unix(1700000000, 0),
		EndTime:          time.Unix(1700000100, 0),
		UnitPrice:        2,
		InventoryAtStart: 30,
		MinContribution:  1,
		MaxContribution:  10,
	}

	if err := store.Save(ctx, sale); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.SaleID != "sale1" || got.UnitPrice != 2 || got.InventoryAtStart != 30 {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestSaleStore_SaveUpserts(t *testing.T) {
	store := NewSaleStore()
	ctx := context.Background()

	sale := &domain.SaleRecord{SaleID: "sale1", UnitPrice: 2, InventoryAtStart: 30}
	if err := store.Save(ctx, sale); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	sale.Released = true
	sale.Withdrawn = 11
	if err := store.Save(ctx, sale); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, _ := store.Get(ctx)
	if !got.Released || got.Withdrawn != 11 {
		t.Errorf("upsert did not apply: %+v", got)
	}
}

func TestSaleStore_InvalidInput(t *testing.T) {
	store := NewSaleStore()
	ctx := context.Background()

	if err := store.Save(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Save(ctx, &domain.SaleRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestSaleStore_CopyIsDefensive(t *testing.T) {
	store := NewSaleStore()
	ctx := context.Background()

	sale := &domain.SaleRecord{SaleID: "sale1", UnitPrice: 2}
	_ = store.Save(ctx, sale)

	got, _ := store.Get(ctx)
	got.UnitPrice = 99

	again, _ := store.Get(ctx)
	if again.UnitPrice != 2 {
		t.Errorf("stored record mutated through returned copy: %d", again.UnitPrice)
	}
}
