package memory

import (
	"context"
	"errors"
	"testing"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
)

func TestPurchaseStore_InsertAndList(t *testing.T) {
	store := NewPurchaseStore()
	ctx := context.Background()

	p := &domain.Purchase{
		PurchaseID:  "p1",
		SaleID:      "sale1",
		Seq:         0,
		Participant: "alice",
		Value:       5,
		Quantity:    10,
		Timestamp:   1704067200000,
	}

	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := store.ListBySale(ctx, "sale1")
	if err != nil {
		t.Fatalf("ListBySale failed: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("Expected 1 purchase, got %d", len(result))
	}
	if result[0].Quantity != 10 {
		t.Errorf("Quantity mismatch: got %d, want 10", result[0].Quantity)
	}
}

func TestPurchaseStore_DuplicateSeq(t *testing.T) {
	store := NewPurchaseStore()
	ctx := context.Background()

	p := &domain.Purchase{SaleID: "sale1", Seq: 0, Participant: "alice", Value: 1, Quantity: 2}

	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, p)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPurchaseStore_InvalidInput(t *testing.T) {
	store := NewPurchaseStore()
	ctx := context.Background()

	cases := []*domain.Purchase{
		nil,
		{SaleID: "", Seq: 0, Participant: "alice"},
		{SaleID: "sale1", Seq: 0, Participant: ""},
		{SaleID: "sale1", Seq: -1, Participant: "alice"},
	}

	for i, p := range cases {
		if err := store.Insert(ctx, p); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestPurchaseStore_OrderBySeq(t *testing.T) {
	store := NewPurchaseStore()
	ctx := context.Background()

	// Insert out of order.
	for _, seq := range []int64{2, 0, 1} {
		p := &domain.Purchase{SaleID: "sale1", Seq: seq, Participant: "alice", Value: 1, Quantity: 1}
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert seq=%d failed: %v", seq, err)
		}
	}

	result, _ := store.ListBySale(ctx, "sale1")
	for i, p := range result {
		if p.Seq != int64(i) {
			t.Errorf("position %d: got seq %d", i, p.Seq)
		}
	}
}

func TestPurchaseStore_FiltersBySale(t *testing.T) {
	store := NewPurchaseStore()
	ctx := context.Background()

	_ = store.Insert(ctx, &domain.Purchase{SaleID: "sale1", Seq: 0, Participant: "alice", Value: 1, Quantity: 1})
	_ = store.Insert(ctx, &domain.Purchase{SaleID: "sale2", Seq: 0, Participant: "bob", Value: 1, Quantity: 1})

	result, _ := store.ListBySale(ctx, "sale1")
	if len(result) != 1 {
		t.Errorf("Expected 1 purchase for sale1, got %d", len(result))
	}

	n, _ := store.CountBySale(ctx, "sale2")
	if n != 1 {
		t.Errorf("Expected count 1 for sale2, got %d", n)
	}
}

func TestPurchaseStore_CopiesAreDefensive(t *testing.T) {
	store := NewPurchaseStore()
	ctx := context.Background()

	p := &domain.Purchase{SaleID: "sale1", Seq: 0, Participant: "alice", Value: 1, Quantity: 2}
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, _ := store.ListBySale(ctx, "sale1")
	result[0].Quantity = 999

	again, _ := store.ListBySale(ctx, "sale1")
	if again[0].Quantity != 2 {
		t.Errorf("stored purchase mutated through returned copy: %d", again[0].Quantity)
	}
}
