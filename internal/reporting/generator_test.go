package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/storage"
	"token-crowdsale/internal/storage/memory"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func seedStores(t *testing.T) (*memory.SaleStore, *memory.PurchaseStore, *memory.AllowlistStore) {
	t.Helper()
	ctx := context.Background()

	sales := memory.NewSaleStore()
	purchases := memory.NewPurchaseStore()
	allowlist := memory.NewAllowlistStore()

	sale := &domain.SaleRecord{
		SaleID:           "sale-1",
		Administrator:    "admin",
		StartedAt:        fixedClock().Add(-2 * time.Hour),
		EndTime:          fixedClock().Add(-time.Hour),
		UnitPrice:        2,
		InventoryAtStart: 30,
		MinContribution:  1,
		MaxContribution:  10,
		Released:         true,
		Withdrawn:        5,
	}
	if err := sales.Save(ctx, sale); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rows := []*domain.Purchase{
		{PurchaseID: "p0", SaleID: "sale-1", Seq: 0, Participant: "alice", Value: 2, Quantity: 4, Timestamp: 100},
		{PurchaseID: "p1", SaleID: "sale-1", Seq: 1, Participant: "bob", Value: 10, Quantity: 20, Timestamp: 200},
		{PurchaseID: "p2", SaleID: "sale-1", Seq: 2, Participant: "alice", Value: 1, Quantity: 2, Timestamp: 300},
	}
	for _, p := range rows {
		if err := purchases.Insert(ctx, p); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	for _, id := range []domain.Identity{"alice", "bob", "carol"} {
		if err := allowlist.Add(ctx, id); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	return sales, purchases, allowlist
}

func TestGenerate_Summary(t *testing.T) {
	sales, purchases, allowlist := seedStores(t)
	gen := NewGenerator(sales, purchases, allowlist).WithClock(fixedClock)

	r, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	s := r.Summary
	if s.TokensAllocated != 26 || s.Remaining != 4 {
		t.Errorf("allocation: allocated=%d remaining=%d", s.TokensAllocated, s.Remaining)
	}
	if !s.InventoryConserved {
		t.Error("inventory not reconciled")
	}
	if s.Collected != 13 || s.Withdrawn != 5 {
		t.Errorf("value: collected=%d withdrawn=%d", s.Collected, s.Withdrawn)
	}
	if s.State != domain.SaleStateEndedReleased {
		t.Errorf("state: got %s, want ENDED_RELEASED", s.State)
	}
	if s.PurchaseCount != 3 || s.ParticipantCount != 2 || s.AllowlistSize != 3 {
		t.Errorf("counts: %+v", s)
	}
}

func TestGenerate_ParticipantAggregation(t *testing.T) {
	sales, purchases, allowlist := seedStores(t)
	gen := NewGenerator(sales, purchases, allowlist).WithClock(fixedClock)

	r, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(r.Participants) != 2 {
		t.Fatalf("participants: got %d, want 2", len(r.Participants))
	}
	// Sorted by participant: alice first.
	alice := r.Participants[0]
	if alice.Participant != "alice" || alice.Purchases != 2 || alice.Value != 3 || alice.Quantity != 6 {
		t.Errorf("alice row: %+v", alice)
	}
	bob := r.Participants[1]
	if bob.Participant != "bob" || bob.Purchases != 1 || bob.Value != 10 || bob.Quantity != 20 {
		t.Errorf("bob row: %+v", bob)
	}
}

func TestGenerate_NoSale(t *testing.T) {
	gen := NewGenerator(memory.NewSaleStore(), memory.NewPurchaseStore(), memory.NewAllowlistStore())

	if _, err := gen.Generate(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRenderMarkdown(t *testing.T) {
	sales, purchases, allowlist := seedStores(t)
	gen := NewGenerator(sales, purchases, allowlist).WithClock(fixedClock)

	r, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(r)
	for _, want := range []string{
		"# Sale Report",
		"| Sale ID | sale-1 |",
		"| Tokens Allocated | 26 |",
		"**Inventory reconciled:**",
		"| alice | 2 | 3 | 6 |",
		"## Purchase Ledger",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	sales, purchases, allowlist := seedStores(t)
	gen := NewGenerator(sales, purchases, allowlist).WithClock(fixedClock)

	r, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	csv := RenderCSV(r.Purchases)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines: got %d, want 4", len(lines))
	}
	if lines[0] != "seq,purchase_id,participant,value,quantity,timestamp_ms" {
		t.Errorf("header: %q", lines[0])
	}
	if lines[1] != "0,p0,alice,2,4,100" {
		t.Errorf("first row: %q", lines[1])
	}
}
