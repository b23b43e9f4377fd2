// Package reporting assembles offline sale reports from the stores.
package reporting

import (
	"context"
	"sort"
	"time"

	"token-crowdsale/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	saleStore      storage.SaleStore
	purchaseStore  storage.PurchaseStore
	allowlistStore storage.AllowlistStore
	now            func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	saleStore storage.SaleStore,
	purchaseStore storage.PurchaseStore,
	allowlistStore storage.AllowlistStore,
) *Generator {
	return &Generator{
		saleStore:      saleStore,
		purchaseStore:  purchaseStore,
		allowlistStore: allowlistStore,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete sale report. Returns storage.ErrNotFound
// if no sale was ever started.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	sale, err := g.saleStore.Get(ctx)
	if err != nil {
		return nil, err
	}

	purchases, err := g.purchaseStore.ListBySale(ctx, sale.SaleID)
	if err != nil {
		return nil, err
	}

	allowlistSize, err := g.allowlistStore.Count(ctx)
	if err != nil {
		return nil, err
	}

	// Fold totals and per-participant aggregates from the ledger.
	var allocated, collected int64
	byParticipant := make(map[string]*ParticipantRow)
	purchaseRows := make([]PurchaseRow, len(purchases))
	for i, p := range purchases {
		allocated += p.Quantity
		collected += p.Value

		row := byParticipant[string(p.Participant)]
		if row == nil {
			row = &ParticipantRow{Participant: p.Participant}
			byParticipant[string(p.Participant)] = row
		}
		row.Purchases++
		row.Value += p.Value
		row.Quantity += p.Quantity

		purchaseRows[i] = PurchaseRow{
			Seq:         p.Seq,
			PurchaseID:  p.PurchaseID,
			Participant: p.Participant,
			Value:       p.Value,
			Quantity:    p.Quantity,
			Timestamp:   p.Timestamp,
		}
	}

	remaining := sale.InventoryAtStart - allocated

	participants := make([]ParticipantRow, 0, len(byParticipant))
	for _, row := range byParticipant {
		participants = append(participants, *row)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].Participant < participants[j].Participant
	})

	now := g.now()
	return &Report{
		GeneratedAt: now,
		Summary: SaleSummary{
			SaleID:             sale.SaleID,
			State:              sale.StateAt(now, remaining),
			StartedAt:          sale.StartedAt,
			EndTime:            sale.EndTime,
			UnitPrice:          sale.UnitPrice,
			InventoryAtStart:   sale.InventoryAtStart,
			Remaining:          remaining,
			TokensAllocated:    allocated,
			Collected:          collected,
			Withdrawn:          sale.Withdrawn,
			Released:           sale.Released,
			PurchaseCount:      len(purchases),
			ParticipantCount:   len(participants),
			AllowlistSize:      allowlistSize,
			InventoryConserved: allocated+remaining == sale.InventoryAtStart,
		},
		Participants: participants,
		Purchases:    purchaseRows,
	}, nil
}
