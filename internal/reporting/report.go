package reporting

import (
	"time"

	"token-crowdsale/internal/domain"
)

// Report represents the sale report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// Sale summary
	Summary SaleSummary

	// Per-participant allocations (sorted by participant)
	Participants []ParticipantRow

	// Purchase ledger (sorted by seq)
	Purchases []PurchaseRow
}

// SaleSummary contains the sale configuration and derived totals.
type SaleSummary struct {
	SaleID           string
	State            domain.SaleState
	StartedAt        time.Time
	EndTime          time.Time
	UnitPrice        int64
	InventoryAtStart int64
	Remaining        int64
	TokensAllocated  int64
	Collected        int64
	Withdrawn        int64
	Released         bool
	PurchaseCount    int
	ParticipantCount int
	AllowlistSize    int64

	// InventoryConserved holds allocated + remaining == inventory at start.
	InventoryConserved bool
}

// ParticipantRow aggregates one participant's purchases.
type ParticipantRow struct {
	Participant domain.Identity
	Purchases   int
	Value       int64
	Quantity    int64
}

// PurchaseRow represents one row in the purchase ledger table.
type PurchaseRow struct {
	Seq         int64
	PurchaseID  string
	Participant domain.Identity
	Value       int64
	Quantity    int64
	Timestamp   int64 // Unix ms
}
