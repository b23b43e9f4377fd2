package domain

import "time"

// Identity is the base58-encoded form of a 32-byte ed25519 public key.
// Participants, the administrator, the coordinator's own token account,
// and withdrawal destinations are all identified this way.
type Identity string

// SaleState is the phase of the crowdsale, derived from the sale record
// and the remaining inventory rather than stored as its own column.
type SaleState string

const (
	// SaleStateNotStarted means no sale has been configured yet.
	SaleStateNotStarted SaleState = "NOT_STARTED"

	// SaleStateActive means the deadline has not passed and inventory remains.
	SaleStateActive SaleState = "ACTIVE"

	// SaleStateEndedUnreleased means the sale is over but token allocations
	// have not been transferred to participants yet.
	SaleStateEndedUnreleased SaleState = "ENDED_UNRELEASED"

	// SaleStateEndedReleased means allocations were transferred; collected
	// value is withdrawable.
	SaleStateEndedReleased SaleState = "ENDED_RELEASED"
)

// Ended reports whether the state is one of the two terminal phases.
func (s SaleState) Ended() bool {
	return s == SaleStateEndedUnreleased || s == SaleStateEndedReleased
}

// SaleRecord is the persisted snapshot of the single sale a coordinator runs.
// Configuration fields are fixed by start and never change; only Released
// and Withdrawn are updated afterwards. Remaining inventory and collected
// value are always derived from the purchase sequence, never stored.
type SaleRecord struct {
	SaleID        string
	Administrator Identity
	StartedAt     time.Time
	EndTime       time.Time

	UnitPrice        int64 // tokens granted per unit of contributed value
	InventoryAtStart int64 // tokens reserved for the sale
	MinContribution  int64 // per-transaction value lower bound
	MaxContribution  int64 // per-transaction value upper bound

	Released  bool  // flips false->true exactly once
	Withdrawn int64 // total value moved out by the administrator
}

// StateAt computes the sale phase at the given instant.
// remaining is the inventory left after all accepted purchases.
func (r *SaleRecord) StateAt(now time.Time, remaining int64) SaleState {
	if r == nil || r.EndTime.IsZero() {
		return SaleStateNotStarted
	}
	if now.Before(r.EndTime) && remaining > 0 {
		return SaleStateActive
	}
	if r.Released {
		return SaleStateEndedReleased
	}
	return SaleStateEndedUnreleased
}
