package domain

// Purchase is an immutable record of one accepted contribution. The ordered
// sequence of purchases for a sale is the sole source of truth for release:
// remaining inventory and collected value are reconstructed by folding over it.
type Purchase struct {
	PurchaseID  string   // deterministic hash, see internal/idhash
	SaleID      string
	Seq         int64    // insertion-order index, 0-based, dense
	Participant Identity
	Value       int64 // contributed value retained by the coordinator
	Quantity    int64 // tokens allocated, Value * UnitPrice
	Timestamp   int64 // acceptance time, unix ms
}
