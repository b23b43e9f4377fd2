package domain

// Sale event types emitted by the coordinator.
const (
	EventSaleStarted        = "SALE_STARTED"
	EventParticipantAllowed = "PARTICIPANT_ALLOWED"
	EventContribution       = "CONTRIBUTION"
	EventRelease            = "RELEASE"
	EventWithdrawal         = "WITHDRAWAL"
)

// SaleEvent is a notification record describing one state change of the
// sale. Events feed the WebSocket broadcast and the analytics store; they
// are informational and never read back to rebuild coordinator state.
type SaleEvent struct {
	SaleID      string   `json:"sale_id"`
	Type        string   `json:"type"`
	Participant Identity `json:"participant,omitempty"` // contributor or allowed identity
	Destination Identity `json:"destination,omitempty"` // withdrawal target
	Value       int64    `json:"value,omitempty"`
	Quantity    int64    `json:"quantity,omitempty"`
	TimestampMs int64    `json:"timestamp_ms"`
}
