package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the purchase ledger as CSV string.
func RenderCSV(purchases []PurchaseRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("seq,purchase_id,participant,value,quantity,timestamp_ms\n")

	// Rows
	for _, p := range purchases {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%d,%d,%d\n",
			p.Seq,
			p.PurchaseID,
			p.Participant,
			p.Value,
			p.Quantity,
			p.Timestamp,
		))
	}

	return sb.String()
}
