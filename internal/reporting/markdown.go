package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Sale Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Sale ID | %s |\n", r.Summary.SaleID))
	sb.WriteString(fmt.Sprintf("| State | %s |\n", r.Summary.State))
	sb.WriteString(fmt.Sprintf("| Started | %s |\n", r.Summary.StartedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Deadline | %s |\n", r.Summary.EndTime.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Unit Price | %d |\n", r.Summary.UnitPrice))
	sb.WriteString(fmt.Sprintf("| Inventory At Start | %d |\n", r.Summary.InventoryAtStart))
	sb.WriteString(fmt.Sprintf("| Tokens Allocated | %d |\n", r.Summary.TokensAllocated))
	sb.WriteString(fmt.Sprintf("| Remaining | %d |\n", r.Summary.Remaining))
	sb.WriteString(fmt.Sprintf("| Value Collected | %d |\n", r.Summary.Collected))
	sb.WriteString(fmt.Sprintf("| Value Withdrawn | %d |\n", r.Summary.Withdrawn))
	sb.WriteString(fmt.Sprintf("| Released | %t |\n", r.Summary.Released))
	sb.WriteString(fmt.Sprintf("| Purchases | %d |\n", r.Summary.PurchaseCount))
	sb.WriteString(fmt.Sprintf("| Participants | %d |\n", r.Summary.ParticipantCount))
	sb.WriteString(fmt.Sprintf("| Allowlist Size | %d |\n", r.Summary.AllowlistSize))
	sb.WriteString("\n")

	if r.Summary.InventoryConserved {
		sb.WriteString("**Inventory reconciled:** allocated + remaining = inventory at start.\n\n")
	} else {
		sb.WriteString("**INVENTORY MISMATCH:** allocated + remaining != inventory at start.\n\n")
	}

	// Allocations
	sb.WriteString("## Participant Allocations\n\n")
	if len(r.Participants) > 0 {
		sb.WriteString("| Participant | Purchases | Value | Tokens |\n")
		sb.WriteString("|-------------|-----------|-------|--------|\n")
		for _, p := range r.Participants {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d |\n",
				p.Participant, p.Purchases, p.Value, p.Quantity))
		}
	} else {
		sb.WriteString("No purchases recorded.\n")
	}
	sb.WriteString("\n")

	// Purchase ledger
	sb.WriteString("## Purchase Ledger\n\n")
	if len(r.Purchases) > 0 {
		sb.WriteString("| Seq | Purchase ID | Participant | Value | Tokens | Timestamp (ms) |\n")
		sb.WriteString("|-----|-------------|-------------|-------|--------|----------------|\n")
		for _, p := range r.Purchases {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %d | %d |\n",
				p.Seq, p.PurchaseID, p.Participant, p.Value, p.Quantity, p.Timestamp))
		}
	} else {
		sb.WriteString("No purchases recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
