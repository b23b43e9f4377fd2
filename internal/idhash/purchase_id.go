package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePurchaseID computes a deterministic purchase_id using SHA256.
// Formula: SHA256(sale_id|participant|seq)
// Returns hex-encoded hash (64 characters).
func ComputePurchaseID(saleID, participant string, seq int64) string {
	data := fmt.Sprintf("%s|%s|%d", saleID, participant, seq)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
