// Package ledger reconstructs safe balances from two event streams: full
// physical counts (inventories, acting as checkpoints) and signed movements
// (deltas). Reconstruction is pure over already-fetched collections so it is
// cache-safe and testable without a database.
package ledger

import (
	"time"

	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
)

// BalanceInfo is the reconstructed state of one safe.
type BalanceInfo struct {
	AmountCents     int64      `json:"amount_cents"`
	CheckpointAt    *time.Time `json:"checkpoint_at,omitempty"`
	CheckpointCents int64      `json:"checkpoint_cents"`
}

// SelectCheckpoint picks the authoritative inventory: the most recent one
// counted at or before asOf (or overall when asOf is nil). Inventories
// sharing the same instant tie-break on the highest insert sequence, so the
// result is deterministic regardless of input order. Returns nil when no
// inventory qualifies.
func SelectCheckpoint(inventories []models.Inventory, asOf *time.Time) *models.Inventory {
	var best *models.Inventory
	for i := range inventories {
		inv := &inventories[i]
		if asOf != nil && inv.CountedAt.After(*asOf) {
			continue
		}
		if best == nil ||
			inv.CountedAt.After(best.CountedAt) ||
			(inv.CountedAt.Equal(best.CountedAt) && inv.Seq > best.Seq) {
			best = inv
		}
	}
	return best
}

// Reconstruct computes the balance at asOf (or now, when nil): the
// checkpoint total plus the signed sum of live movements recorded at or
// after the checkpoint instant. A movement at the exact checkpoint instant
// counts; the physical count is treated as happening first. With no
// checkpoint every live movement contributes.
func Reconstruct(inventories []models.Inventory, movements []models.Movement, asOf *time.Time) BalanceInfo {
	info := BalanceInfo{}

	checkpoint := SelectCheckpoint(inventories, asOf)
	if checkpoint != nil {
		at := checkpoint.CountedAt
		info.CheckpointAt = &at
		info.CheckpointCents = checkpoint.TotalCents
	}

	balance := info.CheckpointCents
	for i := range movements {
		mv := &movements[i]
		if mv.IsDeleted() {
			continue
		}
		if checkpoint != nil && mv.HappenedAt.Before(checkpoint.CountedAt) {
			continue
		}
		if asOf != nil && mv.HappenedAt.After(*asOf) {
			continue
		}
		balance += mv.SignedAmountCents()
	}

	info.AmountCents = balance
	return info
}
