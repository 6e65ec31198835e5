package sync

import (
	"time"

	"github.com/SuWh1/InternAI-sub001/internal/domain/roadmap"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS TRANSACTION
// An optimistic mutation is carried as an explicit value holding both the
// pre-mutation and post-mutation progress arrays, so rollback is a data
// operation rather than a restoration of captured variables.
// ══════════════════════════════════════════════════════════════════════════════

// TxStatus tracks a transaction through its lifecycle.
type TxStatus string

const (
	// TxClean means the transaction holds a snapshot but no mutation has
	// been applied to session state yet.
	TxClean TxStatus = "clean"

	// TxApplied means Next has been applied to session state optimistically
	// and a persist call is pending.
	TxApplied TxStatus = "optimistically_applied"

	// TxConfirmed means the remote store accepted the full progress array.
	TxConfirmed TxStatus = "confirmed"

	// TxRolledBack means the persist failed and Previous was restored.
	TxRolledBack TxStatus = "rolled_back"
)

// Transaction is one optimistic progress mutation in flight. Previous and
// Next are independent deep copies; neither aliases session state.
type Transaction struct {
	WeekNumber int
	ItemID     string
	Previous   []roadmap.WeekProgress
	Next       []roadmap.WeekProgress
	Status     TxStatus
	StartedAt  time.Time
}

// Begin snapshots the current progress array into a fresh transaction.
// Mutations are made against Next; Previous stays untouched for rollback.
func Begin(current []roadmap.WeekProgress, weekNumber int, itemID string) *Transaction {
	return &Transaction{
		WeekNumber: weekNumber,
		ItemID:     itemID,
		Previous:   roadmap.CloneProgress(current),
		Next:       roadmap.CloneProgress(current),
		Status:     TxClean,
		StartedAt:  time.Now(),
	}
}

// MarkApplied records that Next is now the visible session state.
func (t *Transaction) MarkApplied() {
	t.Status = TxApplied
}

// MarkConfirmed records that the remote store accepted Next.
func (t *Transaction) MarkConfirmed() {
	t.Status = TxConfirmed
}

// MarkRolledBack records that the persist failed and returns the snapshot
// to restore as session state.
func (t *Transaction) MarkRolledBack() []roadmap.WeekProgress {
	t.Status = TxRolledBack
	return t.Previous
}
