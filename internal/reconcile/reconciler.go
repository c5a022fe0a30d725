// Package reconcile derives the visible message list and the side effects
// (retention expiries, read receipts) from a full conversation snapshot.
// The store replays complete snapshots on every change rather than diffs, so
// side effects are deduplicated through a per-view Ledger.
package reconcile

import (
	"sort"
	"time"

	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
)

// Pass is the outcome of one reconciliation: the ordered visible list plus
// the side effects to issue. The reconciler only describes intent; the
// session's executor performs the actual store calls.
type Pass struct {
	Visible     []domain.Message
	Expiries    []string
	SeenUpdates []string
}

// Reconcile classifies every message of the snapshot for the given viewer.
// Precedence per message: expired-and-unsaved beats everything (the message
// is destroyed, never shown stale), then per-viewer soft deletion, then
// visible. Visible messages come out in ascending creation order no matter
// how the snapshot arrived.
//
// Expiry and seen intents are gated by the ledger so that replayed
// snapshots do not re-issue writes for messages already actioned.
func Reconcile(snapshot []domain.Message, viewerID string, now time.Time, retention time.Duration, ledger *Ledger) Pass {
	msgs := make([]domain.Message, len(snapshot))
	copy(msgs, snapshot)
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})

	var p Pass
	for _, m := range msgs {
		switch {
		case m.Expired(now, retention):
			// excluded from the visible list even while the destroy is
			// still in flight
			if ledger.markExpiring(m.ID) {
				p.Expiries = append(p.Expiries, m.ID)
			}
		case m.DeletedForUser(viewerID):
			// hidden for this viewer only; the document stays put
		default:
			p.Visible = append(p.Visible, m)
		}
	}

	for _, m := range p.Visible {
		if m.SenderID != viewerID && !m.Seen && ledger.markSeen(m.ID) {
			p.SeenUpdates = append(p.SeenUpdates, m.ID)
		}
	}

	return p
}
