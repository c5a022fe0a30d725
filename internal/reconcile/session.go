package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
	"github.com/fathima-sithara/ephemeral-chat/internal/metrics"
)

// Executor performs the side effects described by a Pass. Both operations
// must be idempotent: racing viewers may issue the same destroy or seen-mark
// and "already gone" counts as success.
type Executor interface {
	Destroy(ctx context.Context, messageID string) error
	MarkSeen(ctx context.Context, messageID string) error
}

// Session drives reconciliation for one open conversation view. Passes run
// strictly sequentially: a pass's side effects complete before the next
// snapshot is taken up, and the snapshot channel carries only the latest
// state, so intermediate snapshots that arrive mid-pass are dropped.
type Session struct {
	viewerID string
	chatID   string

	snapshots <-chan []domain.Message
	settings  <-chan domain.Settings
	exec      Executor
	ledger    *Ledger
	log       *zap.Logger
	out       chan Pass

	retention time.Duration
	lastSnap  []domain.Message
	hasSnap   bool

	now func() time.Time // test hook
}

func NewSession(viewerID, chatID string, snapshots <-chan []domain.Message, settings <-chan domain.Settings, exec Executor, log *zap.Logger) *Session {
	return &Session{
		viewerID:  viewerID,
		chatID:    chatID,
		snapshots: snapshots,
		settings:  settings,
		exec:      exec,
		ledger:    NewLedger(),
		log:       log,
		out:       make(chan Pass, 1),
		retention: domain.DefaultSettings().Retention(),
		now:       time.Now,
	}
}

// Passes streams the reconciled output for the presenter. The channel has
// capacity one and is written latest-wins, so a slow consumer only ever sees
// the most recent pass. Closed when the session ends.
func (s *Session) Passes() <-chan Pass { return s.out }

// Run processes snapshot and settings events until ctx is cancelled or the
// snapshot stream closes. A retention change re-evaluates the cached
// snapshot immediately instead of waiting for the next message event.
func (s *Session) Run(ctx context.Context) {
	metrics.OpenSessions.Inc()
	defer metrics.OpenSessions.Dec()
	defer close(s.out)

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-s.settings:
			if !ok {
				s.settings = nil
				continue
			}
			s.retention = st.Retention()
			if s.hasSnap {
				s.pass(ctx, s.lastSnap)
			}
		case snap, ok := <-s.snapshots:
			if !ok {
				return
			}
			s.lastSnap = snap
			s.hasSnap = true
			s.pass(ctx, snap)
		}
	}
}

func (s *Session) pass(ctx context.Context, snap []domain.Message) {
	p := Reconcile(snap, s.viewerID, s.now(), s.retention, s.ledger)
	metrics.ReconcilePasses.Inc()

	// Side-effect failures are log-and-continue: the document still matches
	// the predicate, so the next snapshot event retries.
	for _, id := range p.Expiries {
		if err := s.exec.Destroy(ctx, id); err != nil {
			s.ledger.retryExpiry(id)
			metrics.SideEffectFailures.Inc()
			s.log.Warn("expiry destroy failed",
				zap.String("chat_id", s.chatID), zap.String("msg_id", id), zap.Error(err))
			continue
		}
		metrics.MessagesExpired.Inc()
	}
	for _, id := range p.SeenUpdates {
		if err := s.exec.MarkSeen(ctx, id); err != nil {
			s.ledger.retrySeen(id)
			metrics.SideEffectFailures.Inc()
			s.log.Warn("seen mark failed",
				zap.String("chat_id", s.chatID), zap.String("msg_id", id), zap.Error(err))
			continue
		}
		metrics.SeenMarks.Inc()
	}

	for {
		select {
		case s.out <- p:
			return
		default:
			select {
			case <-s.out:
			default:
			}
		}
	}
}
