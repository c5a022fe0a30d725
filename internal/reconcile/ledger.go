package reconcile

import "sync"

// Ledger remembers which message IDs already have a destroy or seen-mark
// issued for this view. It lives for the lifetime of one open conversation
// view and is dropped with it. A failed request un-marks its ID so the next
// pass retries (the message still satisfies the predicate until the write
// lands).
type Ledger struct {
	mu       sync.Mutex
	expiring map[string]struct{}
	seen     map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		expiring: make(map[string]struct{}),
		seen:     make(map[string]struct{}),
	}
}

// markExpiring reports whether id was not yet marked, recording it.
func (l *Ledger) markExpiring(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.expiring[id]; ok {
		return false
	}
	l.expiring[id] = struct{}{}
	return true
}

func (l *Ledger) markSeen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[id]; ok {
		return false
	}
	l.seen[id] = struct{}{}
	return true
}

// retryExpiry clears the expiry mark after a failed destroy.
func (l *Ledger) retryExpiry(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.expiring, id)
}

// retrySeen clears the seen mark after a failed update.
func (l *Ledger) retrySeen(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, id)
}
