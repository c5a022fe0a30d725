// Package settings keeps the admin-managed global configuration live. Every
// open conversation view reads it; absence or failure falls back to the
// default retention so message display never stalls on configuration.
package settings

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
)

const resubscribeWait = 3 * time.Second

// Source is the store side of the subscription, implemented by the Mongo
// repository.
type Source interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	WatchSettings(ctx context.Context) (<-chan domain.Settings, error)
}

type Watcher struct {
	src       Source
	log       *zap.Logger
	retryWait time.Duration

	mu      sync.Mutex
	current domain.Settings
	subs    map[int]chan domain.Settings
	nextID  int
}

func NewWatcher(src Source, log *zap.Logger) *Watcher {
	return &Watcher{
		src:       src,
		log:       log,
		retryWait: resubscribeWait,
		current:   domain.DefaultSettings(),
		subs:      make(map[int]chan domain.Settings),
	}
}

// Run fetches the initial settings and forwards remote changes to all
// subscribers until ctx is cancelled. The subscription is transient: a
// dropped or unavailable stream keeps the last known (or default) value and
// is reopened after retryWait, so views converge without a process restart.
func (w *Watcher) Run(ctx context.Context) {
	for {
		w.follow(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryWait):
		}
	}
}

// follow runs one fetch-and-watch cycle, returning when the stream drops.
func (w *Watcher) follow(ctx context.Context) {
	if s, err := w.src.GetSettings(ctx); err == nil {
		w.set(s)
	} else {
		w.log.Warn("settings fetch failed, keeping last known value", zap.Error(err))
	}

	ch, err := w.src.WatchSettings(ctx)
	if err != nil {
		w.log.Warn("settings subscription unavailable", zap.Error(err))
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-ch:
			if !ok {
				w.log.Warn("settings stream closed, resubscribing")
				return
			}
			w.set(s)
		}
	}
}

// Current returns the effective settings for informational use.
func (w *Watcher) Current() domain.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Subscribe registers a per-view subscriber. The channel immediately yields
// the current value and then every update, latest-wins. The returned cancel
// func removes the subscription when the view closes.
func (w *Watcher) Subscribe() (<-chan domain.Settings, func()) {
	ch := make(chan domain.Settings, 1)

	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = ch
	ch <- w.current
	w.mu.Unlock()

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if sub, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (w *Watcher) set(s domain.Settings) {
	if s.RetentionHours <= 0 {
		s.RetentionHours = domain.DefaultRetentionHours
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = s
	for _, sub := range w.subs {
		select {
		case sub <- s:
		default:
			select {
			case <-sub:
			default:
			}
			sub <- s
		}
	}
}
