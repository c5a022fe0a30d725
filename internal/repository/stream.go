package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
)

// The watchers turn Mongo change streams into snapshot events: every change
// triggers a re-query of the full current document set. Consumers reconcile
// against complete state, never deltas, so dropping intermediate snapshots
// is safe — the channels have capacity one and are written latest-wins.

// WatchMessages delivers the ordered message set for chatID: once
// immediately, then again after every change to the messages collection.
// The channel closes when ctx is cancelled or the stream dies; the caller's
// transport layer reconnects by resubscribing.
func (r *MongoRepository) WatchMessages(ctx context.Context, chatID string) (<-chan []domain.Message, error) {
	// Delete events carry no fullDocument, so the stream cannot be filtered
	// by chat_id server-side. Watch the collection and filter via re-query.
	cs, err := r.msgColl.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, err
	}

	out := make(chan []domain.Message, 1)
	go func() {
		defer close(out)
		defer cs.Close(context.Background())

		if snap, err := r.ListMessages(ctx, chatID); err == nil {
			pushLatest(out, snap)
		} else {
			r.log.Warn("initial message snapshot failed", zap.String("chat_id", chatID), zap.Error(err))
		}

		for cs.Next(ctx) {
			snap, err := r.ListMessages(ctx, chatID)
			if err != nil {
				// treated as "no update yet"; the next event re-queries
				r.log.Warn("message snapshot failed", zap.String("chat_id", chatID), zap.Error(err))
				continue
			}
			pushLatest(out, snap)
		}
		if err := cs.Err(); err != nil && ctx.Err() == nil {
			r.log.Warn("message stream closed", zap.String("chat_id", chatID), zap.Error(err))
		}
	}()
	return out, nil
}

// WatchSettings re-reads the settings singleton after every change to the
// settings collection. Fetch failures are skipped; the consumer keeps its
// previous value.
func (r *MongoRepository) WatchSettings(ctx context.Context) (<-chan domain.Settings, error) {
	cs, err := r.setColl.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, err
	}

	out := make(chan domain.Settings, 1)
	go func() {
		defer close(out)
		defer cs.Close(context.Background())

		for cs.Next(ctx) {
			s, err := r.GetSettings(ctx)
			if err != nil {
				r.log.Warn("settings fetch failed", zap.Error(err))
				continue
			}
			pushLatest(out, s)
		}
	}()
	return out, nil
}

// pushLatest replaces whatever is queued so the channel always carries the
// most recent snapshot.
func pushLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
