package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
)

const recentLimit = 99

// RecentCache keeps the newest messages per conversation in Redis for quick
// first paint while the snapshot subscription warms up. Best-effort: every
// error is swallowed, the store stays authoritative.
type RecentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRecentCache(rdb *redis.Client) *RecentCache {
	return &RecentCache{rdb: rdb, ttl: 24 * time.Hour}
}

func key(chatID string) string { return "chat:" + chatID + ":recent" }

func (c *RecentCache) Push(ctx context.Context, m *domain.Message) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	k := key(m.ChatID)
	_ = c.rdb.LPush(ctx, k, b).Err()
	_ = c.rdb.LTrim(ctx, k, 0, recentLimit).Err()
	_ = c.rdb.Expire(ctx, k, c.ttl).Err()
}

// Invalidate drops the cached list after a hard delete so a destroyed
// message can never be served stale.
func (c *RecentCache) Invalidate(ctx context.Context, chatID string) {
	_ = c.rdb.Del(ctx, key(chatID)).Err()
}

// Recent returns the cached newest-first list, empty on any miss or error.
func (c *RecentCache) Recent(ctx context.Context, chatID string) []domain.Message {
	vals, err := c.rdb.LRange(ctx, key(chatID), 0, recentLimit).Result()
	if err != nil {
		return nil
	}
	out := make([]domain.Message, 0, len(vals))
	for _, v := range vals {
		var m domain.Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}
