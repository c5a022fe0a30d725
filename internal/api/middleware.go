package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/auth"
)

// JWTAuth validates the bearer token and stashes the caller identity in
// Locals for the handlers.
func JWTAuth(jv *auth.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hdr := c.Get("Authorization")
		if hdr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing auth"})
		}
		const pref = "Bearer "
		if !strings.HasPrefix(hdr, pref) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid auth"})
		}
		claims, err := jv.Validate(hdr[len(pref):])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals("user_id", claims.UserID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

// RateLimiter throttles callers through a shared redis counter, one key per
// caller per window. Limiting is best effort, like the recent-message cache:
// if redis is unreachable the request goes through and the failure is logged.
type RateLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	log    *zap.Logger
}

func NewRateLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration, log *zap.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window, log: log}
}

// ByKey limits each key to limit requests per window. The first increment in
// a window arms the counter's expiry.
func (r *RateLimiter) ByKey(keyFunc func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := r.prefix + ":" + keyFunc(c)
		count, err := r.rdb.Incr(c.Context(), key).Result()
		if err != nil {
			r.log.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			r.rdb.Expire(c.Context(), key, r.window)
		}
		if count > int64(r.limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
