package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/auth"
	"github.com/fathima-sithara/ephemeral-chat/internal/config"
	"github.com/fathima-sithara/ephemeral-chat/internal/metrics"
	"github.com/fathima-sithara/ephemeral-chat/internal/settings"
	"github.com/fathima-sithara/ephemeral-chat/internal/ws"
)

func NewServer(cfg *config.Config, msgs MessageAPI, admin AdminAPI, watcher *settings.Watcher, jv *auth.Validator, rdb *redis.Client, wsrv *ws.Server, log *zap.Logger) *fiber.App {
	app := fiber.New()
	app.Use(fiberlogger.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	h := NewHandlers(msgs, admin, watcher, log)

	api := app.Group("/v1")
	api.Use(JWTAuth(jv))
	if rdb != nil && cfg.App.Rate > 0 {
		rl := NewRateLimiter(rdb, "rl:chat", cfg.App.Rate, time.Minute, log)
		api.Use(rl.ByKey(func(c *fiber.Ctx) string {
			id, _ := c.Locals("user_id").(string)
			return id
		}))
	}

	api.Post("/chats/:peer_id/messages", h.sendMessage)
	api.Post("/messages/:msg_id/save", h.toggleSave)
	api.Delete("/messages/:msg_id", h.deleteMessage)
	api.Get("/settings", h.getSettings)
	api.Put("/admin/settings", h.updateSettings)

	// Live view stream; token travels as a query param since browsers cannot
	// set headers on websocket upgrades.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsrv.Handler()))

	return app
}
