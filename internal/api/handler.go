package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/auth"
	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
	"github.com/fathima-sithara/ephemeral-chat/internal/service"
	"github.com/fathima-sithara/ephemeral-chat/internal/settings"
)

// MessageAPI is the mutation surface exposed to clients.
type MessageAPI interface {
	Send(ctx context.Context, senderID, peerID, text string) (*domain.Message, error)
	ToggleSave(ctx context.Context, messageID string, currentSaved bool) error
	DeleteForSelf(ctx context.Context, messageID, userID string) error
	DeleteForEveryone(ctx context.Context, messageID, callerID string) error
}

type AdminAPI interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	UpdateSettings(ctx context.Context, wallpaperURL string, retentionHours float64) (domain.Settings, error)
}

type Handlers struct {
	msgs    MessageAPI
	admin   AdminAPI
	watcher *settings.Watcher
	log     *zap.Logger
}

func NewHandlers(msgs MessageAPI, admin AdminAPI, watcher *settings.Watcher, log *zap.Logger) *Handlers {
	return &Handlers{msgs: msgs, admin: admin, watcher: watcher, log: log}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrBadRequest),
		errors.Is(err, service.ErrInvalidRetention):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotParticipant):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handlers) sendMessage(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	user := c.Locals("user_id").(string)
	peer := c.Params("peer_id")

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	msg, err := h.msgs.Send(ctx, user, peer, req.Text)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "ok", "data": msg})
}

func (h *Handlers) toggleSave(c *fiber.Ctx) error {
	var req struct {
		Saved bool `json:"saved"` // current state as the client sees it
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	msgID := c.Params("msg_id")
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	if err := h.msgs.ToggleSave(ctx, msgID, req.Saved); err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handlers) deleteMessage(c *fiber.Ctx) error {
	msgID := c.Params("msg_id")
	user := c.Locals("user_id").(string)
	delType := c.Query("type", "me")

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	var err error
	if delType == "all" {
		err = h.msgs.DeleteForEveryone(ctx, msgID, user)
	} else {
		err = h.msgs.DeleteForSelf(ctx, msgID, user)
	}
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// getSettings reports the effective wallpaper/retention for display.
func (h *Handlers) getSettings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "data": h.watcher.Current()})
}

func (h *Handlers) updateSettings(c *fiber.Ctx) error {
	if role, _ := c.Locals("role").(string); role != auth.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin only"})
	}

	var req struct {
		WallpaperURL   string  `json:"wallpaper_url"`
		RetentionHours float64 `json:"retention_hours"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	st, err := h.admin.UpdateSettings(c.Context(), req.WallpaperURL, req.RetentionHours)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok", "data": st})
}
