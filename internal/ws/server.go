// Package ws delivers the reconciled conversation view to clients. Each
// connection is one open conversation view: it owns a message subscription,
// a settings subscription and a reconcile session, all torn down together
// when the socket closes.
package ws

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/auth"
	"github.com/fathima-sithara/ephemeral-chat/internal/chatkey"
	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
	"github.com/fathima-sithara/ephemeral-chat/internal/reconcile"
	"github.com/fathima-sithara/ephemeral-chat/internal/settings"
)

const (
	readWait  = 60 * time.Second
	writeWait = 10 * time.Second
	pingEvery = 50 * time.Second
)

// Store is what a view session needs from the repository: the snapshot
// subscription plus the two idempotent side effects.
type Store interface {
	WatchMessages(ctx context.Context, chatID string) (<-chan []domain.Message, error)
	MarkSeen(ctx context.Context, messageID string) error
	DeleteMessage(ctx context.Context, messageID string) error
}

// executor adapts the repository to the reconcile side-effect contract.
type executor struct{ store Store }

func (e executor) Destroy(ctx context.Context, id string) error { return e.store.DeleteMessage(ctx, id) }
func (e executor) MarkSeen(ctx context.Context, id string) error { return e.store.MarkSeen(ctx, id) }

type Server struct {
	store   Store
	watcher *settings.Watcher
	jv      *auth.Validator
	log     *zap.Logger
}

func NewServer(store Store, watcher *settings.Watcher, jv *auth.Validator, log *zap.Logger) *Server {
	return &Server{store: store, watcher: watcher, jv: jv, log: log}
}

type viewEvent struct {
	Event          string           `json:"event"`
	Messages       []domain.Message `json:"messages"`
	WallpaperURL   string           `json:"wallpaper_url"`
	RetentionHours float64          `json:"retention_hours"`
}

// Handler is the websocket.Handler for GET /ws?peer_id=...&token=...
func (s *Server) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		claims, err := s.jv.Validate(conn.Query("token"))
		if err != nil {
			s.log.Warn("ws auth failed", zap.Error(err))
			return
		}
		peer := conn.Query("peer_id")
		if peer == "" || peer == claims.UserID {
			return
		}
		chatID := chatkey.Derive(claims.UserID, peer)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		snaps, err := s.store.WatchMessages(ctx, chatID)
		if err != nil {
			s.log.Error("message subscription failed", zap.String("chat_id", chatID), zap.Error(err))
			return
		}
		setCh, unsubscribe := s.watcher.Subscribe()
		defer unsubscribe()

		sess := reconcile.NewSession(claims.UserID, chatID, snaps, setCh, executor{store: s.store}, s.log)
		go sess.Run(ctx)
		go s.writePump(conn, sess.Passes(), cancel)

		// The client sends nothing meaningful; reading just detects close.
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, passes <-chan reconcile.Pass, cancel func()) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	defer cancel()

	for {
		select {
		case p, ok := <-passes:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			st := s.watcher.Current()
			ev := viewEvent{
				Event:          "view.update",
				Messages:       p.Visible,
				WallpaperURL:   st.WallpaperURL,
				RetentionHours: st.RetentionHours,
			}
			if ev.Messages == nil {
				ev.Messages = []domain.Message{}
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Warn("ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
