package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/cache"
	"github.com/fathima-sithara/ephemeral-chat/internal/chatkey"
	"github.com/fathima-sithara/ephemeral-chat/internal/domain"
	"github.com/fathima-sithara/ephemeral-chat/internal/events"
	"github.com/fathima-sithara/ephemeral-chat/internal/repository"
)

var (
	ErrEmptyMessage   = errors.New("message text required")
	ErrBadRequest     = errors.New("bad request")
	ErrNotParticipant = errors.New("caller is not a conversation participant")
)

// Store is the subset of the repository the mutation API needs.
type Store interface {
	EnsureConversation(ctx context.Context, id string, members []string) error
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	SaveMessage(ctx context.Context, m *domain.Message) error
	GetMessageByID(ctx context.Context, id string) (*domain.Message, error)
	SetSaved(ctx context.Context, id string, saved bool) error
	SoftDelete(ctx context.Context, id, userID string) error
	DeleteMessage(ctx context.Context, id string) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, v interface{}) error
}

// MessageService is the user-facing mutation API. Every operation is one
// atomic document write; anything already applied by a racing client (a
// vanished message most often) is a soft success, never a user error.
type MessageService struct {
	store Store
	cache *cache.RecentCache // optional
	pub   Publisher          // optional
	log   *zap.Logger
}

func NewMessageService(store Store, c *cache.RecentCache, pub Publisher, log *zap.Logger) *MessageService {
	return &MessageService{store: store, cache: c, pub: pub, log: log}
}

// Send creates a message from senderID to peerID. The conversation doc is
// upserted on first contact so both sides agree on membership without
// coordination.
func (s *MessageService) Send(ctx context.Context, senderID, peerID, text string) (*domain.Message, error) {
	if senderID == "" || peerID == "" {
		return nil, ErrBadRequest
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	key := chatkey.Derive(senderID, peerID)
	members := []string{senderID, peerID}
	sort.Strings(members)
	if err := s.store.EnsureConversation(ctx, key, members); err != nil {
		return nil, err
	}

	m := &domain.Message{
		ID:         uuid.NewString(),
		ChatID:     key,
		SenderID:   senderID,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
		Seen:       false,
		Saved:      false,
		DeletedFor: []string{},
	}
	if err := s.store.SaveMessage(ctx, m); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Push(ctx, m)
	}
	if s.pub != nil {
		if err := s.pub.Publish(ctx, m.ID, map[string]interface{}{"event": events.EventMessageNew, "message": m}); err != nil {
			s.log.Warn("publish message.new failed", zap.String("msg_id", m.ID), zap.Error(err))
		}
	}
	return m, nil
}

// ToggleSave flips the save flag. Last-write-wins under retry; a message
// destroyed by a racing expiry is treated as already applied.
func (s *MessageService) ToggleSave(ctx context.Context, messageID string, currentSaved bool) error {
	if messageID == "" {
		return ErrBadRequest
	}
	err := s.store.SetSaved(ctx, messageID, !currentSaved)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// DeleteForSelf hides the message for userID only. Set-union semantics,
// safe to call twice.
func (s *MessageService) DeleteForSelf(ctx context.Context, messageID, userID string) error {
	if messageID == "" || userID == "" {
		return ErrBadRequest
	}
	err := s.store.SoftDelete(ctx, messageID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// DeleteForEveryone destroys the message outright. Only a participant of the
// owning conversation may do this; the check happens here, server-side, not
// in the client.
func (s *MessageService) DeleteForEveryone(ctx context.Context, messageID, callerID string) error {
	if messageID == "" || callerID == "" {
		return ErrBadRequest
	}

	m, err := s.store.GetMessageByID(ctx, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil // a racing expiry won; already gone
	}
	if err != nil {
		return err
	}

	if !s.isParticipant(ctx, m.ChatID, callerID) {
		return ErrNotParticipant
	}

	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, m.ChatID)
	}
	if s.pub != nil {
		if err := s.pub.Publish(ctx, messageID, map[string]interface{}{"event": events.EventMessageDeleted, "msg_id": messageID, "chat_id": m.ChatID}); err != nil {
			s.log.Warn("publish message.deleted failed", zap.String("msg_id", messageID), zap.Error(err))
		}
	}
	return nil
}

func (s *MessageService) isParticipant(ctx context.Context, chatID, userID string) bool {
	conv, err := s.store.GetConversation(ctx, chatID)
	if err == nil {
		return conv.HasMember(userID)
	}
	// membership doc missing (pre-dates EnsureConversation): the chat key
	// itself names both participants
	a, b := chatkey.Participants(chatID)
	return userID == a || userID == b
}
