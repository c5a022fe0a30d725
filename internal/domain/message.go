package domain

import "time"

// Message is one chat message document. The store assigns the ID and the
// creation timestamp is set server-side at insert.
type Message struct {
	ID         string    `bson:"_id" json:"id"`
	ChatID     string    `bson:"chat_id" json:"chat_id"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	Text       string    `bson:"text" json:"text"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	Seen       bool      `bson:"seen" json:"seen"`
	Saved      bool      `bson:"saved" json:"saved"`
	DeletedFor []string  `bson:"deleted_for" json:"deleted_for"`
}

// DeletedForUser reports whether userID soft-deleted this message.
func (m *Message) DeletedForUser(userID string) bool {
	for _, id := range m.DeletedFor {
		if id == userID {
			return true
		}
	}
	return false
}

// Expired reports whether the message is past the retention window and not
// protected by save.
func (m *Message) Expired(now time.Time, retention time.Duration) bool {
	return !m.Saved && now.Sub(m.CreatedAt) > retention
}
