package domain

import "time"

// Conversation holds the membership of a two-party chat. The document ID is
// the derived chat key, so both clients upsert the same doc without
// coordination. Conversations are never deleted; retention acts on messages.
type Conversation struct {
	ID        string    `bson:"_id" json:"id"`
	Members   []string  `bson:"members" json:"members"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// HasMember reports whether userID participates in the conversation.
func (c *Conversation) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}
