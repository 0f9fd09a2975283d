package models

import (
	"strings"
	"time"
)

// Conversation is a two-party message thread. User1ID < User2ID always holds.
type Conversation struct {
	ID        string    `json:"id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Pair returns the canonical pair of the conversation.
func (c *Conversation) Pair() Pair {
	return Pair{Low: c.User1ID, High: c.User2ID}
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.Pair().Contains(userID)
}

// ConversationView is one entry of the chat list.
type ConversationView struct {
	ID            string      `json:"id"`
	Peer          UserSummary `json:"peer"`
	CreatedAt     time.Time   `json:"created_at"`
	LastMessageAt *time.Time  `json:"last_message_at"` // nil until the first message
}

// Message belongs to exactly one conversation and never changes after it is
// created. Seq is the insertion order inside the conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	Seq            int64     `json:"seq"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateConversationRequest opens (or reopens) a conversation with a user.
type CreateConversationRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (r *CreateConversationRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	return validateStruct(r)
}

// PostMessageRequest carries the message text. Blank content is rejected by
// the chat service with ErrEmptyContent, not here.
type PostMessageRequest struct {
	Content string `json:"content"`
}
