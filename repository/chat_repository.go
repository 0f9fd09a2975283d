package repository

import (
	"context"

	"github.com/akinalp/connectplus/models"
)

// ChatRepository stores two-party conversations and their messages.
type ChatRepository interface {
	// CreateConversation inserts a conversation whose pair is canonical.
	// An existing conversation for the pair returns pkg.ErrAlreadyExists.
	CreateConversation(ctx context.Context, c *models.Conversation) error

	GetConversationByID(ctx context.Context, id string) (*models.Conversation, error)

	GetConversationByPair(ctx context.Context, pair models.Pair) (*models.Conversation, error)

	// ListConversations returns the user's conversations with the peer
	// profile and the time of the latest message.
	ListConversations(ctx context.Context, userID string) ([]models.ConversationView, error)

	// LastMessage returns the newest message, or pkg.ErrNotFound for an
	// empty conversation.
	LastMessage(ctx context.Context, conversationID string) (*models.Message, error)

	CreateMessage(ctx context.Context, m *models.Message) error

	// ListMessages returns messages in insertion order (seq ascending).
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
}
