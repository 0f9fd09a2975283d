package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/akinalp/connectplus/database"
	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/pkg/events"
	"github.com/akinalp/connectplus/pkg/metrics"
	"github.com/akinalp/connectplus/repository"
	"github.com/akinalp/connectplus/ws"
)

// ChatService is the conversation store: one conversation per pair of users
// and an append-only, ordered message history. Chat partners do not need to
// be friends.
type ChatService interface {
	// GetOrCreateConversation returns the conversation between userID and
	// peerID, creating it on first contact.
	GetOrCreateConversation(ctx context.Context, userID, peerID string) (*models.Conversation, error)

	// PostMessage appends a message. Blank text fails with ErrEmptyContent,
	// a sender outside the conversation with ErrForbidden.
	PostMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error)

	// ListMessages returns the history oldest first. Participants only.
	ListMessages(ctx context.Context, conversationID, userID string) ([]models.Message, error)

	// ListConversations returns the user's conversations, most recently
	// active first.
	ListConversations(ctx context.Context, userID string) ([]models.ConversationView, error)
}

type chatService struct {
	db               *sql.DB
	chatRepo         repository.ChatRepository
	hub              ws.Broadcaster
	publisher        events.Publisher
	maxMessageLength int
	now              func() time.Time
}

func NewChatService(
	db *sql.DB,
	chatRepo repository.ChatRepository,
	hub ws.Broadcaster,
	publisher events.Publisher,
	maxMessageLength int,
) ChatService {
	return &chatService{
		db:               db,
		chatRepo:         chatRepo,
		hub:              hub,
		publisher:        publisher,
		maxMessageLength: maxMessageLength,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *chatService) GetOrCreateConversation(ctx context.Context, userID, peerID string) (*models.Conversation, error) {
	if userID == peerID {
		return nil, pkg.ErrSelfConversation
	}

	var (
		conv      *models.Conversation
		initiator *models.User
		created   bool
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := repository.NewSQLiteUserRepo(tx)
		chats := repository.NewSQLiteChatRepo(tx)

		if _, err := users.GetByID(ctx, peerID); err != nil {
			return err
		}

		pair := models.NewPair(userID, peerID)
		existing, err := chats.GetConversationByPair(ctx, pair)
		if err == nil {
			conv = existing
			return nil
		}
		if !errors.Is(err, pkg.ErrNotFound) {
			return err
		}

		if initiator, err = users.GetByID(ctx, userID); err != nil {
			return err
		}

		conv = &models.Conversation{
			ID:        uuid.NewString(),
			User1ID:   pair.Low,
			User2ID:   pair.High,
			CreatedAt: s.now(),
		}
		err = chats.CreateConversation(ctx, conv)
		if errors.Is(err, pkg.ErrAlreadyExists) {
			// Lost a race: the pair exists now, use it.
			conv, err = chats.GetConversationByPair(ctx, pair)
			return err
		}
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.hub.BroadcastToUser(peerID, ws.Event{
			Op: ws.OpChatCreate,
			Data: models.ConversationView{
				ID:        conv.ID,
				Peer:      initiator.Summary(),
				CreatedAt: conv.CreatedAt,
			},
		})
		s.publish(ctx, events.ChatCreated, conv)
	}

	return conv, nil
}

// PostMessage appends to the conversation.
//
// Order inside a conversation is carried by seq (last + 1). created_at is kept
// strictly increasing as well: a clock reading that is not after the previous
// message is bumped to previous + 1µs.
func (s *chatService) PostMessage(ctx context.Context, conversationID, senderID, content string) (msg *models.Message, err error) {
	defer func() { metrics.IncChatMessage(metrics.Status(err)) }()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkg.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > s.maxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", pkg.ErrBadRequest, s.maxMessageLength)
	}

	var conv *models.Conversation
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		chats := repository.NewSQLiteChatRepo(tx)

		var err error
		conv, err = chats.GetConversationByID(ctx, conversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(senderID) {
			return fmt.Errorf("%w: not a participant of this conversation", pkg.ErrForbidden)
		}

		msg = &models.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			SenderID:       senderID,
			Content:        content,
			Seq:            1,
			CreatedAt:      s.now(),
		}

		last, err := chats.LastMessage(ctx, conv.ID)
		switch {
		case err == nil:
			msg.Seq = last.Seq + 1
			if !msg.CreatedAt.After(last.CreatedAt) {
				msg.CreatedAt = last.CreatedAt.Add(time.Microsecond)
			}
		case !errors.Is(err, pkg.ErrNotFound):
			return err
		}

		return chats.CreateMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	event := ws.Event{Op: ws.OpChatMessageCreate, Data: msg}
	s.hub.BroadcastToUser(conv.User1ID, event)
	s.hub.BroadcastToUser(conv.User2ID, event)
	s.publish(ctx, events.ChatMessageCreated, msg)

	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, conversationID, userID string) ([]models.Message, error) {
	conv, err := s.chatRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant of this conversation", pkg.ErrForbidden)
	}

	return s.chatRepo.ListMessages(ctx, conversationID)
}

func (s *chatService) ListConversations(ctx context.Context, userID string) ([]models.ConversationView, error) {
	views, err := s.chatRepo.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(views, func(a, b models.ConversationView) int {
		return lastActivity(b).Compare(lastActivity(a))
	})
	return views, nil
}

// lastActivity is the latest message time, or the creation time of an empty
// conversation.
func lastActivity(v models.ConversationView) time.Time {
	if v.LastMessageAt != nil {
		return *v.LastMessageAt
	}
	return v.CreatedAt
}

func (s *chatService) publish(ctx context.Context, routingKey string, data any) {
	if err := s.publisher.Publish(ctx, routingKey, data); err != nil {
		log.Printf("[chat] failed to publish %s: %v", routingKey, err)
	}
}
