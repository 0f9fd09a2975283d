package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/connectplus/database"
	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
)

// sqliteChatRepo implements ChatRepository.
//
// conversations uses the same canonical (user1_id < user2_id) layout as
// friendships. messages carry a per-conversation seq; ordering by seq is
// ordering by created_at because the service never writes an older
// timestamp than the previous message.
type sqliteChatRepo struct {
	db database.TxQuerier
}

func NewSQLiteChatRepo(db database.TxQuerier) ChatRepository {
	return &sqliteChatRepo{db: db}
}

// ─── Conversations ───

func (r *sqliteChatRepo) CreateConversation(ctx context.Context, c *models.Conversation) error {
	if c.User1ID >= c.User2ID {
		return fmt.Errorf("conversation create: pair (%s, %s) is not canonical", c.User1ID, c.User2ID)
	}

	query := `INSERT INTO conversations (id, user1_id, user2_id, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, c.ID, c.User1ID, c.User2ID, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: conversation between %s and %s", pkg.ErrAlreadyExists, c.User1ID, c.User2ID)
		}
		return fmt.Errorf("conversation create: %w", err)
	}
	return nil
}

func (r *sqliteChatRepo) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	query := `SELECT id, user1_id, user2_id, created_at FROM conversations WHERE id = ?`

	return r.scanConversation(r.db.QueryRowContext(ctx, query, id), "conversation "+id)
}

func (r *sqliteChatRepo) GetConversationByPair(ctx context.Context, pair models.Pair) (*models.Conversation, error) {
	query := `SELECT id, user1_id, user2_id, created_at
	          FROM conversations WHERE user1_id = ? AND user2_id = ?`

	return r.scanConversation(r.db.QueryRowContext(ctx, query, pair.Low, pair.High),
		fmt.Sprintf("conversation between %s and %s", pair.Low, pair.High))
}

func (r *sqliteChatRepo) scanConversation(row *sql.Row, what string) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.User1ID, &c.User2ID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", pkg.ErrNotFound, what)
	}
	if err != nil {
		return nil, fmt.Errorf("conversation get: %w", err)
	}
	return &c, nil
}

// ListConversations joins the peer and the newest message of each
// conversation (the row with the highest seq). The caller sorts by activity.
func (r *sqliteChatRepo) ListConversations(ctx context.Context, userID string) ([]models.ConversationView, error) {
	query := `
		SELECT c.id, c.created_at, m.created_at,
		       u.id, u.username, u.first_name, u.last_name, u.bio, u.avatar_url
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.user1_id = ? THEN c.user2_id ELSE c.user1_id END
		LEFT JOIN messages m ON m.conversation_id = c.id
		     AND m.seq = (SELECT MAX(seq) FROM messages WHERE conversation_id = c.id)
		WHERE c.user1_id = ? OR c.user2_id = ?`

	rows, err := r.db.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("conversation list: %w", err)
	}
	defer rows.Close()

	views := []models.ConversationView{}
	for rows.Next() {
		var v models.ConversationView
		var lastAt sql.NullTime
		if err := rows.Scan(
			&v.ID, &v.CreatedAt, &lastAt,
			&v.Peer.ID, &v.Peer.Username, &v.Peer.FirstName, &v.Peer.LastName, &v.Peer.Bio, &v.Peer.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("conversation list scan: %w", err)
		}
		if lastAt.Valid {
			t := lastAt.Time
			v.LastMessageAt = &t
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

// ─── Messages ───

func (r *sqliteChatRepo) LastMessage(ctx context.Context, conversationID string) (*models.Message, error) {
	query := `SELECT id, conversation_id, sender_id, content, seq, created_at
	          FROM messages WHERE conversation_id = ?
	          ORDER BY seq DESC LIMIT 1`

	var m models.Message
	err := r.db.QueryRowContext(ctx, query, conversationID).Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Seq, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: messages in %s", pkg.ErrNotFound, conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("message get last: %w", err)
	}
	return &m, nil
}

func (r *sqliteChatRepo) CreateMessage(ctx context.Context, m *models.Message) error {
	query := `INSERT INTO messages (id, conversation_id, sender_id, content, seq, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.ConversationID, m.SenderID, m.Content, m.Seq, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("message create: %w", err)
	}
	return nil
}

func (r *sqliteChatRepo) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	query := `SELECT id, conversation_id, sender_id, content, seq, created_at
	          FROM messages WHERE conversation_id = ?
	          ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("message list: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Seq, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("message list scan: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
