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

// sqliteFriendshipRepo implements FriendshipRepository.
//
// Rows are stored as (user1_id, user2_id) with user1_id < user2_id, so one
// UNIQUE index covers both directions.
type sqliteFriendshipRepo struct {
	db database.TxQuerier
}

func NewSQLiteFriendshipRepo(db database.TxQuerier) FriendshipRepository {
	return &sqliteFriendshipRepo{db: db}
}

func (r *sqliteFriendshipRepo) Create(ctx context.Context, f *models.Friendship) error {
	if f.User1ID >= f.User2ID {
		return fmt.Errorf("friendship create: pair (%s, %s) is not canonical", f.User1ID, f.User2ID)
	}

	query := `INSERT INTO friendships (id, user1_id, user2_id, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, f.ID, f.User1ID, f.User2ID, f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s and %s", pkg.ErrAlreadyFriends, f.User1ID, f.User2ID)
		}
		return fmt.Errorf("friendship create: %w", err)
	}
	return nil
}

func (r *sqliteFriendshipRepo) GetByPair(ctx context.Context, pair models.Pair) (*models.Friendship, error) {
	query := `SELECT id, user1_id, user2_id, created_at
	          FROM friendships WHERE user1_id = ? AND user2_id = ?`

	var f models.Friendship
	err := r.db.QueryRowContext(ctx, query, pair.Low, pair.High).Scan(
		&f.ID, &f.User1ID, &f.User2ID, &f.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: friendship between %s and %s", pkg.ErrNotFound, pair.Low, pair.High)
	}
	if err != nil {
		return nil, fmt.Errorf("friendship get by pair: %w", err)
	}
	return &f, nil
}

func (r *sqliteFriendshipRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("friendship delete: %w", err)
	}

	return requireAffected(result, "friendship "+id)
}

// ListFriends picks the other column with CASE: when user1_id is me the
// friend is user2_id, otherwise user1_id.
func (r *sqliteFriendshipRepo) ListFriends(ctx context.Context, userID string) ([]models.FriendView, error) {
	query := `
		SELECT f.id, f.created_at,
		       u.id, u.username, u.first_name, u.last_name, u.bio, u.avatar_url
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user1_id = ? THEN f.user2_id ELSE f.user1_id END
		WHERE f.user1_id = ? OR f.user2_id = ?
		ORDER BY u.username COLLATE NOCASE`

	rows, err := r.db.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("friendship list friends: %w", err)
	}
	defer rows.Close()

	friends := []models.FriendView{}
	for rows.Next() {
		var fv models.FriendView
		if err := rows.Scan(
			&fv.FriendshipID, &fv.Since,
			&fv.User.ID, &fv.User.Username, &fv.User.FirstName, &fv.User.LastName, &fv.User.Bio, &fv.User.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("friendship list friends scan: %w", err)
		}
		friends = append(friends, fv)
	}

	return friends, rows.Err()
}
