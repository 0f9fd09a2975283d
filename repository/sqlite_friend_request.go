package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/connectplus/database"
	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
)

// sqliteFriendRequestRepo stores the friend_requests table.
//
// A request row moves through a small state machine:
//
//	pending ──accept──▶ accepted
//	pending ──reject──▶ rejected
//	pending ──cancel──▶ (row deleted)
//	accepted/rejected ──re-request──▶ pending   (only with FRIEND_ALLOW_REREQUEST)
//
// Every move is a single conditional UPDATE:
//
//	UPDATE friend_requests SET status = 'accepted', updated_at = ?
//	WHERE id = ? AND status = 'pending'
//
// When zero rows change, the request was missing or some other transaction
// moved it first, and the caller gets pkg.ErrNotFound. Two users answering
// the same request can therefore never both succeed.
//
// The UNIQUE (from_user_id, to_user_id) constraint keeps one row per ordered
// pair. A second INSERT for the same pair is turned into
// pkg.ErrDuplicateRequest by Create.
type sqliteFriendRequestRepo struct {
	db database.TxQuerier
}

func NewSQLiteFriendRequestRepo(db database.TxQuerier) FriendRequestRepository {
	return &sqliteFriendRequestRepo{db: db}
}

func (r *sqliteFriendRequestRepo) Create(ctx context.Context, req *models.FriendRequest) error {
	query := `INSERT INTO friend_requests (id, from_user_id, to_user_id, status, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.FromUserID, req.ToUserID, req.Status, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s to %s", pkg.ErrDuplicateRequest, req.FromUserID, req.ToUserID)
		}
		return fmt.Errorf("friend request create: %w", err)
	}
	return nil
}

func (r *sqliteFriendRequestRepo) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	query := `SELECT id, from_user_id, to_user_id, status, created_at, updated_at
	          FROM friend_requests WHERE id = ?`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "friend request "+id)
}

func (r *sqliteFriendRequestRepo) GetByPair(ctx context.Context, fromUserID, toUserID string) (*models.FriendRequest, error) {
	query := `SELECT id, from_user_id, to_user_id, status, created_at, updated_at
	          FROM friend_requests WHERE from_user_id = ? AND to_user_id = ?`

	return r.scanOne(r.db.QueryRowContext(ctx, query, fromUserID, toUserID),
		fmt.Sprintf("friend request from %s to %s", fromUserID, toUserID))
}

func (r *sqliteFriendRequestRepo) scanOne(row *sql.Row, what string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := row.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", pkg.ErrNotFound, what)
	}
	if err != nil {
		return nil, fmt.Errorf("friend request get: %w", err)
	}
	return &req, nil
}

func (r *sqliteFriendRequestRepo) Transition(ctx context.Context, id string, from, to models.FriendRequestStatus, at time.Time) error {
	query := `UPDATE friend_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, to, at, id, from)
	if err != nil {
		return fmt.Errorf("friend request transition: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("friend request transition rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: no %s friend request %s", pkg.ErrNotFound, from, id)
	}
	return nil
}

func (r *sqliteFriendRequestRepo) DeletePending(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM friend_requests WHERE id = ? AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("friend request delete: %w", err)
	}

	return requireAffected(result, "pending friend request "+id)
}

// ListPendingSent joins the recipient's profile.
func (r *sqliteFriendRequestRepo) ListPendingSent(ctx context.Context, userID string) ([]models.FriendRequestView, error) {
	query := `
		SELECT fr.id, fr.status, fr.created_at,
		       u.id, u.username, u.first_name, u.last_name, u.bio, u.avatar_url
		FROM friend_requests fr
		JOIN users u ON u.id = fr.to_user_id
		WHERE fr.from_user_id = ? AND fr.status = 'pending'
		ORDER BY fr.created_at DESC`

	return r.scanViews(ctx, query, userID)
}

// ListPendingReceived joins the sender's profile.
func (r *sqliteFriendRequestRepo) ListPendingReceived(ctx context.Context, userID string) ([]models.FriendRequestView, error) {
	query := `
		SELECT fr.id, fr.status, fr.created_at,
		       u.id, u.username, u.first_name, u.last_name, u.bio, u.avatar_url
		FROM friend_requests fr
		JOIN users u ON u.id = fr.from_user_id
		WHERE fr.to_user_id = ? AND fr.status = 'pending'
		ORDER BY fr.created_at DESC`

	return r.scanViews(ctx, query, userID)
}

func (r *sqliteFriendRequestRepo) scanViews(ctx context.Context, query string, userID string) ([]models.FriendRequestView, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("friend request list: %w", err)
	}
	defer rows.Close()

	views := []models.FriendRequestView{}
	for rows.Next() {
		var v models.FriendRequestView
		if err := rows.Scan(
			&v.ID, &v.Status, &v.CreatedAt,
			&v.User.ID, &v.User.Username, &v.User.FirstName, &v.User.LastName, &v.User.Bio, &v.User.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("friend request list scan: %w", err)
		}
		views = append(views, v)
	}

	return views, rows.Err()
}
