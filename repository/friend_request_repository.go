package repository

import (
	"context"
	"time"

	"github.com/akinalp/connectplus/models"
)

// FriendRequestRepository stores directed friend requests.
// There is at most one row per ordered (from, to) pair.
type FriendRequestRepository interface {
	// Create inserts a request. An existing row for the same ordered pair
	// returns pkg.ErrDuplicateRequest.
	Create(ctx context.Context, req *models.FriendRequest) error

	GetByID(ctx context.Context, id string) (*models.FriendRequest, error)

	// GetByPair returns the request sent by fromUserID to toUserID.
	GetByPair(ctx context.Context, fromUserID, toUserID string) (*models.FriendRequest, error)

	// Transition moves a request from one status to another. It fails with
	// pkg.ErrNotFound when the row is missing or no longer in `from`, which
	// makes concurrent transitions safe.
	// `at` is written as updated_at.
	Transition(ctx context.Context, id string, from, to models.FriendRequestStatus, at time.Time) error

	// DeletePending removes a request that is still pending.
	DeletePending(ctx context.Context, id string) error

	ListPendingSent(ctx context.Context, userID string) ([]models.FriendRequestView, error)

	ListPendingReceived(ctx context.Context, userID string) ([]models.FriendRequestView, error)
}
