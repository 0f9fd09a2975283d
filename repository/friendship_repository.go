package repository

import (
	"context"

	"github.com/akinalp/connectplus/models"
)

// FriendshipRepository stores undirected friendships keyed by the canonical
// user pair.
type FriendshipRepository interface {
	// Create inserts a friendship. f.User1ID < f.User2ID must hold.
	// An existing friendship for the pair returns pkg.ErrAlreadyFriends.
	Create(ctx context.Context, f *models.Friendship) error

	GetByPair(ctx context.Context, pair models.Pair) (*models.Friendship, error)

	Delete(ctx context.Context, id string) error

	// ListFriends resolves the other endpoint of every friendship touching
	// userID and returns its profile.
	ListFriends(ctx context.Context, userID string) ([]models.FriendView, error)
}
