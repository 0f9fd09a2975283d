// Package repository is the data access layer.
//
// Each entity has an interface file (what the service layer may ask for) and
// a sqlite_* file with the implementation. Services depend on the interfaces
// only, so tests and other backends can swap the storage.
package repository

import (
	"context"

	"github.com/akinalp/connectplus/models"
)

// UserRepository is the identity store.
type UserRepository interface {
	// Create inserts a user. Username/email clashes return *pkg.DuplicateError.
	Create(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id string) (*models.User, error)

	GetByUsername(ctx context.Context, username string) (*models.User, error)

	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateProfile writes the profile columns (names, bio, avatar, email).
	UpdateProfile(ctx context.Context, user *models.User) error

	SetDarkMode(ctx context.Context, userID string, enabled bool) error

	// AdvanceStep raises the registration step to at least `to` and returns
	// the stored value. The step never decreases.
	AdvanceStep(ctx context.Context, userID string, to models.RegistrationStep) (models.RegistrationStep, error)

	// Search matches query (case-insensitive substring) against username,
	// first name and last name. excludeUserID and that user's friends are
	// left out.
	Search(ctx context.Context, query, excludeUserID string, limit int) ([]models.UserSummary, error)
}
