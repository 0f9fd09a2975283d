package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/connectplus/database"
	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/repository"
)

// UserService manages profiles and preferences of existing users.
type UserService interface {
	// GetMe returns the full record of the caller (email and preferences included).
	GetMe(ctx context.Context, userID string) (*models.User, error)
	// GetProfile returns the public profile of any user.
	GetProfile(ctx context.Context, userID string) (*models.UserSummary, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
	SetPreference(ctx context.Context, userID string, req *models.SetPreferenceRequest) (*models.User, error)
	ToggleDarkMode(ctx context.Context, userID string) (*models.User, error)
}

type userService struct {
	db       *sql.DB
	userRepo repository.UserRepository
}

func NewUserService(db *sql.DB, userRepo repository.UserRepository) UserService {
	return &userService{db: db, userRepo: userRepo}
}

func (s *userService) GetMe(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := user.Summary()
	return &summary, nil
}

// UpdateProfile applies the non-nil fields of req. An email already used by
// someone else fails with *pkg.DuplicateError{Field: "email"}.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if req.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", pkg.ErrBadRequest)
	}

	var updated *models.User
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := repository.NewSQLiteUserRepo(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if req.Bio != nil {
			user.Bio = *req.Bio
		}
		if req.AvatarURL != nil {
			if *req.AvatarURL == "" {
				user.AvatarURL = nil
			} else {
				user.AvatarURL = req.AvatarURL
			}
		}
		if req.Email != nil && *req.Email != user.Email {
			other, err := users.GetByEmail(ctx, *req.Email)
			switch {
			case err == nil && other.ID != user.ID:
				return &pkg.DuplicateError{Field: "email"}
			case err != nil && !errors.Is(err, pkg.ErrNotFound):
				return err
			}
			user.Email = *req.Email
		}

		if err := users.UpdateProfile(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// SetPreference stores a single preference. Only dark_mode exists and it
// takes a boolean.
func (s *userService) SetPreference(ctx context.Context, userID string, req *models.SetPreferenceRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	switch req.Key {
	case models.PreferenceDarkMode:
		enabled, ok := req.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a boolean value", pkg.ErrBadRequest, req.Key)
		}
		if err := s.userRepo.SetDarkMode(ctx, userID, enabled); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown preference %q", pkg.ErrBadRequest, req.Key)
	}

	return s.userRepo.GetByID(ctx, userID)
}

// ToggleDarkMode flips the dark_mode preference.
func (s *userService) ToggleDarkMode(ctx context.Context, userID string) (*models.User, error) {
	var updated *models.User
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := repository.NewSQLiteUserRepo(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user.DarkMode = !user.DarkMode
		if err := users.SetDarkMode(ctx, userID, user.DarkMode); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
