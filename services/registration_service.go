package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akinalp/connectplus/database"
	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/repository"
)

// RegistrationService tracks onboarding progress.
//
// Steps: 1 basic info → 2 personal info → 3 avatar → 4 complete. The step
// only moves forward and stops at 4. Which form to show next is the
// client's business; this service only owns the step value.
type RegistrationService interface {
	// Advance moves the user one step forward, capped at StepComplete.
	Advance(ctx context.Context, userID string) (*models.User, error)
	CurrentStep(ctx context.Context, userID string) (models.RegistrationStep, error)
	IsComplete(ctx context.Context, userID string) (bool, error)
	Status(ctx context.Context, userID string) (*models.RegistrationStatus, error)

	// SubmitPersonalInfo saves names and bio, then advances. Only valid at
	// StepPersonalInfo.
	SubmitPersonalInfo(ctx context.Context, userID string, req *models.PersonalInfoRequest) (*models.User, error)
	// SubmitAvatar saves the avatar (empty skips it), then advances. Only
	// valid at StepAvatar.
	SubmitAvatar(ctx context.Context, userID string, req *models.AvatarRequest) (*models.User, error)
}

type registrationService struct {
	db       *sql.DB
	userRepo repository.UserRepository
}

func NewRegistrationService(db *sql.DB, userRepo repository.UserRepository) RegistrationService {
	return &registrationService{db: db, userRepo: userRepo}
}

func (s *registrationService) Advance(ctx context.Context, userID string) (*models.User, error) {
	var updated *models.User
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := repository.NewSQLiteUserRepo(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		step, err := users.AdvanceStep(ctx, userID, user.RegistrationStep.Next())
		if err != nil {
			return err
		}
		user.RegistrationStep = step
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *registrationService) CurrentStep(ctx context.Context, userID string) (models.RegistrationStep, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.RegistrationStep, nil
}

func (s *registrationService) IsComplete(ctx context.Context, userID string) (bool, error) {
	step, err := s.CurrentStep(ctx, userID)
	if err != nil {
		return false, err
	}
	return step.IsComplete(), nil
}

func (s *registrationService) Status(ctx context.Context, userID string) (*models.RegistrationStatus, error) {
	step, err := s.CurrentStep(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := models.NewRegistrationStatus(step)
	return &status, nil
}

func (s *registrationService) SubmitPersonalInfo(ctx context.Context, userID string, req *models.PersonalInfoRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	return s.submitStep(ctx, userID, models.StepPersonalInfo, func(user *models.User) {
		user.FirstName = req.FirstName
		user.LastName = req.LastName
		user.Bio = req.Bio
	})
}

func (s *registrationService) SubmitAvatar(ctx context.Context, userID string, req *models.AvatarRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	return s.submitStep(ctx, userID, models.StepAvatar, func(user *models.User) {
		if req.AvatarURL != "" {
			user.AvatarURL = &req.AvatarURL
		}
	})
}

// submitStep checks the user is at `at`, applies the captured data and
// advances, all in one transaction.
func (s *registrationService) submitStep(
	ctx context.Context,
	userID string,
	at models.RegistrationStep,
	apply func(user *models.User),
) (*models.User, error) {
	var updated *models.User
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := repository.NewSQLiteUserRepo(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.RegistrationStep != at {
			return fmt.Errorf("%w: registration is at step %s, not %s",
				pkg.ErrBadRequest, user.RegistrationStep, at)
		}

		apply(user)
		if err := users.UpdateProfile(ctx, user); err != nil {
			return err
		}

		step, err := users.AdvanceStep(ctx, userID, at.Next())
		if err != nil {
			return err
		}
		user.RegistrationStep = step
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
