// Package services holds the business logic.
//
// A service sits between the handlers (HTTP) and the repositories (SQL). All
// rules live here: guards, state transitions, transactions, side effects.
// A service never sees an http.Request and never runs SQL itself.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/pkg/events"
	"github.com/akinalp/connectplus/pkg/metrics"
	"github.com/akinalp/connectplus/repository"
)

// AuthService creates accounts, checks credentials and issues access tokens.
type AuthService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

type authService struct {
	userRepo   repository.UserRepository
	publisher  events.Publisher
	jwtSecret  []byte
	accessExp  time.Duration
	bcryptCost int
}

// NewAuthService is the constructor. bcryptCost below bcrypt.MinCost falls
// back to bcrypt.DefaultCost.
func NewAuthService(
	userRepo repository.UserRepository,
	publisher events.Publisher,
	jwtSecret string,
	accessExpMinutes int,
	bcryptCost int,
) AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		userRepo:   userRepo,
		publisher:  publisher,
		jwtSecret:  []byte(jwtSecret),
		accessExp:  time.Duration(accessExpMinutes) * time.Minute,
		bcryptCost: bcryptCost,
	}
}

// Register creates a user and logs them in. The user is inserted at
// registration step 1 and the step is closed right away, so the returned
// user is at step 2 (personal info).
//
// Flow:
//  1. Validate the payload
//  2. Look up username and email so the conflicting field can be named
//  3. Hash the password
//  4. Insert (a racing signup still surfaces as *pkg.DuplicateError)
//  5. Close the basic-info step
//  6. Publish user.registered and issue a token
func (s *authService) Register(ctx context.Context, req *models.CreateUserRequest) (resp *models.AuthResponse, err error) {
	defer func() { metrics.IncUserRegistration(metrics.Status(err)) }()

	// 1. Validation
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// 2. Uniqueness pre-checks
	if err := s.ensureFree(ctx, "username", req.Username, s.userRepo.GetByUsername); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, "email", req.Email, s.userRepo.GetByEmail); err != nil {
		return nil, err
	}

	// 3. Bcrypt hash (salted)
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 4. Insert
	user := &models.User{
		ID:               uuid.NewString(),
		Username:         req.Username,
		Email:            req.Email,
		PasswordHash:     string(hash),
		RegistrationStep: models.StepBasicInfo,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 5. Signup is the basic-info form, so that step is done as soon as the
	// row exists. The client continues at personal info.
	step, err := s.userRepo.AdvanceStep(ctx, user.ID, models.StepBasicInfo.Next())
	if err != nil {
		return nil, err
	}
	user.RegistrationStep = step

	// 6. Side effects
	if err := s.publisher.Publish(ctx, events.UserRegistered, user.Summary()); err != nil {
		log.Printf("[auth] failed to publish %s for %s: %v", events.UserRegistered, user.ID, err)
	}

	return s.issueToken(user)
}

// ensureFree returns a DuplicateError naming field when lookup finds a user.
func (s *authService) ensureFree(
	ctx context.Context,
	field, value string,
	lookup func(context.Context, string) (*models.User, error),
) error {
	_, err := lookup(ctx, value)
	if err == nil {
		return &pkg.DuplicateError{Field: field}
	}
	if errors.Is(err, pkg.ErrNotFound) {
		return nil
	}
	return err
}

// Login checks the credentials. Unknown usernames and wrong passwords return
// the same error so accounts cannot be probed.
//
// A user waiting at the avatar step is moved to complete: the avatar is
// optional and signing in again means they skipped it.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (resp *models.AuthResponse, err error) {
	defer func() { metrics.IncUserLogin(metrics.Status(err)) }()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
	}

	if user.RegistrationStep == models.StepAvatar {
		step, err := s.userRepo.AdvanceStep(ctx, user.ID, models.StepComplete)
		if err != nil {
			return nil, err
		}
		user.RegistrationStep = step
	}

	return s.issueToken(user)
}

// ValidateAccessToken verifies the signature and expiry of an access token.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}

// ─── Private Helpers ───

func (s *authService) issueToken(user *models.User) (*models.AuthResponse, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "connectplus",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &models.AuthResponse{
		User:        user,
		AccessToken: signed,
		ExpiresIn:   int64(s.accessExp.Seconds()),
	}, nil
}
