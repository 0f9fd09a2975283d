package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/pkg/events"
)

const testSecret = "test-secret"

func newAuth(f *fixture) AuthService {
	return NewAuthService(f.users, f.events, testSecret, 60, bcrypt.MinCost)
}

func register(t *testing.T, auth AuthService, username, email string) *models.AuthResponse {
	t.Helper()

	resp, err := auth.Register(context.Background(), &models.CreateUserRequest{
		Username: username,
		Email:    email,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterClosesBasicInfoStep(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)

	resp := register(t, auth, "alice", "alice@example.com")

	assert.Equal(t, models.StepPersonalInfo, resp.User.RegistrationStep)
	step, err := f.users.AdvanceStep(context.Background(), resp.User.ID, models.StepBasicInfo)
	require.NoError(t, err)
	assert.Equal(t, models.StepPersonalInfo, step, "stored step")
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, []string{events.UserRegistered}, f.events.Keys())

	stored, err := f.users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")))

	claims, err := auth.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestRegisterNamesDuplicateField(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	register(t, auth, "alice", "alice@example.com")

	tests := []struct {
		name     string
		username string
		email    string
		field    string
	}{
		{"same username", "alice", "other@example.com", "username"},
		{"same email", "bob", "alice@example.com", "email"},
		{"email differs only in case", "bob", "ALICE@example.com", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(context.Background(), &models.CreateUserRequest{
				Username: tt.username,
				Email:    tt.email,
				Password: "correct-horse",
			})

			var dup *pkg.DuplicateError
			require.True(t, errors.As(err, &dup), "got %v", err)
			assert.Equal(t, tt.field, dup.Field)
			assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
		})
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	auth := newAuth(newFixture(t))

	_, err := auth.Register(context.Background(), &models.CreateUserRequest{
		Username: "a b",
		Email:    "a@example.com",
		Password: "correct-horse",
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = auth.Register(context.Background(), &models.CreateUserRequest{
		Username: "alice",
		Email:    "not-an-email",
		Password: "correct-horse",
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	register(t, auth, "alice", "alice@example.com")
	ctx := context.Background()

	resp, err := auth.Login(ctx, &models.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = auth.Login(ctx, &models.LoginRequest{Username: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = auth.Login(ctx, &models.LoginRequest{Username: "nobody", Password: "correct-horse"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestLoginAtAvatarStepCompletesRegistration(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	resp := register(t, auth, "alice", "alice@example.com")
	ctx := context.Background()

	_, err := f.users.AdvanceStep(ctx, resp.User.ID, models.StepAvatar)
	require.NoError(t, err)

	login, err := auth.Login(ctx, &models.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, models.StepComplete, login.User.RegistrationStep)
}

func TestValidateAccessTokenRejectsForeignTokens(t *testing.T) {
	auth := newAuth(newFixture(t))

	_, err := auth.ValidateAccessToken("garbage")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	claims := &models.TokenClaims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(other)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(expired)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}
