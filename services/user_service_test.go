package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateProfileAppliesOnlyGivenFields(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.users)
	alice := f.user(t, "alice", "Alice", "Liddell")
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{
		Bio:       ptr("  curious  "),
		AvatarURL: ptr("https://cdn.example.com/a.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "curious", updated.Bio)
	require.NotNil(t, updated.AvatarURL)

	stored, err := svc.GetMe(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Liddell", stored.LastName)
	assert.Equal(t, "curious", stored.Bio)

	// An empty avatar clears it.
	updated, err = svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{AvatarURL: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.AvatarURL)
}

func TestUpdateProfileEmailClash(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.users)
	alice := f.user(t, "alice", "", "")
	f.user(t, "bob", "", "")

	_, err := svc.UpdateProfile(context.Background(), alice.ID, &models.UpdateProfileRequest{
		Email: ptr("BOB@example.com"),
	})

	var dup *pkg.DuplicateError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "email", dup.Field)

	// Re-submitting one's own email is not a clash.
	_, err = svc.UpdateProfile(context.Background(), alice.ID, &models.UpdateProfileRequest{
		Email: ptr("alice@example.com"),
	})
	assert.NoError(t, err)
}

func TestUpdateProfileRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.users)
	alice := f.user(t, "alice", "", "")
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{AvatarURL: ptr("not a url")})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = svc.UpdateProfile(ctx, "missing", &models.UpdateProfileRequest{Bio: ptr("x")})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSetPreferenceAndToggleDarkMode(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.users)
	alice := f.user(t, "alice", "", "")
	ctx := context.Background()

	user, err := svc.SetPreference(ctx, alice.ID, &models.SetPreferenceRequest{Key: models.PreferenceDarkMode, Value: true})
	require.NoError(t, err)
	assert.True(t, user.DarkMode)

	user, err = svc.ToggleDarkMode(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, user.DarkMode)

	user, err = svc.ToggleDarkMode(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, user.DarkMode)

	_, err = svc.SetPreference(ctx, alice.ID, &models.SetPreferenceRequest{Key: models.PreferenceDarkMode, Value: "yes"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = svc.SetPreference(ctx, alice.ID, &models.SetPreferenceRequest{Key: "font_size", Value: 12})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestGetProfileHidesPrivateFields(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.users)
	alice := f.user(t, "alice", "Alice", "Liddell")

	profile, err := svc.GetProfile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Summary(), *profile)

	_, err = svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
