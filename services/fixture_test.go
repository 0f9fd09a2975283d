package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/connectplus/database/dbtest"
	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg/events"
	"github.com/akinalp/connectplus/repository"
	"github.com/akinalp/connectplus/ws"
)

// fixture is a migrated database plus recording fakes for the side effects.
type fixture struct {
	db     *sql.DB
	users  repository.UserRepository
	hub    *ws.Recorder
	events *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	return &fixture{
		db:     db,
		users:  repository.NewSQLiteUserRepo(db),
		hub:    ws.NewRecorder(),
		events: events.NewRecorder(),
	}
}

// user inserts an account directly, skipping password hashing.
func (f *fixture) user(t *testing.T, username, firstName, lastName string) *models.User {
	t.Helper()

	u := &models.User{
		ID:               uuid.NewString(),
		Username:         username,
		Email:            username + "@example.com",
		PasswordHash:     "not-a-hash",
		FirstName:        firstName,
		LastName:         lastName,
		RegistrationStep: models.StepBasicInfo,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) friendships(policy FriendshipPolicy) FriendshipService {
	return NewFriendshipService(
		f.db,
		f.users,
		repository.NewSQLiteFriendRequestRepo(f.db),
		repository.NewSQLiteFriendshipRepo(f.db),
		f.hub,
		f.events,
		policy,
	)
}

func (f *fixture) chats() *chatService {
	return NewChatService(f.db, repository.NewSQLiteChatRepo(f.db), f.hub, f.events, 2000).(*chatService)
}

// count runs a COUNT(*) query.
func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()

	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}
