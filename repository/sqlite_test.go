package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/connectplus/database/dbtest"
	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
)

func newUser(t *testing.T, repo UserRepository, username string) *models.User {
	t.Helper()

	u := &models.User{
		ID:               uuid.NewString(),
		Username:         username,
		Email:            username + "@example.com",
		PasswordHash:     "hash",
		RegistrationStep: models.StepBasicInfo,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserCreateDuplicateField(t *testing.T) {
	repo := NewSQLiteUserRepo(dbtest.Open(t))
	alice := newUser(t, repo, "alice")
	ctx := context.Background()

	clone := *alice
	clone.ID = uuid.NewString()
	clone.Email = "other@example.com"
	var dup *pkg.DuplicateError
	require.True(t, errors.As(repo.Create(ctx, &clone), &dup))
	assert.Equal(t, "username", dup.Field)

	clone.Username = "alice2"
	clone.Email = "ALICE@EXAMPLE.COM"
	require.True(t, errors.As(repo.Create(ctx, &clone), &dup))
	assert.Equal(t, "email", dup.Field)

	got, err := repo.GetByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestAdvanceStepNeverDecreases(t *testing.T) {
	repo := NewSQLiteUserRepo(dbtest.Open(t))
	alice := newUser(t, repo, "alice")
	ctx := context.Background()

	step, err := repo.AdvanceStep(ctx, alice.ID, models.StepAvatar)
	require.NoError(t, err)
	assert.Equal(t, models.StepAvatar, step)

	step, err = repo.AdvanceStep(ctx, alice.ID, models.StepPersonalInfo)
	require.NoError(t, err)
	assert.Equal(t, models.StepAvatar, step)

	step, err = repo.AdvanceStep(ctx, alice.ID, models.RegistrationStep(9))
	require.NoError(t, err)
	assert.Equal(t, models.StepComplete, step)

	_, err = repo.AdvanceStep(ctx, "missing", models.StepAvatar)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestFriendRequestTransitionIsConditional(t *testing.T) {
	db := dbtest.Open(t)
	users := NewSQLiteUserRepo(db)
	requests := NewSQLiteFriendRequestRepo(db)
	alice, bob := newUser(t, users, "alice"), newUser(t, users, "bob")
	ctx := context.Background()

	now := time.Now().UTC()
	req := &models.FriendRequest{
		ID: uuid.NewString(), FromUserID: alice.ID, ToUserID: bob.ID,
		Status: models.FriendRequestPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, requests.Create(ctx, req))

	again := *req
	again.ID = uuid.NewString()
	assert.ErrorIs(t, requests.Create(ctx, &again), pkg.ErrDuplicateRequest)

	acceptedAt := now.Add(time.Minute)
	require.NoError(t, requests.Transition(ctx, req.ID, models.FriendRequestPending, models.FriendRequestAccepted, acceptedAt))
	assert.ErrorIs(t,
		requests.Transition(ctx, req.ID, models.FriendRequestPending, models.FriendRequestRejected, acceptedAt.Add(time.Minute)),
		pkg.ErrNotFound)

	got, err := requests.GetByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, got.Status)
	assert.True(t, acceptedAt.Equal(got.UpdatedAt), "updated_at %v, want %v", got.UpdatedAt, acceptedAt)

	_, err = requests.GetByPair(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	assert.ErrorIs(t, requests.DeletePending(ctx, req.ID), pkg.ErrNotFound)
}

func TestFriendshipCanonicalPair(t *testing.T) {
	db := dbtest.Open(t)
	users := NewSQLiteUserRepo(db)
	friendships := NewSQLiteFriendshipRepo(db)
	alice, bob := newUser(t, users, "alice"), newUser(t, users, "bob")
	ctx := context.Background()

	pair := models.NewPair(bob.ID, alice.ID)
	f := &models.Friendship{ID: uuid.NewString(), User1ID: pair.Low, User2ID: pair.High, CreatedAt: time.Now().UTC()}
	require.NoError(t, friendships.Create(ctx, f))

	swapped := &models.Friendship{ID: uuid.NewString(), User1ID: pair.High, User2ID: pair.Low, CreatedAt: time.Now().UTC()}
	assert.Error(t, friendships.Create(ctx, swapped))

	dup := &models.Friendship{ID: uuid.NewString(), User1ID: pair.Low, User2ID: pair.High, CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, friendships.Create(ctx, dup), pkg.ErrAlreadyFriends)

	got, err := friendships.GetByPair(ctx, models.NewPair(alice.ID, bob.ID))
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	for _, id := range []string{alice.ID, bob.ID} {
		friends, err := friendships.ListFriends(ctx, id)
		require.NoError(t, err)
		require.Len(t, friends, 1)
		other, _ := pair.Other(id)
		assert.Equal(t, other, friends[0].User.ID)
	}

	require.NoError(t, friendships.Delete(ctx, f.ID))
	assert.ErrorIs(t, friendships.Delete(ctx, f.ID), pkg.ErrNotFound)
}

func TestMessagesListInSeqOrder(t *testing.T) {
	db := dbtest.Open(t)
	users := NewSQLiteUserRepo(db)
	chats := NewSQLiteChatRepo(db)
	alice, bob := newUser(t, users, "alice"), newUser(t, users, "bob")
	ctx := context.Background()

	pair := models.NewPair(alice.ID, bob.ID)
	conv := &models.Conversation{ID: uuid.NewString(), User1ID: pair.Low, User2ID: pair.High, CreatedAt: time.Now().UTC()}
	require.NoError(t, chats.CreateConversation(ctx, conv))
	assert.ErrorIs(t, chats.CreateConversation(ctx, &models.Conversation{
		ID: uuid.NewString(), User1ID: pair.Low, User2ID: pair.High, CreatedAt: time.Now().UTC(),
	}), pkg.ErrAlreadyExists)

	_, err := chats.LastMessage(ctx, conv.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// Same timestamp on purpose: seq alone decides the order.
	at := time.Now().UTC()
	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, chats.CreateMessage(ctx, &models.Message{
			ID: uuid.NewString(), ConversationID: conv.ID, SenderID: alice.ID,
			Content: text, Seq: int64(i + 1), CreatedAt: at,
		}))
	}

	messages, err := chats.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{messages[0].Content, messages[1].Content, messages[2].Content})

	last, err := chats.LastMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), last.Seq)

	views, err := chats.ListConversations(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, alice.ID, views[0].Peer.ID)
	require.NotNil(t, views[0].LastMessageAt)
}

func TestSearchFoldsASCIIOnly(t *testing.T) {
	db := dbtest.Open(t)
	users := NewSQLiteUserRepo(db)
	alice := newUser(t, users, "alice")
	ctx := context.Background()

	anne := newUser(t, users, "anne")
	anne.FirstName = "Änne"
	require.NoError(t, users.UpdateProfile(ctx, anne))

	names := func(query string) []string {
		res, err := users.Search(ctx, query, alice.ID, 10)
		require.NoError(t, err)
		var out []string
		for _, u := range res {
			out = append(out, u.Username)
		}
		return out
	}

	assert.Equal(t, []string{"anne"}, names("Änne"))
	assert.Equal(t, []string{"anne"}, names("ÄNNE"))
	assert.Equal(t, []string{"anne"}, names("ANNE"))
	assert.Empty(t, names("änne"), "non-ASCII letters are matched case-sensitively")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_done\\`, escapeLike(`100%_done\`))
}
