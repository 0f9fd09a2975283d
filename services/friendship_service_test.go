package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/pkg/events"
	"github.com/akinalp/connectplus/repository"
	"github.com/akinalp/connectplus/ws"
)

var defaultPolicy = FriendshipPolicy{SearchLimit: 20}

func sendTo(id string) *models.SendFriendRequestRequest {
	return &models.SendFriendRequestRequest{UserID: id}
}

func friendIDs(t *testing.T, svc FriendshipService, userID string) []string {
	t.Helper()

	friends, err := svc.ListFriends(context.Background(), userID)
	require.NoError(t, err)
	ids := make([]string, len(friends))
	for i, fr := range friends {
		ids[i] = fr.User.ID
	}
	return ids
}

func TestSendRequestCreatesPending(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(defaultPolicy)
	alice, bob := f.user(t, "alice", "", ""), f.user(t, "bob", "", "")
	ctx := context.Background()

	res, err := svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRequested, res.Outcome)
	assert.Equal(t, models.FriendRequestPending, res.Request.Status)
	assert.Nil(t, res.Friendship)

	sent, err := svc.ListPendingSent(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, bob.ID, sent[0].User.ID)

	received, err := svc.ListPendingReceived(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, alice.ID, received[0].User.ID)

	assert.Equal(t, []string{ws.OpFriendRequestCreate}, f.hub.Ops(bob.ID))
	assert.Empty(t, f.hub.Ops(alice.ID))
	assert.Equal(t, []string{events.FriendRequestCreated}, f.events.Keys())
}

func TestSendRequestByUsername(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(defaultPolicy)
	alice, bob := f.user(t, "alice", "", ""), f.user(t, "bob", "", "")

	res, err := svc.SendRequest(context.Background(), alice.ID, &models.SendFriendRequestRequest{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, res.Request.ToUserID)
}

func TestMutualRequestCollapsesIntoFriendship(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(defaultPolicy)
	alice, bob := f.user(t, "alice", "", ""), f.user(t, "bob", "", "")
	ctx := context.Background()

	first, err := svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	require.NoError(t, err)

	second, err := svc.SendRequest(ctx, bob.ID, sendTo(alice.ID))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAccepted, second.Outcome)
	assert.Equal(t, first.Request.ID, second.Request.ID)
	assert.Equal(t, models.FriendRequestAccepted, second.Request.Status)
	require.NotNil(t, second.Friendship)

	assert.Equal(t, []string{bob.ID}, friendIDs(t, svc, alice.ID))
	assert.Equal(t, []string{alice.ID}, friendIDs(t, svc, bob.ID))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM friendships`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM friend_requests`))

	received, err := svc.ListPendingReceived(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, received)

	assert.Equal(t, []string{ws.OpFriendRequestCreate, ws.OpFriendRequestAccept}, f.hub.Ops(bob.ID))
	assert.Equal(t, []string{ws.OpFriendRequestAccept}, f.hub.Ops(alice.ID))
	assert.Equal(t, []string{events.FriendRequestCreated, events.FriendRequestAccepted}, f.events.Keys())
}

func TestSendRequestGuards(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(defaultPolicy)
	alice, bob, carol := f.user(t, "alice", "", ""), f.user(t, "bob", "", ""), f.user(t, "carol", "", "")
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, alice.ID, sendTo(alice.ID))
	assert.ErrorIs(t, err, pkg.ErrSelfRequest)

	_, err = svc.SendRequest(ctx, alice.ID, &models.SendFriendRequestRequest{Username: "alice"})
	assert.ErrorIs(t, err, pkg.ErrSelfRequest)

	_, err = svc.SendRequest(ctx, alice.ID, sendTo("missing"))
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = svc.SendRequest(ctx, alice.ID, &models.SendFriendRequestRequest{})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	assert.ErrorIs(t, err, pkg.ErrDuplicateRequest)

	_, err = svc.SendRequest(ctx, carol.ID, sendTo(alice.ID))
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, alice.ID, sendTo(carol.ID)) // auto-accept
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, alice.ID, sendTo(carol.ID))
	assert.ErrorIs(t, err, pkg.ErrAlreadyFriends)
	_, err = svc.SendRequest(ctx, carol.ID, sendTo(alice.ID))
	assert.ErrorIs(t, err, pkg.ErrAlreadyFriends)
}

func TestRespondAccept(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(defaultPolicy)
	alice, bob, carol := f.user(t, "alice", "", ""), f.user(t, "bob", "", ""), f.user(t, "carol", "", "")
	ctx := context.Background()

	sent, err := svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	require.NoError(t, err)

	// Only the recipient may answer.
	_, err = svc.Respond(ctx, carol.ID, sent.Request.ID, models.RespondAccept)
	assert.ErrorIs(t, err, pkg.ErrForbidden)
	_, err = svc.Respond(ctx, alice.ID, sent.Request.ID, models.RespondAccept)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	res, err := svc.Respond(ctx, bob.ID, sent.Request.ID, models.RespondAccept)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, res.Request.Status)
	require.NotNil(t, res.Friendship)
	assert.True(t, res.Friendship.Pair() == models.NewPair(alice.ID, bob.ID))

	assert.Contains(t, friendIDs(t, svc, alice.ID), bob.ID)
	assert.Contains(t, friendIDs(t, svc, bob.ID), alice.ID)

	stored, err := repository.NewSQLiteFriendRequestRepo(f.db).GetByID(ctx, sent.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, stored.Status)
	assert.True(t, stored.UpdatedAt.Equal(res.Request.UpdatedAt), "stored %v, returned %v", stored.UpdatedAt, res.Request.UpdatedAt)

	// Resolved requests cannot be answered again.
	_, err = svc.Respond(ctx, bob.ID, sent.Request.ID, models.RespondAccept)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = svc.Respond(ctx, bob.ID, sent.Request.ID, models.RespondReject)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = svc.Respond(ctx, bob.ID, "missing", models.RespondAccept)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = svc.Respond(ctx, bob.ID, sent.Request.ID, "maybe")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestRespondReject(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(defaultPolicy)
	alice, bob := f.user(t, "alice", "", ""), f.user(t, "bob", "", "")
	ctx := context.Background()

	sent, err := svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	require.NoError(t, err)

	res, err := svc.Respond(ctx, bob.ID, sent.Request.ID, models.RespondReject)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestRejected, res.Request.Status)
	assert.Nil(t, res.Friendship)

	stored, err := repository.NewSQLiteFriendRequestRepo(f.db).GetByID(ctx, sent.Request.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.Equal(res.Request.UpdatedAt), "stored %v, returned %v", stored.UpdatedAt, res.Request.UpdatedAt)
	assert.Empty(t, friendIDs(t, svc, alice.ID))
	assert.Equal(t, []string{ws.OpFriendRequestDecline}, f.hub.Ops(alice.ID))

	// Default policy: one request per ordered pair, ever.
	_, err = svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	assert.ErrorIs(t, err, pkg.ErrDuplicateRequest)

	// The other direction is still open.
	res2, err := svc.SendRequest(ctx, bob.ID, sendTo(alice.ID))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRequested, res2.Outcome)
}

func TestRemoveFriendThenRequestAgain(t *testing.T) {
	tests := []struct {
		name           string
		allowRerequest bool
	}{
		{"strict policy", false},
		{"re-request allowed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := f.friendships(FriendshipPolicy{SearchLimit: 20, AllowRerequest: tt.allowRerequest})
			alice, bob := f.user(t, "alice", "", ""), f.user(t, "bob", "", "")
			ctx := context.Background()

			sent, err := svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
			require.NoError(t, err)
			_, err = svc.Respond(ctx, bob.ID, sent.Request.ID, models.RespondAccept)
			require.NoError(t, err)

			require.NoError(t, svc.RemoveFriend(ctx, bob.ID, alice.ID))
			assert.Empty(t, friendIDs(t, svc, alice.ID))
			assert.Empty(t, friendIDs(t, svc, bob.ID))
			assert.Equal(t, []string{ws.OpFriendRequestAccept, ws.OpFriendRemove}, f.hub.Ops(alice.ID))

			// History is kept.
			assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM friend_requests`))

			err = svc.RemoveFriend(ctx, alice.ID, bob.ID)
			assert.ErrorIs(t, err, pkg.ErrNotFound)

			again, err := svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
			if !tt.allowRerequest {
				assert.ErrorIs(t, err, pkg.ErrDuplicateRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.OutcomeRequested, again.Outcome)
			assert.Equal(t, sent.Request.ID, again.Request.ID)
			assert.Equal(t, models.FriendRequestPending, again.Request.Status)

			received, err := svc.ListPendingReceived(ctx, bob.ID)
			require.NoError(t, err)
			require.Len(t, received, 1)
			assert.Equal(t, sent.Request.ID, received[0].ID)
		})
	}
}

func TestRerequestPrefersPendingReverse(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(FriendshipPolicy{SearchLimit: 20, AllowRerequest: true})
	alice, bob := f.user(t, "alice", "", ""), f.user(t, "bob", "", "")
	ctx := context.Background()

	sent, err := svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	require.NoError(t, err)
	_, err = svc.Respond(ctx, bob.ID, sent.Request.ID, models.RespondReject)
	require.NoError(t, err)

	_, err = svc.SendRequest(ctx, bob.ID, sendTo(alice.ID))
	require.NoError(t, err)

	res, err := svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAccepted, res.Outcome)
	assert.Equal(t, bob.ID, res.Request.FromUserID)
}

func TestCancelRequest(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(defaultPolicy)
	alice, bob := f.user(t, "alice", "", ""), f.user(t, "bob", "", "")
	ctx := context.Background()

	sent, err := svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CancelRequest(ctx, bob.ID, sent.Request.ID), pkg.ErrForbidden)
	require.NoError(t, svc.CancelRequest(ctx, alice.ID, sent.Request.ID))
	assert.ErrorIs(t, svc.CancelRequest(ctx, alice.ID, sent.Request.ID), pkg.ErrNotFound)

	received, err := svc.ListPendingReceived(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, received)
	assert.Equal(t, []string{ws.OpFriendRequestCreate, ws.OpFriendRequestCancel}, f.hub.Ops(bob.ID))

	// A cancelled request leaves no row, so it can be sent again.
	_, err = svc.SendRequest(ctx, alice.ID, sendTo(bob.ID))
	assert.NoError(t, err)
}

func TestSearchUsers(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(FriendshipPolicy{SearchLimit: 3})
	ctx := context.Background()

	me := f.user(t, "annie", "", "")
	friend := f.user(t, "annfriend", "", "")
	f.user(t, "anna", "", "")
	f.user(t, "bob", "Joanne", "")
	f.user(t, "carl", "", "Hannity")
	f.user(t, "dave", "", "")

	_, err := svc.SendRequest(ctx, me.ID, sendTo(friend.ID))
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, friend.ID, sendTo(me.ID))
	require.NoError(t, err)

	resp, err := svc.SearchUsers(ctx, me.ID, "ANN", 0)
	require.NoError(t, err)
	var names []string
	for _, u := range resp.Results {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"anna", "bob", "carl"}, names)

	resp, err = svc.SearchUsers(ctx, me.ID, "ann", 2)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)

	// The per-call limit cannot raise the configured cap.
	resp, err = svc.SearchUsers(ctx, me.ID, "a", 100)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)

	resp, err = svc.SearchUsers(ctx, me.ID, "   ", 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	// LIKE wildcards match literally.
	resp, err = svc.SearchUsers(ctx, me.ID, "%", 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestConcurrentSendRequestCreatesOneRow(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(defaultPolicy)
	alice, bob := f.user(t, "alice", "", ""), f.user(t, "bob", "", "")

	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.SendRequest(context.Background(), alice.ID, sendTo(bob.ID))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, pkg.ErrDuplicateRequest)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM friend_requests`))
}

func TestConcurrentMutualRequestsCreateOneFriendship(t *testing.T) {
	f := newFixture(t)
	svc := f.friendships(defaultPolicy)
	alice, bob := f.user(t, "alice", "", ""), f.user(t, "bob", "", "")

	const n = 16
	results := make([]*models.SendRequestResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		from, to := alice.ID, bob.ID
		if i%2 == 1 {
			from, to = to, from
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.SendRequest(context.Background(), from, sendTo(to))
		}()
	}
	wg.Wait()

	outcomes := map[models.SendRequestOutcome]int{}
	for i, err := range errs {
		if err != nil {
			assert.True(t,
				errors.Is(err, pkg.ErrDuplicateRequest) || errors.Is(err, pkg.ErrAlreadyFriends),
				fmt.Sprintf("unexpected error: %v", err))
			continue
		}
		outcomes[results[i].Outcome]++
	}

	assert.Equal(t, map[models.SendRequestOutcome]int{
		models.OutcomeRequested: 1,
		models.OutcomeAccepted:  1,
	}, outcomes)
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM friendships`))
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM friend_requests WHERE status = 'pending'`))
}
