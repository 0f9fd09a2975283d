package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/connectplus/database"
	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/pkg/events"
	"github.com/akinalp/connectplus/pkg/metrics"
	"github.com/akinalp/connectplus/repository"
	"github.com/akinalp/connectplus/ws"
)

// FriendshipService is the relationship graph: directed friend requests and
// the undirected friendships they turn into.
//
// Every write runs in one transaction. WebSocket pushes, domain events and
// counters happen after commit, never inside it.
type FriendshipService interface {
	// SendRequest proposes a friendship. When the target already has a
	// pending request to the sender, that request is accepted instead and
	// the result outcome is OutcomeAccepted.
	SendRequest(ctx context.Context, senderID string, req *models.SendFriendRequestRequest) (*models.SendRequestResult, error)

	// Respond accepts or rejects a pending request addressed to actorID.
	Respond(ctx context.Context, actorID, requestID string, action models.RespondAction) (*models.RespondResult, error)

	// CancelRequest withdraws the sender's own pending request.
	CancelRequest(ctx context.Context, senderID, requestID string) error

	// RemoveFriend deletes the friendship. Request history is kept.
	RemoveFriend(ctx context.Context, userID, otherUserID string) error

	ListFriends(ctx context.Context, userID string) ([]models.FriendView, error)
	ListPendingSent(ctx context.Context, userID string) ([]models.FriendRequestView, error)
	ListPendingReceived(ctx context.Context, userID string) ([]models.FriendRequestView, error)

	// SearchUsers finds people to befriend: the caller and their friends are
	// never returned. limit <= 0 or above the configured cap uses the cap.
	SearchUsers(ctx context.Context, userID, query string, limit int) (*models.SearchUsersResponse, error)
}

// FriendshipPolicy holds the configurable rules of the graph.
type FriendshipPolicy struct {
	// AllowRerequest reopens a resolved request from the same sender instead
	// of failing with ErrDuplicateRequest.
	AllowRerequest bool
	SearchLimit    int
}

type friendshipService struct {
	db             *sql.DB
	userRepo       repository.UserRepository
	requestRepo    repository.FriendRequestRepository
	friendshipRepo repository.FriendshipRepository
	hub            ws.Broadcaster
	publisher      events.Publisher
	policy         FriendshipPolicy
}

func NewFriendshipService(
	db *sql.DB,
	userRepo repository.UserRepository,
	requestRepo repository.FriendRequestRepository,
	friendshipRepo repository.FriendshipRepository,
	hub ws.Broadcaster,
	publisher events.Publisher,
	policy FriendshipPolicy,
) FriendshipService {
	if policy.SearchLimit < 1 {
		policy.SearchLimit = 20
	}
	return &friendshipService{
		db:             db,
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		friendshipRepo: friendshipRepo,
		hub:            hub,
		publisher:      publisher,
		policy:         policy,
	}
}

// sendOutcome carries what SendRequest needs after commit.
type sendOutcome struct {
	result *models.SendRequestResult
	sender *models.User
	target *models.User
}

// SendRequest applies the guards in order:
//
//  1. Self request → ErrSelfRequest
//  2. Target must exist → ErrNotFound
//  3. Already friends → ErrAlreadyFriends
//  4. Own request to target exists and is pending (or resolved under the
//     default policy) → ErrDuplicateRequest
//  5. Target has a pending request to us → accept it, create the friendship
//  6. Otherwise reopen our resolved request (re-request policy) or insert a
//     new pending one
func (s *friendshipService) SendRequest(ctx context.Context, senderID string, req *models.SendFriendRequestRequest) (result *models.SendRequestResult, err error) {
	defer func() { metrics.IncFriendRequest(metrics.Status(err)) }()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// 1. Self request, when the target is given by id
	if req.UserID == senderID {
		return nil, pkg.ErrSelfRequest
	}

	var out sendOutcome
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := repository.NewSQLiteUserRepo(tx)
		requests := repository.NewSQLiteFriendRequestRepo(tx)
		friendships := repository.NewSQLiteFriendshipRepo(tx)

		// 2. Target
		target, err := s.resolveTarget(ctx, users, req)
		if err != nil {
			return err
		}
		if target.ID == senderID {
			return pkg.ErrSelfRequest
		}
		sender, err := users.GetByID(ctx, senderID)
		if err != nil {
			return err
		}
		out.sender, out.target = sender, target

		// 3. Already friends
		if _, err := friendships.GetByPair(ctx, models.NewPair(senderID, target.ID)); err == nil {
			return fmt.Errorf("%w: with %s", pkg.ErrAlreadyFriends, target.Username)
		} else if !errors.Is(err, pkg.ErrNotFound) {
			return err
		}

		// 4. Our own request
		forward, err := requests.GetByPair(ctx, senderID, target.ID)
		if err != nil && !errors.Is(err, pkg.ErrNotFound) {
			return err
		}
		if forward != nil && (forward.IsPending() || !s.policy.AllowRerequest) {
			return fmt.Errorf("%w: to %s", pkg.ErrDuplicateRequest, target.Username)
		}

		// 5. Their pending request → accept
		reverse, err := requests.GetByPair(ctx, target.ID, senderID)
		if err != nil && !errors.Is(err, pkg.ErrNotFound) {
			return err
		}
		if reverse != nil && reverse.IsPending() {
			friendship, err := acceptRequest(ctx, requests, friendships, reverse)
			if err != nil {
				return err
			}
			out.result = &models.SendRequestResult{
				Outcome:    models.OutcomeAccepted,
				Request:    reverse,
				Friendship: friendship,
			}
			return nil
		}

		// 6. Reopen or insert
		now := time.Now().UTC()
		if forward != nil {
			if err := requests.Transition(ctx, forward.ID, forward.Status, models.FriendRequestPending, now); err != nil {
				return err
			}
			forward.Status = models.FriendRequestPending
			forward.UpdatedAt = now
			out.result = &models.SendRequestResult{Outcome: models.OutcomeRequested, Request: forward}
			return nil
		}

		created := &models.FriendRequest{
			ID:         uuid.NewString(),
			FromUserID: senderID,
			ToUserID:   target.ID,
			Status:     models.FriendRequestPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := requests.Create(ctx, created); err != nil {
			return err
		}
		out.result = &models.SendRequestResult{Outcome: models.OutcomeRequested, Request: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Side effects
	switch out.result.Outcome {
	case models.OutcomeAccepted:
		metrics.IncFriendAccept(metrics.StatusSuccess)
		s.notifyAccepted(ctx, out.result.Request, out.result.Friendship, out.target, out.sender)
	default:
		s.hub.BroadcastToUser(out.target.ID, ws.Event{
			Op:   ws.OpFriendRequestCreate,
			Data: requestView(out.result.Request, out.sender),
		})
		s.publish(ctx, events.FriendRequestCreated, out.result.Request)
	}

	return out.result, nil
}

// resolveTarget looks the target up by id, or by username when no id is given.
func (s *friendshipService) resolveTarget(ctx context.Context, users repository.UserRepository, req *models.SendFriendRequestRequest) (*models.User, error) {
	var (
		target *models.User
		err    error
	)
	if req.UserID != "" {
		target, err = users.GetByID(ctx, req.UserID)
	} else {
		target, err = users.GetByUsername(ctx, req.Username)
	}
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
	}
	return target, err
}

// acceptRequest moves a pending request to accepted and creates the
// friendship for the pair. Must run inside the caller's transaction.
func acceptRequest(
	ctx context.Context,
	requests repository.FriendRequestRepository,
	friendships repository.FriendshipRepository,
	req *models.FriendRequest,
) (*models.Friendship, error) {
	now := time.Now().UTC()
	if err := requests.Transition(ctx, req.ID, models.FriendRequestPending, models.FriendRequestAccepted, now); err != nil {
		return nil, err
	}

	req.Status = models.FriendRequestAccepted
	req.UpdatedAt = now

	pair := models.NewPair(req.FromUserID, req.ToUserID)
	friendship := &models.Friendship{
		ID:        uuid.NewString(),
		User1ID:   pair.Low,
		User2ID:   pair.High,
		CreatedAt: now,
	}
	if err := friendships.Create(ctx, friendship); err != nil {
		return nil, err
	}
	return friendship, nil
}

// respondOutcome carries what Respond needs after commit.
type respondOutcome struct {
	result    *models.RespondResult
	sender    *models.User
	recipient *models.User
}

// Respond resolves a request. The request must exist (ErrNotFound), be
// addressed to actorID (ErrForbidden) and still be pending (ErrNotFound).
func (s *friendshipService) Respond(ctx context.Context, actorID, requestID string, action models.RespondAction) (result *models.RespondResult, err error) {
	switch action {
	case models.RespondAccept:
		defer func() { metrics.IncFriendAccept(metrics.Status(err)) }()
	case models.RespondReject:
		defer func() { metrics.IncFriendReject(metrics.Status(err)) }()
	default:
		return nil, fmt.Errorf("%w: unknown action %q", pkg.ErrBadRequest, action)
	}

	var out respondOutcome
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := repository.NewSQLiteUserRepo(tx)
		requests := repository.NewSQLiteFriendRequestRepo(tx)
		friendships := repository.NewSQLiteFriendshipRepo(tx)

		req, err := requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.ToUserID != actorID {
			return fmt.Errorf("%w: friend request is not addressed to you", pkg.ErrForbidden)
		}
		if !req.IsPending() {
			return fmt.Errorf("%w: no pending friend request %s", pkg.ErrNotFound, requestID)
		}

		out.result = &models.RespondResult{Request: req}
		if action == models.RespondAccept {
			friendship, err := acceptRequest(ctx, requests, friendships, req)
			if err != nil {
				return err
			}
			out.result.Friendship = friendship
		} else {
			now := time.Now().UTC()
			if err := requests.Transition(ctx, req.ID, models.FriendRequestPending, models.FriendRequestRejected, now); err != nil {
				return err
			}
			req.Status = models.FriendRequestRejected
			req.UpdatedAt = now
		}

		if out.sender, err = users.GetByID(ctx, req.FromUserID); err != nil {
			return err
		}
		if out.recipient, err = users.GetByID(ctx, req.ToUserID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if action == models.RespondAccept {
		s.notifyAccepted(ctx, out.result.Request, out.result.Friendship, out.sender, out.recipient)
	} else {
		s.hub.BroadcastToUser(out.sender.ID, ws.Event{
			Op:   ws.OpFriendRequestDecline,
			Data: requestView(out.result.Request, out.recipient),
		})
		s.publish(ctx, events.FriendRequestRejected, out.result.Request)
	}

	return out.result, nil
}

func (s *friendshipService) CancelRequest(ctx context.Context, senderID, requestID string) error {
	var req *models.FriendRequest
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		requests := repository.NewSQLiteFriendRequestRepo(tx)

		var err error
		req, err = requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.FromUserID != senderID {
			return fmt.Errorf("%w: only the sender can cancel a friend request", pkg.ErrForbidden)
		}
		if !req.IsPending() {
			return fmt.Errorf("%w: no pending friend request %s", pkg.ErrNotFound, requestID)
		}
		return requests.DeletePending(ctx, req.ID)
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastToUser(req.ToUserID, ws.Event{
		Op:   ws.OpFriendRequestCancel,
		Data: ws.FriendRequestCancelData{RequestID: req.ID, UserID: senderID},
	})
	s.publish(ctx, events.FriendRequestCancelled, req)
	return nil
}

func (s *friendshipService) RemoveFriend(ctx context.Context, userID, otherUserID string) (err error) {
	defer func() { metrics.IncFriendRemoval(metrics.Status(err)) }()

	var friendship *models.Friendship
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		friendships := repository.NewSQLiteFriendshipRepo(tx)

		var err error
		friendship, err = friendships.GetByPair(ctx, models.NewPair(userID, otherUserID))
		if err != nil {
			return err
		}
		return friendships.Delete(ctx, friendship.ID)
	})
	if err != nil {
		return err
	}

	s.hub.BroadcastToUser(otherUserID, ws.Event{
		Op:   ws.OpFriendRemove,
		Data: ws.FriendRemoveData{UserID: userID},
	})
	s.publish(ctx, events.FriendshipRemoved, friendship)
	return nil
}

func (s *friendshipService) ListFriends(ctx context.Context, userID string) ([]models.FriendView, error) {
	return s.friendshipRepo.ListFriends(ctx, userID)
}

func (s *friendshipService) ListPendingSent(ctx context.Context, userID string) ([]models.FriendRequestView, error) {
	return s.requestRepo.ListPendingSent(ctx, userID)
}

func (s *friendshipService) ListPendingReceived(ctx context.Context, userID string) ([]models.FriendRequestView, error) {
	return s.requestRepo.ListPendingReceived(ctx, userID)
}

func (s *friendshipService) SearchUsers(ctx context.Context, userID, query string, limit int) (*models.SearchUsersResponse, error) {
	query = strings.TrimSpace(query)
	resp := &models.SearchUsersResponse{Query: query, Results: []models.UserSummary{}}
	if query == "" {
		return resp, nil
	}

	if limit <= 0 || limit > s.policy.SearchLimit {
		limit = s.policy.SearchLimit
	}

	results, err := s.userRepo.Search(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	resp.Results = results
	return resp, nil
}

// ─── Private Helpers ───

// notifyAccepted tells both ends of a new friendship about each other.
func (s *friendshipService) notifyAccepted(ctx context.Context, req *models.FriendRequest, f *models.Friendship, sender, recipient *models.User) {
	s.hub.BroadcastToUser(sender.ID, ws.Event{
		Op:   ws.OpFriendRequestAccept,
		Data: models.FriendView{FriendshipID: f.ID, Since: f.CreatedAt, User: recipient.Summary()},
	})
	s.hub.BroadcastToUser(recipient.ID, ws.Event{
		Op:   ws.OpFriendRequestAccept,
		Data: models.FriendView{FriendshipID: f.ID, Since: f.CreatedAt, User: sender.Summary()},
	})
	s.publish(ctx, events.FriendRequestAccepted, models.RespondResult{Request: req, Friendship: f})
}

func (s *friendshipService) publish(ctx context.Context, routingKey string, data any) {
	if err := s.publisher.Publish(ctx, routingKey, data); err != nil {
		log.Printf("[friends] failed to publish %s: %v", routingKey, err)
	}
}

// requestView pairs a request with the other party's profile.
func requestView(req *models.FriendRequest, other *models.User) models.FriendRequestView {
	return models.FriendRequestView{
		ID:        req.ID,
		Status:    req.Status,
		CreatedAt: req.CreatedAt,
		User:      other.Summary(),
	}
}
