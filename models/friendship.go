package models

import (
	"strings"
	"time"
)

// FriendRequestStatus is the state of a directed friend request.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed proposal from one user to another.
// There is at most one row per ordered (FromUserID, ToUserID) pair.
type FriendRequest struct {
	ID         string              `json:"id"`
	FromUserID string              `json:"from_user_id"`
	ToUserID   string              `json:"to_user_id"`
	Status     FriendRequestStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// IsPending reports whether the request still awaits a response.
func (r *FriendRequest) IsPending() bool {
	return r.Status == FriendRequestPending
}

// Friendship is an undirected edge. User1ID < User2ID always holds.
type Friendship struct {
	ID        string    `json:"id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Pair returns the canonical pair of the friendship.
func (f *Friendship) Pair() Pair {
	return Pair{Low: f.User1ID, High: f.User2ID}
}

// Pair is an unordered pair of user IDs stored in canonical order
// (Low < High), so that (a, b) and (b, a) compare equal and hit the same
// UNIQUE index.
type Pair struct {
	Low  string
	High string
}

// NewPair canonicalizes two user IDs.
func NewPair(a, b string) Pair {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}

// Contains reports whether userID is one of the two endpoints.
func (p Pair) Contains(userID string) bool {
	return p.Low == userID || p.High == userID
}

// Other returns the endpoint that is not userID. The second return value is
// false when userID is not part of the pair.
func (p Pair) Other(userID string) (string, bool) {
	switch userID {
	case p.Low:
		return p.High, true
	case p.High:
		return p.Low, true
	default:
		return "", false
	}
}

// FriendView is one entry of a friend list: the friend's profile and the
// date the friendship was formed.
type FriendView struct {
	FriendshipID string      `json:"friendship_id"`
	Since        time.Time   `json:"since"`
	User         UserSummary `json:"user"`
}

// FriendRequestView is a pending request together with the other party
// (the recipient for sent requests, the sender for received ones).
type FriendRequestView struct {
	ID        string              `json:"id"`
	Status    FriendRequestStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	User      UserSummary         `json:"user"`
}

// SendRequestOutcome tells the caller what a send actually did.
type SendRequestOutcome string

const (
	// OutcomeRequested: a new pending request now exists.
	OutcomeRequested SendRequestOutcome = "requested"
	// OutcomeAccepted: the other user had already asked; their request was
	// accepted and a friendship created instead.
	OutcomeAccepted SendRequestOutcome = "accepted"
)

// SendRequestResult is the structured result of sending a friend request.
// Friendship is set only when Outcome is OutcomeAccepted.
type SendRequestResult struct {
	Outcome    SendRequestOutcome `json:"outcome"`
	Request    *FriendRequest     `json:"request"`
	Friendship *Friendship        `json:"friendship,omitempty"`
}

// RespondAction is the answer to a received friend request.
type RespondAction string

const (
	RespondAccept RespondAction = "accept"
	RespondReject RespondAction = "reject"
)

// RespondResult is the structured result of answering a request.
// Friendship is set only for RespondAccept.
type RespondResult struct {
	Request    *FriendRequest `json:"request"`
	Friendship *Friendship    `json:"friendship,omitempty"`
}

// SendFriendRequestRequest addresses the target by ID or by username.
type SendFriendRequestRequest struct {
	UserID   string `json:"user_id" validate:"required_without=Username"`
	Username string `json:"username" validate:"required_without=UserID"`
}

func (r *SendFriendRequestRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Username = strings.TrimSpace(r.Username)
	return validateStruct(r)
}
