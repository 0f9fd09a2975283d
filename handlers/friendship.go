package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/services"
)

// FriendshipHandler serves the friend graph endpoints.
//
//	GET    /api/friends                     → ListFriends
//	GET    /api/friends/requests/sent       → ListSent
//	GET    /api/friends/requests/received   → ListReceived
//	POST   /api/friends/requests            → SendRequest
//	POST   /api/friends/requests/{id}/accept → Accept
//	POST   /api/friends/requests/{id}/reject → Reject
//	DELETE /api/friends/requests/{id}       → Cancel
//	DELETE /api/friends/{userId}            → RemoveFriend
type FriendshipHandler struct {
	friendService services.FriendshipService
}

func NewFriendshipHandler(friendService services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendService: friendService}
}

// ListFriends godoc
// GET /api/friends
func (h *FriendshipHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, friends)
}

// ListSent godoc
// GET /api/friends/requests/sent
func (h *FriendshipHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	requests, err := h.friendService.ListPendingSent(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, requests)
}

// ListReceived godoc
// GET /api/friends/requests/received
func (h *FriendshipHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	requests, err := h.friendService.ListPendingReceived(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, requests)
}

// SendRequest godoc
// POST /api/friends/requests
// Body: { "user_id": "..." } or { "username": "..." }
//
// 201 when a pending request was created, 200 when a request from the target
// already existed and the two users are now friends.
func (h *FriendshipHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.SendFriendRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.friendService.SendRequest(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	status := http.StatusCreated
	if result.Outcome == models.OutcomeAccepted {
		status = http.StatusOK
	}
	pkg.JSON(w, status, result)
}

// Accept godoc
// POST /api/friends/requests/{id}/accept
func (h *FriendshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, models.RespondAccept)
}

// Reject godoc
// POST /api/friends/requests/{id}/reject
func (h *FriendshipHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, models.RespondReject)
}

func (h *FriendshipHandler) respond(w http.ResponseWriter, r *http.Request, action models.RespondAction) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	result, err := h.friendService.Respond(r.Context(), user.ID, r.PathValue("id"), action)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, result)
}

// Cancel godoc
// DELETE /api/friends/requests/{id}
// Only the sender can withdraw a pending request.
func (h *FriendshipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.friendService.CancelRequest(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "friend request cancelled"})
}

// RemoveFriend godoc
// DELETE /api/friends/{userId}
func (h *FriendshipHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.friendService.RemoveFriend(r.Context(), user.ID, r.PathValue("userId")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "friend removed"})
}
