package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/pkg/ratelimit"
	"github.com/akinalp/connectplus/services"
)

// ChatHandler serves one-to-one conversations.
//
//	GET  /api/chats                → ListConversations
//	POST /api/chats                → CreateConversation
//	GET  /api/chats/{id}/messages  → ListMessages
//	POST /api/chats/{id}/messages  → PostMessage
type ChatHandler struct {
	chatService    services.ChatService
	messageLimiter *ratelimit.Limiter
}

// NewChatHandler is the constructor. messageLimiter is keyed by user ID; nil
// disables it.
func NewChatHandler(chatService services.ChatService, messageLimiter *ratelimit.Limiter) *ChatHandler {
	return &ChatHandler{chatService: chatService, messageLimiter: messageLimiter}
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	conversations, err := h.chatService.ListConversations(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, conversations)
}

// CreateConversation godoc
// POST /api/chats
// Body: { "user_id": "..." }
//
// Returns the existing conversation when the pair already has one.
func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.Error(w, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err))
		return
	}

	conv, err := h.chatService.GetOrCreateConversation(r.Context(), user.ID, req.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, conv)
}

// ListMessages godoc
// GET /api/chats/{id}/messages
// Oldest first.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	messages, err := h.chatService.ListMessages(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// PostMessage godoc
// POST /api/chats/{id}/messages
// Body: { "content": "..." }
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if h.messageLimiter != nil && !h.messageLimiter.Allow(user.ID) {
		retryAfter := h.messageLimiter.RetryAfterSeconds(user.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("you are sending messages too fast, please wait %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.chatService.PostMessage(r.Context(), r.PathValue("id"), user.ID, req.Content)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, msg)
}
