// Package handlers turns HTTP requests into service calls.
//
// A handler stays thin:
//  1. Parse the request (JSON body, path values, query)
//  2. Call the service
//  3. Write the result with pkg.JSON or pkg.Error
//
// No business rules and no SQL live here.
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

// contextKey is unexported so no other package can collide with our keys.
type contextKey string

// UserContextKey holds the authenticated *models.User, set by the auth
// middleware.
const UserContextKey contextKey = "user"

// AuthHandler serves signup and login.
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.Limiter
}

// NewAuthHandler is the constructor. A nil loginLimiter disables login rate
// limiting.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

// Register godoc
// POST /api/auth/register
// Body: { "username", "email", "password" }
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, resp)
}

// Login godoc
// POST /api/auth/login
// Body: { "username", "password" }
//
// Attempts are limited per client IP. Going over the limit returns 429 with
// Retry-After; a successful login clears the counter.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many login attempts, please try again in %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, resp)
}
