package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/services"
)

// UserHandler serves profiles, preferences and user search.
//
//	GET   /api/users/me               → GetMe
//	GET   /api/users/search?q=&limit= → Search
//	GET   /api/users/{id}             → GetProfile
//	PATCH /api/users/me/profile       → UpdateProfile
//	PUT   /api/users/me/preferences   → SetPreference
//	POST  /api/users/me/dark-mode     → ToggleDarkMode
type UserHandler struct {
	userService   services.UserService
	friendService services.FriendshipService
}

func NewUserHandler(userService services.UserService, friendService services.FriendshipService) *UserHandler {
	return &UserHandler{userService: userService, friendService: friendService}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, profile)
}

// UpdateProfile godoc
// PATCH /api/users/me/profile
// Body: any of { "first_name", "last_name", "bio", "avatar_url", "email" }
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, updated)
}

// SetPreference godoc
// PUT /api/users/me/preferences
// Body: { "key": "dark_mode", "value": true }
func (h *UserHandler) SetPreference(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.SetPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.userService.SetPreference(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, updated)
}

func (h *UserHandler) ToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	updated, err := h.userService.ToggleDarkMode(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, updated)
}

// Search godoc
// GET /api/users/search?q=ann&limit=10
// The caller and their friends are left out. limit is optional.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	resp, err := h.friendService.SearchUsers(r.Context(), user.ID, r.URL.Query().Get("q"), limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, resp)
}
