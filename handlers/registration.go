package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/services"
)

// RegistrationHandler exposes the onboarding steps.
//
//	GET  /api/registration               → Status
//	POST /api/registration/advance       → Advance
//	POST /api/registration/personal-info → SubmitPersonalInfo (step 2)
//	POST /api/registration/avatar        → SubmitAvatar (step 3)
type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(registrationService services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

func (h *RegistrationHandler) Status(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	status, err := h.registrationService.Status(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, status)
}

func (h *RegistrationHandler) Advance(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	updated, err := h.registrationService.Advance(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, models.NewRegistrationStatus(updated.RegistrationStep))
}

// SubmitPersonalInfo godoc
// POST /api/registration/personal-info
// Body: { "first_name", "last_name", "bio" }
func (h *RegistrationHandler) SubmitPersonalInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.PersonalInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.registrationService.SubmitPersonalInfo(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, updated)
}

// SubmitAvatar godoc
// POST /api/registration/avatar
// Body: { "avatar_url" }. An empty URL skips the avatar.
func (h *RegistrationHandler) SubmitAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.AvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.registrationService.SubmitAvatar(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, updated)
}
