// Package models defines the domain entities and the request/response shapes
// of the API. The `json` tags decide how each field is serialized.
package models

import (
	"fmt"
	"strings"
	"time"
)

// User is a registered account.
type User struct {
	ID               string           `json:"id"`
	Username         string           `json:"username"`
	Email            string           `json:"email"`
	PasswordHash     string           `json:"-"` // never serialized
	FirstName        string           `json:"first_name"`
	LastName         string           `json:"last_name"`
	Bio              string           `json:"bio"`
	AvatarURL        *string          `json:"avatar_url"`
	DarkMode         bool             `json:"dark_mode"`
	RegistrationStep RegistrationStep `json:"registration_step"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Summary returns the public part of the user, as shown to other users.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
	}
}

// UserSummary is the public profile of a user. Email and preferences are
// private and not part of it.
type UserSummary struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Bio       string  `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

// CreateUserRequest is the signup payload (registration step 1).
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// Validate trims the input, then checks the field rules.
// Usernames are limited to letters, digits and underscores.
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	if err := validateStruct(r); err != nil {
		return err
	}

	for _, ch := range r.Username {
		if !isValidUsernameChar(ch) {
			return fmt.Errorf("username can only contain letters, numbers, and underscores")
		}
	}
	return nil
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	return validateStruct(r)
}

// UpdateProfileRequest is a partial profile update.
// A nil field is left unchanged; an empty AvatarURL removes the avatar.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=512"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
}

func (r *UpdateProfileRequest) Validate() error {
	for _, p := range []*string{r.FirstName, r.LastName, r.Bio, r.AvatarURL, r.Email} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	if r.Email != nil && *r.Email == "" {
		return fmt.Errorf("email is required")
	}
	// An empty avatar URL clears the avatar; only a non-empty one must parse.
	if r.AvatarURL != nil && *r.AvatarURL != "" {
		if err := validate.Var(*r.AvatarURL, "url"); err != nil {
			return fmt.Errorf("avatar_url must be a valid URL")
		}
	}
	return validateStruct(r)
}

// IsEmpty reports whether the request changes nothing.
func (r *UpdateProfileRequest) IsEmpty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Bio == nil &&
		r.AvatarURL == nil && r.Email == nil
}

// Preference keys accepted by SetPreference.
const (
	PreferenceDarkMode = "dark_mode"
)

// SetPreferenceRequest sets a single preference. Value keeps the JSON type
// of the payload (bool for dark_mode).
type SetPreferenceRequest struct {
	Key   string `json:"key" validate:"required,oneof=dark_mode"`
	Value any    `json:"value"`
}

func (r *SetPreferenceRequest) Validate() error {
	r.Key = strings.TrimSpace(r.Key)
	return validateStruct(r)
}

// SearchUsersResponse wraps a search result page.
type SearchUsersResponse struct {
	Query   string        `json:"query"`
	Results []UserSummary `json:"results"`
}

func isValidUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}
