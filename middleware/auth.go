// Package middleware holds the layers a request passes through before it
// reaches a handler.
//
// A middleware is func(next http.Handler) http.Handler. It does its own work
// (e.g. verify a token) and then calls next, or writes an error response and
// stops the chain.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/connectplus/handlers"
	"github.com/akinalp/connectplus/pkg"
	"github.com/akinalp/connectplus/repository"
	"github.com/akinalp/connectplus/services"
)

// AuthMiddleware verifies access tokens.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require rejects requests without a valid token with 401.
//
// Header format: Authorization: Bearer <token>
//
//  1. Read the Authorization header
//  2. Strip the "Bearer " prefix
//  3. Validate the token
//  4. Load the user and put it in the request context
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1.
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		// 2.
		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		// 3.
		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// 4. The token may outlive the account.
		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
