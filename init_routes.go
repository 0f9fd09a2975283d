package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akinalp/connectplus/middleware"
	"github.com/akinalp/connectplus/repository"
	"github.com/akinalp/connectplus/services"
)

// initRoutes builds the middleware chain and binds every endpoint.
//
// ServeMux picks the most specific pattern, so "/api/users/me" and
// "/api/users/search" win over "/api/users/{id}".
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
) {
	authMw := middleware.NewAuthMiddleware(authService, userRepo)
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}

	// ─── Public ───
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"connectplus"}`)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)

	// Browsers cannot set headers on the upgrade request, so the token
	// travels as ?token= and the WS handler checks it itself.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)

	// ─── Users ───
	mux.Handle("GET /api/users/me", auth(h.User.GetMe))
	mux.Handle("GET /api/users/search", auth(h.User.Search))
	mux.Handle("GET /api/users/{id}", auth(h.User.GetProfile))
	mux.Handle("PATCH /api/users/me/profile", auth(h.User.UpdateProfile))
	mux.Handle("PUT /api/users/me/preferences", auth(h.User.SetPreference))
	mux.Handle("POST /api/users/me/dark-mode", auth(h.User.ToggleDarkMode))

	// ─── Registration ───
	mux.Handle("GET /api/registration", auth(h.Registration.Status))
	mux.Handle("POST /api/registration/advance", auth(h.Registration.Advance))
	mux.Handle("POST /api/registration/personal-info", auth(h.Registration.SubmitPersonalInfo))
	mux.Handle("POST /api/registration/avatar", auth(h.Registration.SubmitAvatar))

	// ─── Friends ───
	mux.Handle("GET /api/friends", auth(h.Friendship.ListFriends))
	mux.Handle("GET /api/friends/requests/sent", auth(h.Friendship.ListSent))
	mux.Handle("GET /api/friends/requests/received", auth(h.Friendship.ListReceived))
	mux.Handle("POST /api/friends/requests", auth(h.Friendship.SendRequest))
	mux.Handle("POST /api/friends/requests/{id}/accept", auth(h.Friendship.Accept))
	mux.Handle("POST /api/friends/requests/{id}/reject", auth(h.Friendship.Reject))
	mux.Handle("DELETE /api/friends/requests/{id}", auth(h.Friendship.Cancel))
	mux.Handle("DELETE /api/friends/{userId}", auth(h.Friendship.RemoveFriend))

	// ─── Chats ───
	mux.Handle("GET /api/chats", auth(h.Chat.ListConversations))
	mux.Handle("POST /api/chats", auth(h.Chat.CreateConversation))
	mux.Handle("GET /api/chats/{id}/messages", auth(h.Chat.ListMessages))
	mux.Handle("POST /api/chats/{id}/messages", auth(h.Chat.PostMessage))
}
