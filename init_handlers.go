package main

import (
	"github.com/akinalp/connectplus/handlers"
	"github.com/akinalp/connectplus/pkg/ratelimit"
	"github.com/akinalp/connectplus/ws"
)

// Handlers groups every HTTP handler.
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Registration *handlers.RegistrationHandler
	Friendship   *handlers.FriendshipHandler
	Chat         *handlers.ChatHandler
	WS           *ws.Handler
}

// Limiters are stopped on shutdown.
type Limiters struct {
	Login   *ratelimit.Limiter
	Message *ratelimit.Limiter
}

func (l *Limiters) Stop() {
	l.Login.Stop()
	l.Message.Stop()
}

func initHandlers(svcs *Services, hub *ws.Hub, limiters *Limiters, allowedOrigins []string) *Handlers {
	return &Handlers{
		Auth:         handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		User:         handlers.NewUserHandler(svcs.User, svcs.Friendship),
		Registration: handlers.NewRegistrationHandler(svcs.Registration),
		Friendship:   handlers.NewFriendshipHandler(svcs.Friendship),
		Chat:         handlers.NewChatHandler(svcs.Chat, limiters.Message),
		WS:           ws.NewHandler(hub, svcs.Auth, allowedOrigins),
	}
}
