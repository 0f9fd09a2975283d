package main

import (
	"database/sql"
	"log"

	"github.com/akinalp/connectplus/config"
	"github.com/akinalp/connectplus/pkg/events"
	"github.com/akinalp/connectplus/services"
	"github.com/akinalp/connectplus/ws"
)

// Services groups every business service.
type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Registration services.RegistrationService
	Friendship   services.FriendshipService
	Chat         services.ChatService
}

func initServices(
	db *sql.DB,
	repos *Repositories,
	hub ws.Broadcaster,
	publisher events.Publisher,
	cfg *config.Config,
) *Services {
	return &Services{
		Auth: services.NewAuthService(
			repos.User,
			publisher,
			cfg.JWT.Secret,
			cfg.JWT.AccessTokenExpiry,
			cfg.JWT.BcryptCost,
		),
		User:         services.NewUserService(db, repos.User),
		Registration: services.NewRegistrationService(db, repos.User),
		Friendship: services.NewFriendshipService(
			db,
			repos.User,
			repos.FriendRequest,
			repos.Friendship,
			hub,
			publisher,
			services.FriendshipPolicy{
				AllowRerequest: cfg.Friends.AllowRerequest,
				SearchLimit:    cfg.Friends.SearchLimit,
			},
		),
		Chat: services.NewChatService(db, repos.Chat, hub, publisher, cfg.Chat.MaxMessageLength),
	}
}

// initPublisher connects to the broker when AMQP_URL is set. A broker that
// cannot be reached is logged and replaced by the noop publisher so the API
// still starts.
func initPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQP.URL == "" {
		return events.NewNoopPublisher()
	}

	publisher, err := events.NewRabbitPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		log.Printf("[main] amqp unavailable, events disabled: %v", err)
		return events.NewNoopPublisher()
	}
	log.Printf("[main] publishing domain events to exchange %s", cfg.AMQP.Exchange)
	return publisher
}
