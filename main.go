// Package main is the entry point of the connectplus backend.
//
// main only wires things together:
//
//  1. Load config
//  2. Open the database and apply migrations
//  3. Register metrics
//  4. Connect the event publisher
//  5. Start the WebSocket hub
//  6. Build repositories, services and handlers
//  7. Bind routes and CORS
//  8. Serve until SIGINT/SIGTERM, then shut down gracefully
//
// There are no globals; every dependency is created here and passed down.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/connectplus/config"
	"github.com/akinalp/connectplus/database"
	"github.com/akinalp/connectplus/pkg/metrics"
	"github.com/akinalp/connectplus/pkg/ratelimit"
	"github.com/akinalp/connectplus/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] connectplus server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	db, err := database.New(cfg.Database.Path, database.Migrations())
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Metrics ───
	metrics.Register()

	// ─── 4. Events ───
	publisher := initPublisher(cfg)
	defer publisher.Close()

	// ─── 5. WebSocket Hub ───
	hub := ws.NewHub()
	go hub.Run()

	// ─── 6. Layers ───
	repos := initRepositories(db.Conn)
	svcs := initServices(db.Conn, repos, hub, publisher, cfg)

	limiters := &Limiters{
		// Login: N failed attempts per IP inside the window, then a lockout
		// as long as the window.
		Login: ratelimit.New(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow, cfg.RateLimit.LoginWindow),
		// Messages: per user.
		Message: ratelimit.New(cfg.RateLimit.MessageLimit, cfg.RateLimit.MessageWindow, cfg.RateLimit.MessageCooldown),
	}
	defer limiters.Stop()

	h := initHandlers(svcs, hub, limiters, cfg.CORS.AllowedOrigins)

	// ─── 7. Router + CORS ───
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 8. Serve + Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Sockets first so clients see the close before the listener goes away.
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
