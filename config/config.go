// Package config loads the application configuration from environment
// variables. A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every setting, grouped by concern.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Friends   FriendsConfig
	Chat      ChatConfig
	RateLimit RateLimitConfig
	AMQP      AMQPConfig
	CORS      CORSConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string // e.g. ./data/connectplus.db
}

// JWTConfig holds access token and password hashing settings.
type JWTConfig struct {
	Secret            string // keep it secret
	AccessTokenExpiry int    // minutes (default 60)
	BcryptCost        int    // default 12
}

// FriendsConfig holds the relationship graph policies.
type FriendsConfig struct {
	// SearchLimit caps the number of user search results (default 20).
	SearchLimit int
	// AllowRerequest lets a user send a new request to someone whose earlier
	// request from them was rejected or resolved. Off by default: one request
	// per ordered pair, forever.
	AllowRerequest bool
}

// ChatConfig holds conversation limits.
type ChatConfig struct {
	MaxMessageLength int // runes (default 2000)
}

// RateLimitConfig holds the login and message limiter settings.
type RateLimitConfig struct {
	LoginAttempts   int
	LoginWindow     time.Duration
	MessageLimit    int
	MessageWindow   time.Duration
	MessageCooldown time.Duration
}

// AMQPConfig holds the domain event broker settings. An empty URL disables
// publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// CORSConfig holds the allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load builds the Config from the environment.
func Load() (*Config, error) {
	// A missing .env is fine; production sets real variables.
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	var err error
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/connectplus.db"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "connectplus.events"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	ints := []struct {
		key      string
		fallback string
		dst      *int
	}{
		{"SERVER_PORT", "9090", &cfg.Server.Port},
		{"JWT_ACCESS_EXPIRY_MINUTES", "60", &cfg.JWT.AccessTokenExpiry},
		{"BCRYPT_COST", "12", &cfg.JWT.BcryptCost},
		{"FRIEND_SEARCH_LIMIT", "20", &cfg.Friends.SearchLimit},
		{"CHAT_MAX_MESSAGE_LENGTH", "2000", &cfg.Chat.MaxMessageLength},
		{"LOGIN_RATE_LIMIT_ATTEMPTS", "5", &cfg.RateLimit.LoginAttempts},
		{"MESSAGE_RATE_LIMIT", "5", &cfg.RateLimit.MessageLimit},
	}
	for _, v := range ints {
		if *v.dst, err = strconv.Atoi(getEnv(v.key, v.fallback)); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.key, err)
		}
	}

	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"LOGIN_RATE_LIMIT_WINDOW", "2m", &cfg.RateLimit.LoginWindow},
		{"MESSAGE_RATE_LIMIT_WINDOW", "5s", &cfg.RateLimit.MessageWindow},
		{"MESSAGE_RATE_LIMIT_COOLDOWN", "15s", &cfg.RateLimit.MessageCooldown},
	}
	for _, v := range durations {
		if *v.dst, err = time.ParseDuration(getEnv(v.key, v.fallback)); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.key, err)
		}
	}

	if cfg.Friends.AllowRerequest, err = strconv.ParseBool(getEnv("FRIEND_ALLOW_REREQUEST", "false")); err != nil {
		return nil, fmt.Errorf("invalid FRIEND_ALLOW_REREQUEST: %w", err)
	}

	if cfg.Friends.SearchLimit < 1 {
		return nil, fmt.Errorf("FRIEND_SEARCH_LIMIT must be at least 1")
	}
	if cfg.Chat.MaxMessageLength < 1 {
		return nil, fmt.Errorf("CHAT_MAX_MESSAGE_LENGTH must be at least 1")
	}

	return cfg, nil
}

// Addr returns the listen address, e.g. "0.0.0.0:9090".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv reads an environment variable, falling back when it is unset.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
