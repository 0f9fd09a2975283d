package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of an access token.
// jwt.RegisteredClaims carries exp, iat and sub.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}
