package ws

import (
	"log"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/akinalp/connectplus/models"
)

// TokenValidator validates the access token passed on the socket URL.
//
// Declared here rather than importing services: services already import ws
// for Broadcaster, so the reverse import would be a cycle. The auth service
// satisfies it implicitly.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// Handler upgrades authenticated HTTP requests to WebSocket connections.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	upgrader       websocket.Upgrader
}

// NewHandler builds the handler. Browsers always send an Origin header on
// socket upgrades; it must be one of allowedOrigins. Requests without an
// Origin (native clients, tests) are accepted.
func NewHandler(hub *Hub, tokenValidator TokenValidator, allowedOrigins []string) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// HandleConnection serves GET /ws?token=JWT.
//
// Browsers cannot set an Authorization header on a socket upgrade, so the
// access token travels in the query string.
//
// Flow:
//  1. Validate the token
//  2. Upgrade the connection
//  3. Queue the ready frame and register the client with the Hub
//  4. Start WritePump; ReadPump blocks until the socket closes
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	// 1. Token
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// 2. Upgrade
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	client := newClient(h.hub, conn, claims.UserID)

	// 3. The ready frame is queued before registration so it is always the
	// first frame the client sees.
	client.sendEvent(Event{Op: OpReady, Data: ReadyData{UserID: claims.UserID, Username: claims.Username}})

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	// 4. Pumps
	go client.WritePump()
	client.ReadPump()
}
