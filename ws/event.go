// Package ws pushes relationship and chat events to connected browsers.
//
// Flow:
//  1. A user sends a friend request over HTTP → service → DB commit
//  2. The service calls Broadcaster.BroadcastToUser for the affected user
//  3. The Hub hands the encoded event to every connection of that user
//  4. Each Client's WritePump writes it to the socket
package ws

// Event is one frame exchanged over the socket.
//
// Seq is assigned by the Hub to every outbound event; a client that sees a
// gap knows it missed something and should refetch over HTTP.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// ─── Client → Server ───

const (
	OpHeartbeat = "heartbeat" // sent by the client every 30s
)

// ─── Server → Client ───

const (
	OpReady        = "ready"
	OpHeartbeatAck = "heartbeat_ack"

	// Relationship graph
	OpFriendRequestCreate  = "friend_request_create"  // to the recipient
	OpFriendRequestAccept  = "friend_request_accept"  // to both users
	OpFriendRequestDecline = "friend_request_decline" // to the sender
	OpFriendRequestCancel  = "friend_request_cancel"  // to the recipient
	OpFriendRemove         = "friend_remove"          // to the other user

	// Conversations
	OpChatCreate        = "chat_create"         // to the peer
	OpChatMessageCreate = "chat_message_create" // to both participants
)

// ReadyData is the payload of the first frame after a connection is accepted.
type ReadyData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// FriendRemoveData tells a user that a friendship with UserID ended.
type FriendRemoveData struct {
	UserID string `json:"user_id"`
}

// FriendRequestCancelData tells the recipient a pending request was withdrawn.
type FriendRequestCancelData struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
}
