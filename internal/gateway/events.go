// Package gateway bridges the NATS event bus to WebSocket clients. Each
// quiz session has a room; clients join a room, receive every event
// published for it, and can ask for a state resync at any time.
package gateway

import (
	"encoding/json"
	"time"

	"github.com/quizdeck/quizdeck/internal/game/events"
)

// Event is the frame delivered to WebSocket clients.
type Event struct {
	ID          string          `json:"id"`
	SessionCode string          `json:"session_code"`
	Type        events.Type     `json:"type"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is what clients send over the socket. Two actions are
// understood: "join:session" and "sync:state", both carrying a session
// code.
type ClientMessage struct {
	Action string `json:"action"`
	Code   string `json:"code"`
}

const (
	ActionJoinSession = "join:session"
	ActionSyncState   = "sync:state"
)

// ClientCommandHandler processes inbound client messages for a connection.
type ClientCommandHandler interface {
	HandleClientMessage(conn *Connection, raw []byte)
}
