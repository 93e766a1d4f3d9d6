// Package broadcast carries room-scoped game events from their producers
// (game loop, admin HTTP handlers) to the gateway over NATS.
package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/quizdeck/quizdeck/internal/game/events"
)

// Broadcaster publishes one event to every subscriber of a session's room.
type Broadcaster interface {
	Broadcast(ctx context.Context, code string, eventType events.Type, payload any) error
}

// Envelope is the bus wire format for one room event. The gateway consumer
// decodes this and fans the payload out to the room's connections.
type Envelope struct {
	EventID     string          `json:"eventId"`
	EventType   events.Type     `json:"eventType"`
	SessionCode string          `json:"sessionCode"`
	Timestamp   time.Time       `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
}
