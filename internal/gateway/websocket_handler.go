package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck/internal/game"
	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
	"github.com/rs/zerolog/log"
)

// StateResyncer answers "what should this client show right now" for a
// session code.
type StateResyncer interface {
	Resync(ctx context.Context, code string, now time.Time) (*game.SyncState, error)
}

// WebSocketHandler handles WebSocket upgrades and the two client commands
// (join:session, sync:state).
type WebSocketHandler struct {
	manager  *ConnectionManager
	resyncer StateResyncer
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(manager *ConnectionManager, resyncer StateResyncer) *WebSocketHandler {
	return &WebSocketHandler{
		manager:  manager,
		resyncer: resyncer,
	}
}

// HandleWebSocket upgrades /ws requests. A ?code= query parameter joins
// the room immediately; otherwise the client sends join:session itself.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.manager.UpgradeConnection(w, r, h)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	if code := r.URL.Query().Get("code"); code != "" {
		h.manager.JoinRoom(conn, code)
	}
}

// HandleClientMessage dispatches one inbound socket message.
func (h *WebSocketHandler) HandleClientMessage(conn *Connection, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Warn().Err(err).Str("connection_id", conn.ID).Msg("unparseable client message")
		return
	}

	switch msg.Action {
	case ActionJoinSession:
		h.manager.JoinRoom(conn, msg.Code)
	case ActionSyncState:
		h.handleSync(conn, msg.Code)
	default:
		log.Warn().
			Str("connection_id", conn.ID).
			Str("action", msg.Action).
			Msg("unknown client action")
	}
}

// handleSync answers a sync:state request. The reply goes to the asking
// connection only; the rest of the room is unaffected.
func (h *WebSocketHandler) handleSync(conn *Connection, rawCode string) {
	code := models.CanonicalCode(rawCode)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := h.resyncer.Resync(ctx, code, time.Now())
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			h.reply(conn, code, events.TypeGameError, "Session not found")
			return
		}
		log.Error().Err(err).Str("session_code", code).Msg("resync failed")
		h.reply(conn, code, events.TypeSyncIdle, struct{}{})
		return
	}

	switch state.Kind {
	case game.SyncQuestion:
		h.reply(conn, code, events.TypeGameQuestion, state.Question)
	case game.SyncRanks:
		h.reply(conn, code, events.TypeGameRanks, state.Ranks)
	case game.SyncGameOver:
		h.reply(conn, code, events.TypeGameOver, events.OverPayload{})
	default:
		h.reply(conn, code, events.TypeSyncIdle, struct{}{})
	}
}

func (h *WebSocketHandler) reply(conn *Connection, code string, eventType events.Type, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal sync reply")
		return
	}
	h.manager.SendToConnection(conn, &Event{
		ID:          uuid.New().String(),
		SessionCode: code,
		Type:        eventType,
		Timestamp:   time.Now(),
		Data:        data,
	})
}

// HandleStats reports gateway connection statistics.
func (h *WebSocketHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	connections, rooms := h.manager.Stats()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"total_connections":%d,"active_rooms":%d}`, connections, rooms)
}
