package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/rs/zerolog/log"
)

// ConnectionManager manages WebSocket connections grouped into per-session
// rooms. A client is a member of a room from join:session until disconnect.
type ConnectionManager struct {
	rooms map[string]map[*Connection]bool
	mu    sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection represents one WebSocket client.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	// roomCode is set by join:session; guarded by the manager mutex.
	roomCode string

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage represents a message to fan out to one room.
type BroadcastMessage struct {
	Code  string
	Event *Event
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		rooms: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start begins processing broadcast messages.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and starts its
// pumps. Room membership usually happens later, via the join:session
// command; the returned connection lets the caller join immediately.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, handler ClientCommandHandler) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	go connection.writePump()
	go connection.readPump(handler)

	log.Info().Str("connection_id", connection.ID).Msg("WebSocket connection established")
	return connection, nil
}

// JoinRoom makes a connection a member of a session's room and announces
// the new member count to the room.
func (cm *ConnectionManager) JoinRoom(conn *Connection, rawCode string) {
	code := models.CanonicalCode(rawCode)
	if code == "" {
		return
	}

	cm.mu.Lock()
	if conn.roomCode != "" {
		cm.removeLocked(conn)
	}
	conn.roomCode = code
	if cm.rooms[code] == nil {
		cm.rooms[code] = make(map[*Connection]bool)
	}
	cm.rooms[code][conn] = true
	count := len(cm.rooms[code])
	cm.mu.Unlock()

	log.Info().
		Str("connection_id", conn.ID).
		Str("session_code", code).
		Int("members", count).
		Msg("connection joined room")

	cm.broadcastCount(code, count)
}

// LeaveRoom removes a connection from its room (if any) and announces the
// updated count. Safe to call on never-joined or already-removed
// connections.
func (cm *ConnectionManager) LeaveRoom(conn *Connection) {
	cm.mu.Lock()
	code := conn.roomCode
	removed := cm.removeLocked(conn)
	count := len(cm.rooms[code])
	cm.mu.Unlock()

	if !removed {
		return
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("session_code", code).
		Int("members", count).
		Msg("connection left room")

	cm.broadcastCount(code, count)
}

// removeLocked detaches conn from its room. Caller holds the mutex.
func (cm *ConnectionManager) removeLocked(conn *Connection) bool {
	code := conn.roomCode
	if code == "" {
		return false
	}
	conns, ok := cm.rooms[code]
	if !ok || !conns[conn] {
		return false
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(cm.rooms, code)
	}
	conn.roomCode = ""
	return true
}

func (cm *ConnectionManager) broadcastCount(code string, count int) {
	payload, err := json.Marshal(events.SessionUpdatePayload{Count: count})
	if err != nil {
		return
	}
	cm.BroadcastToRoom(code, &Event{
		ID:          uuid.New().String(),
		SessionCode: code,
		Type:        events.TypeSessionUpdate,
		Timestamp:   time.Now(),
		Data:        payload,
	})
}

// BroadcastToRoom queues an event for every member of a session's room.
func (cm *ConnectionManager) BroadcastToRoom(code string, event *Event) {
	select {
	case cm.broadcastCh <- BroadcastMessage{Code: models.CanonicalCode(code), Event: event}:
	default:
		log.Warn().Str("session_code", code).Msg("broadcast channel full, dropping message")
	}
}

// SendToConnection delivers an event to a single client, bypassing rooms.
// Used for resync replies.
func (cm *ConnectionManager) SendToConnection(conn *Connection, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for client")
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, closing connection")
		cm.dropConnection(conn)
	}
}

// handleBroadcast fans a queued message out to its room.
func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	conns, exists := cm.rooms[message.Code]
	if !exists {
		cm.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(conns))
	for conn := range conns {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	data, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Connection is slow/dead, close it.
			log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, closing connection")
			cm.dropConnection(conn)
		}
	}

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Str("session_code", message.Code).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

func (cm *ConnectionManager) dropConnection(conn *Connection) {
	cm.LeaveRoom(conn)
	if conn.Conn != nil {
		conn.Conn.Close()
	}
}

// RoomCount returns the current member count for a session's room.
func (cm *ConnectionManager) RoomCount(code string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.rooms[models.CanonicalCode(code)])
}

// Stats returns counts of active rooms and connections.
func (cm *ConnectionManager) Stats() (totalConnections, activeRooms int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, conns := range cm.rooms {
		totalConnections += len(conns)
	}
	return totalConnections, len(cm.rooms)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.LeaveRoom(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection.
func (c *Connection) readPump(handler ClientCommandHandler) {
	defer func() {
		c.Manager.LeaveRoom(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			break
		}

		if handler != nil {
			handler.HandleClientMessage(c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
