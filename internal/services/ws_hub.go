package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket message types
const (
	MsgEventUpdated  = "event_updated"
	MsgJoinRequested = "join_requested"
	MsgJoinApproved  = "join_approved"
	MsgJoinRejected  = "join_rejected"
	MsgPhotoAdded    = "photo_added"
	MsgPhotoUploaded = "photo_uploaded"
	MsgPing          = "ping"
	MsgPong          = "pong"
	MsgError         = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	EventID   string      `json:"event_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	PhotoID   string      `json:"photo_id,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Realtime pushes messages to connected users
type Realtime interface {
	SendToUser(userID string, message WSMessage) error
	IsOnline(userID string) bool
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // one writer at a time
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, one per user
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
	}
}

// Register registers a new WebSocket connection for a user, replacing an older one
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.conn.Close()
	}
	h.connections[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes conn for a user. A newer connection of the same user is kept.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.connections[userID]
	if !ok || client.conn != conn {
		return
	}
	client.conn.Close()
	delete(h.connections, userID)
	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// sendToOnline delivers message to those of userIDs that are connected
func sendToOnline(rt Realtime, userIDs []string, message WSMessage) {
	for _, id := range userIDs {
		if !rt.IsOnline(id) {
			continue
		}
		if err := rt.SendToUser(id, message); err != nil {
			log.Error().
				Err(err).
				Str("user_id", id).
				Str("type", message.Type).
				Msg("Failed to push realtime message")
		}
	}
}
