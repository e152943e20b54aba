package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"event-photo-backend/internal/middleware"
	"event-photo-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients send no Origin
	},
}

// UploadConfirmer announces finished uploads
type UploadConfirmer interface {
	ConfirmUpload(ctx context.Context, userID, eventID, photoID string) error
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub          *services.WSHub
	validator    middleware.TokenValidator
	photoService UploadConfirmer
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	validator middleware.TokenValidator,
	photoService UploadConfirmer,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		validator:    validator,
		photoService: photoService,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.validator)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	ctx := r.Context()
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.reply(userID, services.WSMessage{Type: services.MsgError, Message: "Invalid message format"})
			continue
		}

		if err := h.handleMessage(ctx, userID, msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.reply(userID, services.WSMessage{Type: services.MsgError, Message: clientMessage(err)})
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) error {
	switch msg.Type {
	case services.MsgPing:
		h.reply(userID, services.WSMessage{Type: services.MsgPong, Timestamp: time.Now().Unix()})
		return nil
	case services.MsgPhotoUploaded:
		if msg.EventID == "" || msg.PhotoID == "" {
			return errors.New("event_id and photo_id are required")
		}
		if err := h.photoService.ConfirmUpload(ctx, userID, msg.EventID, msg.PhotoID); err != nil {
			return err
		}
		log.Info().
			Str("user_id", userID).
			Str("event_id", msg.EventID).
			Str("photo_id", msg.PhotoID).
			Msg("Photo uploaded")
		return nil
	default:
		return errors.New("unknown message type")
	}
}

func (h *WebSocketHandler) reply(userID string, msg services.WSMessage) {
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send WebSocket reply")
	}
}

// clientMessage hides internal failures from websocket clients
func clientMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
