package handlers

import (
	"context"
	"net/http"

	"event-photo-backend/internal/middleware"
	"event-photo-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// EventAPI is the event surface used by EventHandler
type EventAPI interface {
	CreateEvent(ctx context.Context, ownerID string, req services.CreateEventRequest) (*services.EventView, error)
	GetEvent(ctx context.Context, userID, eventID string) (*services.EventView, error)
	ListEvents(ctx context.Context, userID string) ([]*services.EventView, error)
	SetCoverImage(ctx context.Context, userID, eventID, contentType string) (*services.UploadTarget, error)
	ConfirmCoverImage(ctx context.Context, userID, eventID, key string) (*services.EventView, error)
}

// MembershipAPI is the join and approval surface used by EventHandler
type MembershipAPI interface {
	Join(ctx context.Context, userID, eventID string) (*services.JoinResult, error)
	JoinByCode(ctx context.Context, userID, code string) (*services.JoinResult, error)
	ListPending(ctx context.Context, ownerID, eventID string) ([]*services.PendingUser, error)
	Approve(ctx context.Context, ownerID, eventID, userID string) (*services.EventView, error)
	Reject(ctx context.Context, ownerID, eventID, userID string) (*services.EventView, error)
}

// EventHandler handles event and membership HTTP requests
type EventHandler struct {
	eventService      EventAPI
	membershipService MembershipAPI
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService EventAPI, membershipService MembershipAPI) *EventHandler {
	return &EventHandler{
		eventService:      eventService,
		membershipService: membershipService,
	}
}

// CreateEvent handles POST /api/v1/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.CreateEvent(ctx, userID, req)
	if err != nil {
		respondServiceError(w, err, "Failed to create event")
		return
	}

	respondJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /api/v1/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	events, err := h.eventService.ListEvents(ctx, userID)
	if err != nil {
		respondServiceError(w, err, "Failed to list events")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// GetEvent handles GET /api/v1/events/{event_id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	event, err := h.eventService.GetEvent(ctx, userID, chi.URLParam(r, "event_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to get event")
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// CoverRequest asks for a cover image upload URL
type CoverRequest struct {
	ContentType string `json:"content_type"`
}

// SetCover handles POST /api/v1/events/{event_id}/cover
func (h *EventHandler) SetCover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CoverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	target, err := h.eventService.SetCoverImage(ctx, userID, chi.URLParam(r, "event_id"), req.ContentType)
	if err != nil {
		respondServiceError(w, err, "Failed to generate cover upload URL")
		return
	}

	respondJSON(w, http.StatusOK, target)
}

// ConfirmCoverRequest reports a finished cover upload
type ConfirmCoverRequest struct {
	Key string `json:"key"`
}

// ConfirmCover handles PUT /api/v1/events/{event_id}/cover
func (h *EventHandler) ConfirmCover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req ConfirmCoverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Key == "" {
		respondError(w, "key is required", http.StatusBadRequest)
		return
	}

	event, err := h.eventService.ConfirmCoverImage(ctx, userID, chi.URLParam(r, "event_id"), req.Key)
	if err != nil {
		respondServiceError(w, err, "Failed to update cover image")
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// Join handles POST /api/v1/events/{event_id}/join
func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	result, err := h.membershipService.Join(ctx, userID, chi.URLParam(r, "event_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to join event")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// JoinByCodeRequest represents a request to join with an event code
type JoinByCodeRequest struct {
	EventCode string `json:"event_code"`
}

// JoinByCode handles POST /api/v1/events/join-by-code
func (h *EventHandler) JoinByCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req JoinByCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.EventCode == "" {
		respondError(w, "event_code is required", http.StatusBadRequest)
		return
	}

	result, err := h.membershipService.JoinByCode(ctx, userID, req.EventCode)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Join by code failed")
		respondServiceError(w, err, "Failed to join event")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListPending handles GET /api/v1/events/{event_id}/pending
func (h *EventHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	pending, err := h.membershipService.ListPending(ctx, userID, chi.URLParam(r, "event_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to list pending users")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pending": pending,
	})
}

// Approve handles POST /api/v1/events/{event_id}/pending/{user_id}/approve
func (h *EventHandler) Approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.GetUserID(ctx)

	event, err := h.membershipService.Approve(ctx, ownerID, chi.URLParam(r, "event_id"), chi.URLParam(r, "user_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to approve user")
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// Reject handles POST /api/v1/events/{event_id}/pending/{user_id}/reject
func (h *EventHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.GetUserID(ctx)

	event, err := h.membershipService.Reject(ctx, ownerID, chi.URLParam(r, "event_id"), chi.URLParam(r, "user_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to reject user")
		return
	}

	respondJSON(w, http.StatusOK, event)
}
