package handlers

import (
	"context"
	"net/http"

	"event-photo-backend/internal/middleware"
	"event-photo-backend/internal/models"
	"event-photo-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserAPI is the account surface used by UserHandler
type UserAPI interface {
	Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResponse, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.AuthResponse, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdatePushToken(ctx context.Context, userID, pushToken string) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService UserAPI
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserAPI) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Register handles POST /api/v1/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.userService.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "Failed to register user")
		return
	}

	log.Info().Str("user_id", resp.User.ID).Msg("User registered")

	respondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.userService.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		respondServiceError(w, err, "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdatePushTokenRequest represents a request to update push token
type UpdatePushTokenRequest struct {
	PushToken string `json:"push_token"`
}

// UpdatePushToken handles PUT /api/v1/users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdatePushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		respondServiceError(w, err, "Failed to update push token")
		return
	}

	log.Info().Str("user_id", userID).Msg("Push token updated")

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
