package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"event-photo-backend/internal/policy"
	"event-photo-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error    string `json:"error"`
	RevealAt string `json:"reveal_at,omitempty"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var verr *policy.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPhotoNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrPhotosHidden),
		errors.Is(err, services.ErrUploadNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, services.ErrEventFull),
		errors.Is(err, services.ErrUploadLimitReached),
		errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs err and sends the matching status. Internal
// errors are reported with msg only.
func respondServiceError(w http.ResponseWriter, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(msg)
		respondError(w, msg, status)
		return
	}

	resp := ErrorResponse{Error: err.Error()}
	var hidden *services.PhotosHiddenError
	if errors.As(err, &hidden) && hidden.RevealAt != nil {
		resp.RevealAt = hidden.RevealAt.Format(time.RFC3339)
	}
	respondJSON(w, status, resp)
}

func queryInt(r *http.Request, name string, fallback int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}
