package handlers

import (
	"context"
	"net/http"

	"event-photo-backend/internal/middleware"
	"event-photo-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// PhotoAPI is the photo surface used by PhotoHandler
type PhotoAPI interface {
	RequestUploads(ctx context.Context, userID, eventID string, req services.UploadRequest) (*services.UploadResponse, error)
	ListPhotos(ctx context.Context, userID, eventID string, limit, offset int) (*services.PhotoPage, error)
	Quota(ctx context.Context, userID, eventID string) (*services.QuotaResponse, error)
	ConfirmUpload(ctx context.Context, userID, eventID, photoID string) error
}

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	photoService PhotoAPI
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService PhotoAPI) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
	}
}

// GetPhotos handles GET /api/v1/events/{event_id}/photos
func (h *PhotoHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	page, err := h.photoService.ListPhotos(ctx, userID, chi.URLParam(r, "event_id"), limit, offset)
	if err != nil {
		respondServiceError(w, err, "Failed to get photos")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// RequestUploads handles POST /api/v1/events/{event_id}/photos/uploads
func (h *PhotoHandler) RequestUploads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.UploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.photoService.RequestUploads(ctx, userID, chi.URLParam(r, "event_id"), req)
	if err != nil {
		respondServiceError(w, err, "Failed to generate upload URLs")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// ConfirmUpload handles POST /api/v1/events/{event_id}/photos/{photo_id}/confirm
func (h *PhotoHandler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	err := h.photoService.ConfirmUpload(ctx, userID, chi.URLParam(r, "event_id"), chi.URLParam(r, "photo_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to confirm upload")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetQuota handles GET /api/v1/events/{event_id}/photos/quota
func (h *PhotoHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	quota, err := h.photoService.Quota(ctx, userID, chi.URLParam(r, "event_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to get upload quota")
		return
	}

	respondJSON(w, http.StatusOK, quota)
}
