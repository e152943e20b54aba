package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-photo-backend/internal/config"
	"event-photo-backend/internal/models"
	"event-photo-backend/internal/policy"
	"event-photo-backend/internal/repository"
	"event-photo-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultContentType = "image/jpeg"

// PhotoService handles photo-related business logic
type PhotoService struct {
	store    repository.Store
	blobs    BlobStore
	realtime Realtime
	cfg      config.UploadsConfig
	now      func() time.Time
}

// NewPhotoService creates a new photo service
func NewPhotoService(store repository.Store, blobs BlobStore, realtime Realtime, cfg config.UploadsConfig) *PhotoService {
	return &PhotoService{
		store:    store,
		blobs:    blobs,
		realtime: realtime,
		cfg:      cfg,
		now:      time.Now,
	}
}

// UploadRequest asks for upload URLs for a batch of photos
type UploadRequest struct {
	Source      models.PhotoSource `json:"source"`
	Count       int                `json:"count"`
	ContentType string             `json:"content_type"`
}

// UploadResponse carries the quota decision and one target per allowed photo
type UploadResponse struct {
	Allowed   int             `json:"allowed"`
	Requested int             `json:"requested"`
	Limited   bool            `json:"limited"`
	Remaining int             `json:"remaining"`
	Uploads   []*UploadTarget `json:"uploads"`
}

// QuotaResponse describes a user's camera roll allowance in an event
type QuotaResponse struct {
	Max       int  `json:"max"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

// PhotoPage is one page of an event's photos
type PhotoPage struct {
	Photos []*models.Photo `json:"photos"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// RequestUploads applies the upload quota to a batch and reserves a photo record
// and a pre-signed URL for every allowed photo. Reserved photos count against
// the quota but stay unlisted until ConfirmUpload.
func (s *PhotoService) RequestUploads(ctx context.Context, userID, eventID string, req UploadRequest) (*UploadResponse, error) {
	if !req.Source.Valid() {
		return nil, invalidInput("source must be camera or camera_roll")
	}
	if req.Count < 1 {
		return nil, invalidInput("count must be at least 1")
	}
	if req.Count > s.cfg.MaxBatch {
		return nil, invalidInput(fmt.Sprintf("count must not exceed %d", s.cfg.MaxBatch))
	}
	if req.ContentType == "" {
		req.ContentType = defaultContentType
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var (
		decision policy.UploadBatchDecision
		targets  []*UploadTarget
	)

	// Strict mode holds the event row lock so concurrent batches of one guest
	// cannot both pass the count.
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		var (
			event *models.Event
			err   error
		)
		if s.cfg.StrictQuota {
			event, err = tx.Events().GetByIDForUpdate(ctx, eventID)
		} else {
			event, err = tx.Events().GetByID(ctx, eventID)
		}
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if !policy.CanUpload(event, userID, s.now()) {
			return ErrUploadNotAllowed
		}

		used := 0
		if req.Source == models.SourceCameraRoll {
			used, err = tx.Photos().CountByUserSource(ctx, eventID, userID, req.Source)
			if err != nil {
				return err
			}
		}

		decision = policy.DecideUpload(event, req.Source, used, req.Count)
		if decision.LimitReached() {
			return ErrUploadLimitReached
		}

		// sign every URL before reserving anything
		photos := make([]*models.Photo, 0, decision.Allowed)
		targets = make([]*UploadTarget, 0, decision.Allowed)
		for i := 0; i < decision.Allowed; i++ {
			photo := s.newPhoto(event.ID, user, req.Source)
			uploadURL, err := s.blobs.PresignPut(ctx, photo.S3Key, req.ContentType)
			if err != nil {
				return err
			}
			photos = append(photos, photo)
			targets = append(targets, &UploadTarget{
				UploadURL: uploadURL,
				ObjectURL: photo.S3URL,
				PhotoID:   photo.ID,
				ExpiresIn: int(s.blobs.TTL().Seconds()),
			})
		}

		for _, photo := range photos {
			if err := tx.Photos().Create(ctx, photo); err != nil {
				return fmt.Errorf("failed to create photo record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &UploadResponse{
		Allowed:   decision.Allowed,
		Requested: decision.Requested,
		Limited:   decision.Limited,
		Remaining: decision.Remaining,
		Uploads:   targets,
	}

	log.Info().
		Str("event_id", eventID).
		Str("user_id", userID).
		Str("source", string(req.Source)).
		Int("requested", decision.Requested).
		Int("allowed", decision.Allowed).
		Msg("Photo uploads reserved")

	return resp, nil
}

func (s *PhotoService) newPhoto(eventID string, user *models.User, source models.PhotoSource) *models.Photo {
	id := uuid.New().String()
	key := storage.PhotoKey(eventID, id)
	return &models.Photo{
		ID:         id,
		EventID:    eventID,
		UserID:     user.ID,
		UserName:   user.Name(),
		Source:     source,
		S3Key:      key,
		S3URL:      s.blobs.ObjectURL(key),
		UploadedAt: s.now(),
	}
}

// ConfirmUpload records a finished blob upload, counts it and announces it to
// the event's participants. The photo itself is only included while the
// event's photos are visible. Confirming twice is a no-op.
func (s *PhotoService) ConfirmUpload(ctx context.Context, userID, eventID, photoID string) error {
	var (
		photo     *models.Photo
		event     *models.Event
		confirmed bool
	)
	now := s.now()

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		photo, err = tx.Photos().GetByID(ctx, photoID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPhotoNotFound
			}
			return err
		}
		if photo.UserID != userID || photo.EventID != eventID {
			return ErrForbidden
		}

		confirmed, err = tx.Photos().Confirm(ctx, photoID, now)
		if err != nil {
			return err
		}

		event, err = getEvent(ctx, tx.Events(), eventID)
		if err != nil || !confirmed {
			return err
		}

		total, err := tx.Events().IncrementTotalPhotos(ctx, eventID, 1)
		if err != nil {
			return fmt.Errorf("failed to update photo counter: %w", err)
		}
		event.TotalPhotos = total
		photo.ConfirmedAt = &now
		return nil
	})
	if err != nil || !confirmed {
		return err
	}

	data := map[string]interface{}{"total_photos": event.TotalPhotos}
	if policy.CanViewPhotos(event, now) {
		data["photo"] = photo
	}

	sendToOnline(s.realtime, event.Participants, WSMessage{
		Type:      MsgPhotoAdded,
		Timestamp: now.Unix(),
		EventID:   eventID,
		UserID:    userID,
		PhotoID:   photoID,
		Data:      data,
	})
	return nil
}

// ListPhotos returns a page of an event's photos when its reveal rules allow it
func (s *PhotoService) ListPhotos(ctx context.Context, userID, eventID string, limit, offset int) (*PhotoPage, error) {
	event, err := getEvent(ctx, s.store.Events(), eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}

	now := s.now()
	if !policy.CanViewPhotos(event, now) {
		hidden := &PhotosHiddenError{Message: policy.RevealMessage(event, now)}
		if at, ok := policy.RevealInstant(event); ok {
			hidden.RevealAt = &at
		}
		return nil, hidden
	}

	// Validate limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	photos, total, err := s.store.Photos().ListByEvent(ctx, eventID, limit, offset)
	if err != nil {
		return nil, err
	}

	return &PhotoPage{
		Photos: policy.VisiblePhotos(event, now, photos),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// Quota reports how many camera roll photos userID may still add to eventID
func (s *PhotoService) Quota(ctx context.Context, userID, eventID string) (*QuotaResponse, error) {
	event, err := getEvent(ctx, s.store.Events(), eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}

	used, err := s.store.Photos().CountByUserSource(ctx, eventID, userID, models.SourceCameraRoll)
	if err != nil {
		return nil, err
	}

	decision := policy.DecideUploadBatch(event.MaxCameraRollUploads, used, 0)
	return &QuotaResponse{
		Max:       event.MaxCameraRollUploads,
		Used:      used,
		Remaining: decision.Remaining,
		Unlimited: decision.Remaining == models.UnlimitedUploads,
	}, nil
}
