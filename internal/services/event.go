package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"event-photo-backend/internal/config"
	"event-photo-backend/internal/models"
	"event-photo-backend/internal/policy"
	"event-photo-backend/internal/repository"
	"event-photo-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BlobStore issues upload URLs for photo and cover blobs
type BlobStore interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	ObjectURL(key string) string
	TTL() time.Duration
}

// EventService handles event creation and event views
type EventService struct {
	store repository.Store
	blobs BlobStore
	cfg   config.EventsConfig
	now   func() time.Time
}

// NewEventService creates a new event service
func NewEventService(store repository.Store, blobs BlobStore, cfg config.EventsConfig) *EventService {
	return &EventService{
		store: store,
		blobs: blobs,
		cfg:   cfg,
		now:   time.Now,
	}
}

// CreateEventRequest represents a request to create an event
type CreateEventRequest struct {
	Name                 string             `json:"name"`
	StartTime            *time.Time         `json:"start_time"`
	EndTime              *time.Time         `json:"end_time"`
	RequireApproval      bool               `json:"require_approval"`
	RevealPhotos         models.RevealMode  `json:"reveal_photos"`
	RevealAfter          models.RevealDelay `json:"reveal_after"`
	CustomRevealDate     *time.Time         `json:"custom_reveal_date"`
	MaxCameraRollUploads *int               `json:"max_camera_roll_uploads"`
	MaxGuests            *int               `json:"max_guests"`
}

// EventView is an event together with what the caller may do with it at a given moment
type EventView struct {
	*models.Event
	Status        models.EventStatus `json:"status"`
	CanViewPhotos bool               `json:"can_view_photos"`
	RevealMessage string             `json:"reveal_message"`
	RevealAt      *time.Time         `json:"reveal_at,omitempty"`
	IsOwner       bool               `json:"is_owner"`
	IsParticipant bool               `json:"is_participant"`
	IsPending     bool               `json:"is_pending"`
	CanUpload     bool               `json:"can_upload"`
}

// UploadTarget is a pre-signed destination for one blob
type UploadTarget struct {
	UploadURL string `json:"upload_url"`
	ObjectURL string `json:"object_url"`
	Key       string `json:"key,omitempty"`
	PhotoID   string `json:"photo_id,omitempty"`
	ExpiresIn int    `json:"expires_in"`
}

// CreateEvent validates and stores a new event owned by ownerID
func (s *EventService) CreateEvent(ctx context.Context, ownerID string, req CreateEventRequest) (*EventView, error) {
	now := s.now()
	event := s.buildEvent(ownerID, req, now)

	if err := policy.ValidateEvent(event); err != nil {
		return nil, err
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := s.insertWithUniqueCode(ctx, tx.Events(), event); err != nil {
			return err
		}
		return tx.Users().AddEventCreated(ctx, ownerID, event.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	log.Info().
		Str("event_id", event.ID).
		Str("owner_id", ownerID).
		Str("event_code", event.EventCode).
		Msg("Event created")

	return buildView(event, ownerID, now), nil
}

func (s *EventService) buildEvent(ownerID string, req CreateEventRequest, now time.Time) *models.Event {
	start := now
	if req.StartTime != nil {
		start = *req.StartTime
	}
	end := start.Add(time.Hour)
	if req.EndTime != nil {
		end = *req.EndTime
	}

	reveal := req.RevealPhotos
	if reveal == "" {
		reveal = models.RevealDuring
	}

	event := &models.Event{
		ID:                   uuid.New().String(),
		OwnerID:              ownerID,
		Name:                 strings.TrimSpace(req.Name),
		StartTime:            start,
		EndTime:              end,
		RequireApproval:      req.RequireApproval,
		RevealPhotos:         reveal,
		MaxCameraRollUploads: s.cfg.DefaultMaxCameraRollUploads,
		MaxGuests:            s.cfg.DefaultMaxGuests,
		Participants:         []string{ownerID},
		PendingApprovals:     []string{},
		CreatedAt:            now,
	}

	if reveal == models.RevealAfter {
		event.RevealAfter = req.RevealAfter
		if req.RevealAfter == models.RevealAfterCustom && req.CustomRevealDate != nil {
			clamped := policy.ClampCustomReveal(end, *req.CustomRevealDate)
			event.CustomRevealDate = &clamped
		}
	}
	if req.MaxCameraRollUploads != nil {
		event.MaxCameraRollUploads = *req.MaxCameraRollUploads
	}
	if req.MaxGuests != nil {
		event.MaxGuests = *req.MaxGuests
	}

	return event
}

// insertWithUniqueCode retries code generation until the code is free. The
// unique index on event_code settles races between concurrent creations.
func (s *EventService) insertWithUniqueCode(ctx context.Context, events repository.Events, event *models.Event) error {
	for i := 0; i < s.cfg.CodeAttempts; i++ {
		code, err := policy.GenerateEventCode()
		if err != nil {
			return err
		}

		exists, err := events.CodeExists(ctx, code)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		event.EventCode = code
		err = events.Create(ctx, event)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		return err
	}
	return ErrEventCodeExhausted
}

// GetEvent returns the event as seen by userID
func (s *EventService) GetEvent(ctx context.Context, userID, eventID string) (*EventView, error) {
	event, err := getEvent(ctx, s.store.Events(), eventID)
	if err != nil {
		return nil, err
	}
	return buildView(event, userID, s.now()), nil
}

// ListEvents returns the events userID owns, joined or asked to join
func (s *EventService) ListEvents(ctx context.Context, userID string) ([]*EventView, error) {
	events, err := s.store.Events().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]*EventView, 0, len(events))
	for _, e := range events {
		views = append(views, buildView(e, userID, now))
	}
	return views, nil
}

// SetCoverImage issues an upload URL for a new cover image. The event keeps
// its current cover until ConfirmCoverImage.
func (s *EventService) SetCoverImage(ctx context.Context, userID, eventID, contentType string) (*UploadTarget, error) {
	if _, err := s.ownedEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}

	key := storage.CoverKey(eventID, uuid.New().String())
	uploadURL, err := s.blobs.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, err
	}

	return &UploadTarget{
		UploadURL: uploadURL,
		ObjectURL: s.blobs.ObjectURL(key),
		Key:       key,
		ExpiresIn: int(s.blobs.TTL().Seconds()),
	}, nil
}

// ConfirmCoverImage makes an uploaded cover image the event's cover
func (s *EventService) ConfirmCoverImage(ctx context.Context, userID, eventID, key string) (*EventView, error) {
	event, err := s.ownedEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if !storage.IsCoverKey(eventID, key) {
		return nil, invalidInput("key is not a cover image of this event")
	}

	objectURL := s.blobs.ObjectURL(key)
	if err := s.store.Events().SetCoverImage(ctx, eventID, objectURL); err != nil {
		return nil, err
	}
	event.CoverImageURL = &objectURL

	log.Info().Str("event_id", eventID).Msg("Cover image updated")

	return buildView(event, userID, s.now()), nil
}

func (s *EventService) ownedEvent(ctx context.Context, userID, eventID string) (*models.Event, error) {
	event, err := getEvent(ctx, s.store.Events(), eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != userID {
		return nil, ErrForbidden
	}
	return event, nil
}

func getEvent(ctx context.Context, events repository.Events, eventID string) (*models.Event, error) {
	event, err := events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func buildView(e *models.Event, userID string, now time.Time) *EventView {
	view := &EventView{
		Event:         e,
		Status:        policy.EventStatus(e, now),
		CanViewPhotos: policy.CanViewPhotos(e, now),
		RevealMessage: policy.RevealMessage(e, now),
		IsOwner:       e.OwnerID == userID,
		IsParticipant: e.IsParticipant(userID),
		IsPending:     e.IsPending(userID),
		CanUpload:     policy.CanUpload(e, userID, now),
	}
	if at, ok := policy.RevealInstant(e); ok {
		view.RevealAt = &at
	}
	if !view.IsOwner {
		// pending requests are the owner's business
		shown := *e
		shown.PendingApprovals = []string{}
		view.Event = &shown
	}
	return view
}
