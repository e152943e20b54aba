package services

import (
	"errors"
	"time"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrForbidden          = errors.New("forbidden")
	ErrNotParticipant     = errors.New("user is not a participant of this event")
	ErrEventFull          = errors.New("event has reached its guest limit")
	ErrUploadLimitReached = errors.New("camera roll upload limit reached")
	ErrUploadNotAllowed   = errors.New("uploads are only allowed for participants while the event is active")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrEventCodeExhausted = errors.New("failed to allocate a unique event code")
	ErrPhotosHidden       = errors.New("photos are not visible yet")
)

// PhotosHiddenError is returned when the reveal rules hide an event's photos
type PhotosHiddenError struct {
	Message  string
	RevealAt *time.Time
}

func (e *PhotosHiddenError) Error() string {
	if e.Message == "" {
		return ErrPhotosHidden.Error()
	}
	return e.Message
}

// Is makes errors.Is(err, ErrPhotosHidden) match
func (e *PhotosHiddenError) Is(target error) bool {
	return target == ErrPhotosHidden
}

// InputError wraps a rejected request field
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

// Is makes errors.Is(err, ErrInvalidInput) match
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(reason string) error {
	return &InputError{Reason: reason}
}
