package policy

import (
	"fmt"
	"strings"
	"time"

	"event-photo-backend/internal/models"
)

// ValidationError describes a malformed event field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ClampCustomReveal moves a custom reveal date earlier than end to one hour after end
func ClampCustomReveal(end, reveal time.Time) time.Time {
	if reveal.Before(end) {
		return end.Add(time.Hour)
	}
	return reveal
}

// ValidateEvent checks the invariants an event must hold before it is stored
func ValidateEvent(e *models.Event) error {
	if strings.TrimSpace(e.Name) == "" {
		return invalid("name", "is required")
	}
	if !e.EndTime.After(e.StartTime) {
		return invalid("end_time", "must be after start_time")
	}

	switch e.RevealPhotos {
	case models.RevealDuring:
	case models.RevealAfter:
		switch e.RevealAfter {
		case models.RevealAfter12h, models.RevealAfter24h:
		case models.RevealAfterCustom:
			if e.CustomRevealDate == nil {
				return invalid("custom_reveal_date", "is required for a custom reveal")
			}
			if e.CustomRevealDate.Before(e.EndTime) {
				return invalid("custom_reveal_date", "must not be before end_time")
			}
		default:
			return invalid("reveal_after", fmt.Sprintf("unknown value %q", e.RevealAfter))
		}
	default:
		return invalid("reveal_photos", fmt.Sprintf("unknown value %q", e.RevealPhotos))
	}

	if e.MaxCameraRollUploads != models.UnlimitedUploads && e.MaxCameraRollUploads < 1 {
		return invalid("max_camera_roll_uploads", "must be at least 1 or -1 for unlimited")
	}
	if e.MaxGuests < 0 {
		return invalid("max_guests", "must not be negative")
	}

	return nil
}
