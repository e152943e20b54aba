package policy

import (
	"time"

	"event-photo-backend/internal/models"
)

const (
	// RevealTimeLayout formats reveal instants in messages
	RevealTimeLayout = "Jan 2, 2006 at 3:04 PM"

	MessageVisibleDuring = "Photos are visible during and after the event"
	MessageAfterEventEnd = "Photos will appear after the event ends"
	MessageRevealed      = "Photos have been revealed"
)

// RevealInstant returns the moment photos of an "after" event become visible.
// The second result is false for "during" events and for "after" events whose
// delay is unset, unknown, or custom without a date.
func RevealInstant(e *models.Event) (time.Time, bool) {
	if e.RevealPhotos != models.RevealAfter {
		return time.Time{}, false
	}

	switch e.RevealAfter {
	case models.RevealAfter12h:
		return e.EndTime.Add(12 * time.Hour), true
	case models.RevealAfter24h:
		return e.EndTime.Add(24 * time.Hour), true
	case models.RevealAfterCustom:
		if e.CustomRevealDate == nil {
			return time.Time{}, false
		}
		return *e.CustomRevealDate, true
	default:
		return time.Time{}, false
	}
}

// CanViewPhotos reports whether participants may see the event's photos at now
func CanViewPhotos(e *models.Event, now time.Time) bool {
	switch e.RevealPhotos {
	case models.RevealDuring:
		return !now.Before(e.StartTime)
	case models.RevealAfter:
		at, ok := RevealInstant(e)
		return ok && !now.Before(at)
	default:
		return false
	}
}

// RevealMessage describes when photos become visible.
// Times are rendered in the location of the stored instant.
func RevealMessage(e *models.Event, now time.Time) string {
	if e.RevealPhotos == models.RevealDuring {
		return MessageVisibleDuring
	}

	at, ok := RevealInstant(e)
	if !ok {
		return MessageAfterEventEnd
	}
	if !now.Before(at) {
		return MessageRevealed
	}
	return "Photos will be revealed on " + at.Format(RevealTimeLayout)
}

// VisiblePhotos returns photos unchanged when they may be viewed and an empty
// slice otherwise, whatever was fetched.
func VisiblePhotos(e *models.Event, now time.Time, photos []*models.Photo) []*models.Photo {
	if !CanViewPhotos(e, now) {
		return []*models.Photo{}
	}
	return photos
}
