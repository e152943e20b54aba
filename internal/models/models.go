package models

import (
	"slices"
	"time"
)

// UnlimitedUploads is the MaxCameraRollUploads value that disables the per-guest quota
const UnlimitedUploads = -1

// EventStatus is the lifecycle status of an event at a given instant
type EventStatus string

const (
	StatusUpcoming EventStatus = "upcoming"
	StatusActive   EventStatus = "active"
	StatusEnded    EventStatus = "ended"
)

// RevealMode controls when participants can see uploaded photos
type RevealMode string

const (
	RevealDuring RevealMode = "during"
	RevealAfter  RevealMode = "after"
)

// RevealDelay selects the reveal instant for RevealAfter events
type RevealDelay string

const (
	RevealAfter12h    RevealDelay = "12h"
	RevealAfter24h    RevealDelay = "24h"
	RevealAfterCustom RevealDelay = "custom"
)

// PhotoSource tells where a photo came from
type PhotoSource string

const (
	SourceCamera     PhotoSource = "camera"
	SourceCameraRoll PhotoSource = "camera_roll"
)

// Valid reports whether s is a known source
func (s PhotoSource) Valid() bool {
	return s == SourceCamera || s == SourceCameraRoll
}

// User represents an account
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	PasswordHash  string    `json:"-"`
	PushToken     *string   `json:"push_token,omitempty"`
	EventsCreated []string  `json:"events_created"`
	EventsJoined  []string  `json:"events_joined"`
	CreatedAt     time.Time `json:"created_at"`
}

// Name returns the display name, falling back to the email
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Event represents one photo-sharing session
type Event struct {
	ID                   string      `json:"id"`
	OwnerID              string      `json:"owner_id"`
	Name                 string      `json:"name"`
	StartTime            time.Time   `json:"start_time"`
	EndTime              time.Time   `json:"end_time"`
	EventCode            string      `json:"event_code"`
	RequireApproval      bool        `json:"require_approval"`
	RevealPhotos         RevealMode  `json:"reveal_photos"`
	RevealAfter          RevealDelay `json:"reveal_after,omitempty"`
	CustomRevealDate     *time.Time  `json:"custom_reveal_date,omitempty"`
	MaxCameraRollUploads int         `json:"max_camera_roll_uploads"`
	MaxGuests            int         `json:"max_guests"`
	Participants         []string    `json:"participants"`
	PendingApprovals     []string    `json:"pending_approvals"`
	TotalPhotos          int         `json:"total_photos"`
	CoverImageURL        *string     `json:"cover_image_url,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
}

// IsParticipant reports whether userID is in the participant set.
// The owner is implicitly a participant.
func (e *Event) IsParticipant(userID string) bool {
	if userID == e.OwnerID {
		return true
	}
	return slices.Contains(e.Participants, userID)
}

// IsPending reports whether userID awaits an owner decision
func (e *Event) IsPending(userID string) bool {
	return slices.Contains(e.PendingApprovals, userID)
}

// GuestCount returns the number of participants other than the owner
func (e *Event) GuestCount() int {
	n := 0
	for _, id := range e.Participants {
		if id != e.OwnerID {
			n++
		}
	}
	return n
}

// Photo represents one uploaded image
type Photo struct {
	ID         string      `json:"id"`
	EventID    string      `json:"event_id"`
	UserID     string      `json:"user_id"`
	UserName   string      `json:"user_name"`
	Source     PhotoSource `json:"source"`
	S3Key      string      `json:"-"`
	S3URL      string      `json:"s3_url"`
	UploadedAt time.Time   `json:"uploaded_at"`
	// ConfirmedAt is set once the client reports the blob upload finished
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

