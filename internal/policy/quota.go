package policy

import (
	"time"

	"event-photo-backend/internal/models"
)

// UploadBatchDecision is how much of a requested camera-roll batch may proceed
type UploadBatchDecision struct {
	Allowed   int  `json:"allowed"`
	Requested int  `json:"requested"`
	Limited   bool `json:"limited"`
	// Remaining is the quota left before the batch, -1 when unlimited
	Remaining int `json:"remaining"`
}

// LimitReached reports whether the quota was already used up before the batch
func (d UploadBatchDecision) LimitReached() bool {
	return d.Remaining == 0
}

// DecideUploadBatch applies the per-guest camera-roll quota to a batch of
// requested items. maxUploads == models.UnlimitedUploads disables the quota.
func DecideUploadBatch(maxUploads, alreadyUploaded, requested int) UploadBatchDecision {
	if maxUploads == models.UnlimitedUploads {
		return UploadBatchDecision{
			Allowed:   requested,
			Requested: requested,
			Remaining: models.UnlimitedUploads,
		}
	}

	remaining := max(0, maxUploads-alreadyUploaded)
	allowed := min(remaining, requested)

	return UploadBatchDecision{
		Allowed:   allowed,
		Requested: requested,
		Limited:   allowed < requested,
		Remaining: remaining,
	}
}

// DecideUpload applies the quota for a batch from source. Camera captures are
// never counted or limited.
func DecideUpload(e *models.Event, source models.PhotoSource, alreadyUploaded, requested int) UploadBatchDecision {
	if source == models.SourceCamera {
		return DecideUploadBatch(models.UnlimitedUploads, 0, requested)
	}
	return DecideUploadBatch(e.MaxCameraRollUploads, alreadyUploaded, requested)
}

// CanUpload reports whether userID may add photos to the event at now:
// the event must be active and the user a participant.
func CanUpload(e *models.Event, userID string, now time.Time) bool {
	return EventStatus(e, now) == models.StatusActive && e.IsParticipant(userID)
}
