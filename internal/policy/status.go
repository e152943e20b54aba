// Package policy holds the pure decisions behind event access: lifecycle status,
// photo visibility, membership admission and camera-roll upload quotas.
//
// Nothing here performs I/O or reads the clock. Callers pass "now" explicitly and
// apply the resulting intents through the repositories.
package policy

import (
	"time"

	"event-photo-backend/internal/models"
)

// ResolveStatus classifies the window [start, end] relative to now.
// Both bounds are inclusive.
func ResolveStatus(start, end, now time.Time) models.EventStatus {
	if now.Before(start) {
		return models.StatusUpcoming
	}
	if now.After(end) {
		return models.StatusEnded
	}
	return models.StatusActive
}

// EventStatus is ResolveStatus applied to an event's own window
func EventStatus(e *models.Event, now time.Time) models.EventStatus {
	return ResolveStatus(e.StartTime, e.EndTime, now)
}
