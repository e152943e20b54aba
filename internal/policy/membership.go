package policy

import "event-photo-backend/internal/models"

// JoinOutcome is the result of a join attempt
type JoinOutcome string

const (
	JoinAlreadyParticipant JoinOutcome = "already_participant"
	JoinAlreadyPending     JoinOutcome = "already_pending"
	JoinAdmit              JoinOutcome = "admitted"
	JoinEnqueue            JoinOutcome = "pending_approval"
)

// JoinDecision carries the outcome of DecideJoin
type JoinDecision struct {
	Outcome JoinOutcome
}

// Mutates reports whether the caller has to write anything
func (d JoinDecision) Mutates() bool {
	return d.Outcome == JoinAdmit || d.Outcome == JoinEnqueue
}

// DecideJoin decides a join attempt by userID. Only the event's own
// participant and pending sets are consulted.
func DecideJoin(e *models.Event, userID string) JoinDecision {
	switch {
	case e.IsParticipant(userID):
		return JoinDecision{Outcome: JoinAlreadyParticipant}
	case e.IsPending(userID):
		return JoinDecision{Outcome: JoinAlreadyPending}
	case e.RequireApproval:
		return JoinDecision{Outcome: JoinEnqueue}
	default:
		return JoinDecision{Outcome: JoinAdmit}
	}
}

// GuestCapReached reports whether the event has no room for another guest.
// A MaxGuests of zero means no cap.
func GuestCapReached(e *models.Event) bool {
	if e.MaxGuests <= 0 {
		return false
	}
	return e.GuestCount() >= e.MaxGuests
}

// Approve reports whether approving userID moves them from pending to participants.
// False means there is nothing to do.
func Approve(e *models.Event, userID string) bool {
	return e.IsPending(userID)
}

// Reject reports whether rejecting userID drops a pending request
func Reject(e *models.Event, userID string) bool {
	return e.IsPending(userID)
}

// CanManageMembers reports whether userID may resolve pending requests
func CanManageMembers(e *models.Event, userID string) bool {
	return e.OwnerID == userID
}
