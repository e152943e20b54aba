package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"event-photo-backend/internal/models"
	"event-photo-backend/internal/notify"
	"event-photo-backend/internal/policy"
	"event-photo-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// MembershipService handles joining events and owner decisions on join requests
type MembershipService struct {
	store    repository.Store
	realtime Realtime
	notifier notify.Publisher
	now      func() time.Time
}

// NewMembershipService creates a new membership service
func NewMembershipService(store repository.Store, realtime Realtime, notifier notify.Publisher) *MembershipService {
	return &MembershipService{
		store:    store,
		realtime: realtime,
		notifier: notifier,
		now:      time.Now,
	}
}

// JoinResult is the outcome of a join attempt
type JoinResult struct {
	Outcome policy.JoinOutcome `json:"outcome"`
	Event   *EventView         `json:"event"`
}

// PendingUser is a user waiting for the owner's decision
type PendingUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Join asks to join eventID on behalf of userID
func (s *MembershipService) Join(ctx context.Context, userID, eventID string) (*JoinResult, error) {
	var (
		decision policy.JoinDecision
		event    *models.Event
	)

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		event, err = tx.Events().GetByIDForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		decision = policy.DecideJoin(event, userID)
		if !decision.Mutates() {
			return nil
		}
		if policy.GuestCapReached(event) {
			return ErrEventFull
		}

		switch decision.Outcome {
		case policy.JoinAdmit:
			if _, err := tx.Events().AddParticipant(ctx, eventID, userID); err != nil {
				return fmt.Errorf("failed to add participant: %w", err)
			}
			if err := tx.Users().AddEventJoined(ctx, userID, eventID); err != nil {
				return fmt.Errorf("failed to record joined event: %w", err)
			}
			event.Participants = append(event.Participants, userID)
		case policy.JoinEnqueue:
			if _, err := tx.Events().AddPending(ctx, eventID, userID); err != nil {
				return fmt.Errorf("failed to add join request: %w", err)
			}
			event.PendingApprovals = append(event.PendingApprovals, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.announceJoin(ctx, event, userID, decision.Outcome)

	return &JoinResult{
		Outcome: decision.Outcome,
		Event:   buildView(event, userID, s.now()),
	}, nil
}

// JoinByCode resolves a six-digit event code and joins that event
func (s *MembershipService) JoinByCode(ctx context.Context, userID, code string) (*JoinResult, error) {
	code = strings.TrimSpace(code)
	if !policy.IsEventCode(code) {
		return nil, invalidInput("event code must be 6 digits")
	}

	event, err := s.store.Events().GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	return s.Join(ctx, userID, event.ID)
}

// ListPending returns the users waiting for approval. Only the owner may list them.
func (s *MembershipService) ListPending(ctx context.Context, ownerID, eventID string) ([]*PendingUser, error) {
	event, err := getEvent(ctx, s.store.Events(), eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageMembers(event, ownerID) {
		return nil, ErrForbidden
	}

	users, err := s.store.Users().GetByIDs(ctx, event.PendingApprovals)
	if err != nil {
		return nil, err
	}

	pending := make([]*PendingUser, 0, len(users))
	for _, u := range users {
		pending = append(pending, &PendingUser{ID: u.ID, DisplayName: u.Name(), Email: u.Email})
	}
	return pending, nil
}

// Approve admits a pending user. Approving a user who is no longer pending is a no-op.
func (s *MembershipService) Approve(ctx context.Context, ownerID, eventID, userID string) (*EventView, error) {
	event, changed, err := s.decide(ctx, ownerID, eventID, userID, true)
	if err != nil {
		return nil, err
	}
	if changed {
		s.announceDecision(ctx, event, userID, true)
	}
	return buildView(event, ownerID, s.now()), nil
}

// Reject drops a pending join request. Rejecting a user who is not pending is a no-op.
func (s *MembershipService) Reject(ctx context.Context, ownerID, eventID, userID string) (*EventView, error) {
	event, changed, err := s.decide(ctx, ownerID, eventID, userID, false)
	if err != nil {
		return nil, err
	}
	if changed {
		s.announceDecision(ctx, event, userID, false)
	}
	return buildView(event, ownerID, s.now()), nil
}

func (s *MembershipService) decide(ctx context.Context, ownerID, eventID, userID string, approve bool) (*models.Event, bool, error) {
	var (
		event   *models.Event
		changed bool
	)

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		event, err = tx.Events().GetByIDForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if !policy.CanManageMembers(event, ownerID) {
			return ErrForbidden
		}

		if !approve {
			if !policy.Reject(event, userID) {
				return nil
			}
			if _, err := tx.Events().RemovePending(ctx, eventID, userID); err != nil {
				return fmt.Errorf("failed to remove join request: %w", err)
			}
			event.PendingApprovals = slices.DeleteFunc(event.PendingApprovals, func(id string) bool { return id == userID })
			changed = true
			return nil
		}

		if !policy.Approve(event, userID) {
			return nil
		}
		if policy.GuestCapReached(event) {
			return ErrEventFull
		}
		if _, err := tx.Events().PromotePending(ctx, eventID, userID); err != nil {
			return fmt.Errorf("failed to approve join request: %w", err)
		}
		if err := tx.Users().AddEventJoined(ctx, userID, eventID); err != nil {
			return fmt.Errorf("failed to record joined event: %w", err)
		}
		event.PendingApprovals = slices.DeleteFunc(event.PendingApprovals, func(id string) bool { return id == userID })
		if !event.IsParticipant(userID) {
			event.Participants = append(event.Participants, userID)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return event, changed, nil
}

func (s *MembershipService) announceJoin(ctx context.Context, event *models.Event, userID string, outcome policy.JoinOutcome) {
	switch outcome {
	case policy.JoinAdmit:
		log.Info().Str("event_id", event.ID).Str("user_id", userID).Msg("User joined event")
		sendToOnline(s.realtime, event.Participants, WSMessage{
			Type:      MsgEventUpdated,
			Timestamp: s.now().Unix(),
			EventID:   event.ID,
			UserID:    userID,
		})
	case policy.JoinEnqueue:
		log.Info().Str("event_id", event.ID).Str("user_id", userID).Msg("Join request queued")
		sendToOnline(s.realtime, []string{event.OwnerID}, WSMessage{
			Type:      MsgJoinRequested,
			Timestamp: s.now().Unix(),
			EventID:   event.ID,
			UserID:    userID,
		})
		s.publish(ctx, notify.Message{
			Kind:    notify.KindJoinRequested,
			UserID:  event.OwnerID,
			EventID: event.ID,
			Title:   event.Name,
			Body:    "Someone wants to join your event",
		})
	}
}

func (s *MembershipService) announceDecision(ctx context.Context, event *models.Event, userID string, approved bool) {
	msgType, kind, body := MsgJoinRejected, notify.KindJoinRejected, "Your request to join was declined"
	if approved {
		msgType, kind, body = MsgJoinApproved, notify.KindJoinApproved, "You're in! Your request to join was approved"
	}

	log.Info().
		Str("event_id", event.ID).
		Str("user_id", userID).
		Bool("approved", approved).
		Msg("Join request decided")

	sendToOnline(s.realtime, []string{userID}, WSMessage{
		Type:      msgType,
		Timestamp: s.now().Unix(),
		EventID:   event.ID,
		UserID:    userID,
	})
	if approved {
		sendToOnline(s.realtime, event.Participants, WSMessage{
			Type:      MsgEventUpdated,
			Timestamp: s.now().Unix(),
			EventID:   event.ID,
			UserID:    userID,
		})
	}
	s.publish(ctx, notify.Message{
		Kind:    kind,
		UserID:  userID,
		EventID: event.ID,
		Title:   event.Name,
		Body:    body,
	})
}

// publish hands msg to the notifier. Delivery failures never fail the request.
func (s *MembershipService) publish(ctx context.Context, msg notify.Message) {
	if err := s.notifier.Publish(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("kind", string(msg.Kind)).
			Str("user_id", msg.UserID).
			Str("event_id", msg.EventID).
			Msg("Failed to publish notification")
	}
}

