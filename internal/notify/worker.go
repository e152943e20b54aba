package notify

import (
	"context"
	"errors"
	"fmt"

	"event-photo-backend/internal/models"
	"event-photo-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// TokenStore resolves and clears device tokens
type TokenStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// Worker delivers queued notifications to devices
type Worker struct {
	users  TokenStore
	sender Sender
}

// NewWorker creates a new notification worker
func NewWorker(users TokenStore, sender Sender) *Worker {
	return &Worker{users: users, sender: sender}
}

// Handle delivers one message. Users without a device token are skipped
// and messages for deleted users are dropped. Returned errors make the
// message retry.
func (w *Worker) Handle(ctx context.Context, msg Message) error {
	user, err := w.users.GetByID(ctx, msg.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn().Str("user_id", msg.UserID).Msg("Dropping notification for unknown user")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.PushToken == nil || *user.PushToken == "" {
		log.Debug().Str("user_id", msg.UserID).Msg("No push token, skipping notification")
		return nil
	}

	err = w.sender.Send(ctx, *user.PushToken, msg)
	if errors.Is(err, ErrDeviceGone) {
		log.Info().Str("user_id", msg.UserID).Msg("Clearing stale push token")
		return w.users.UpdatePushToken(ctx, msg.UserID, nil)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("user_id", msg.UserID).
		Str("kind", string(msg.Kind)).
		Str("event_id", msg.EventID).
		Msg("Notification sent")
	return nil
}
