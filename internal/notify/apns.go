package notify

import (
	"context"
	"errors"
	"fmt"

	"event-photo-backend/internal/config"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// ErrDeviceGone means the device token is no longer valid and should be forgotten
var ErrDeviceGone = errors.New("device token no longer valid")

// Sender pushes one message to one device
type Sender interface {
	Send(ctx context.Context, deviceToken string, msg Message) error
}

// APNsSender sends notifications through Apple Push Notification service
type APNsSender struct {
	client *apns2.Client
	topic  string
}

// NewAPNsSender creates a sender using token based authentication
func NewAPNsSender(cfg config.APNsConfig) (*APNsSender, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsSender{client: client, topic: cfg.Topic}, nil
}

// Send pushes msg to deviceToken
func (s *APNsSender) Send(ctx context.Context, deviceToken string, msg Message) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload: payload.NewPayload().
			AlertTitle(msg.Title).
			AlertBody(msg.Body).
			Sound("default").
			Custom("kind", string(msg.Kind)).
			Custom("event_id", msg.EventID),
	}

	res, err := s.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if res.Sent() {
		return nil
	}
	if res.Reason == apns2.ReasonUnregistered || res.Reason == apns2.ReasonBadDeviceToken {
		return ErrDeviceGone
	}
	return fmt.Errorf("push rejected: %d %s", res.StatusCode, res.Reason)
}
