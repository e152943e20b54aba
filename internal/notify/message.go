// Package notify delivers push notifications about event membership.
// The API publishes messages to a queue and a worker sends them to devices.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Kind identifies what a notification is about
type Kind string

const (
	KindJoinRequested Kind = "join_requested"
	KindJoinApproved  Kind = "join_approved"
	KindJoinRejected  Kind = "join_rejected"
)

// Message is one notification for one user
type Message struct {
	Kind    Kind   `json:"kind"`
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// Publisher hands notifications to the delivery pipeline
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// LogPublisher only logs notifications. It is used when no queue is configured.
type LogPublisher struct{}

// Publish logs msg
func (LogPublisher) Publish(_ context.Context, msg Message) error {
	log.Info().
		Str("kind", string(msg.Kind)).
		Str("user_id", msg.UserID).
		Str("event_id", msg.EventID).
		Msg("Notification not queued, no queue configured")
	return nil
}

func decodeMessage(body []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("failed to decode notification: %w", err)
	}
	if msg.UserID == "" {
		return Message{}, fmt.Errorf("notification without user_id")
	}
	return msg, nil
}
