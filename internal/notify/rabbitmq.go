package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Queue publishes and consumes notifications through a durable RabbitMQ queue
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

// NewQueue connects to RabbitMQ and declares the queue
func NewQueue(url, name string) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	log.Info().Str("queue", q.Name).Int("messages", q.Messages).Msg("Notification queue declared")

	return &Queue{conn: conn, channel: ch, queue: q}, nil
}

// Publish sends msg to the queue
func (q *Queue) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = q.channel.PublishWithContext(publishCtx,
		"",           // exchange
		q.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Consume feeds queued messages to handle until ctx is done or the channel closes.
// Undecodable messages are dropped, failed ones are requeued.
func (q *Queue) Consume(ctx context.Context, handle func(context.Context, Message) error) error {
	deliveries, err := q.channel.Consume(
		q.queue.Name,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	log.Info().Str("queue", q.queue.Name).Msg("Waiting for notifications")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("notification channel closed")
			}
			q.dispatch(ctx, d, handle)
		}
	}
}

func (q *Queue) dispatch(ctx context.Context, d amqp.Delivery, handle func(context.Context, Message) error) {
	msg, err := decodeMessage(d.Body)
	if err != nil {
		log.Error().Err(err).Bytes("body", d.Body).Msg("Dropping notification")
		if err := d.Nack(false, false); err != nil {
			log.Error().Err(err).Msg("Failed to nack notification")
		}
		return
	}

	if err := handle(ctx, msg); err != nil {
		log.Error().Err(err).Str("user_id", msg.UserID).Str("kind", string(msg.Kind)).Msg("Failed to deliver notification")
		if err := d.Nack(false, true); err != nil {
			log.Error().Err(err).Msg("Failed to nack notification")
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error().Err(err).Msg("Failed to ack notification")
	}
}

// Close closes the channel and the connection
func (q *Queue) Close() error {
	if err := q.channel.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close RabbitMQ channel")
	}
	return q.conn.Close()
}
