// Package analytics publishes domain events to RabbitMQ. The contract is
// fire-and-forget: errors are logged and returned so callers can ignore
// them without interrupting the game flow.
package analytics

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher forwards typed events to the analytics pipeline.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

// envelope is the wire shape of one analytics event.
type envelope struct {
	Type    string `json:"type"`
	TS      int64  `json:"ts"`
	Payload any    `json:"payload"`
}

// AMQPPublisher publishes events to a durable RabbitMQ queue over a
// long-lived connection.
type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *zerolog.Logger
}

// NewAMQP dials the broker and declares the queue. Durable so messages
// survive broker restarts.
func NewAMQP(url, queue string, logger *zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, queue: queue, log: logger}, nil
}

// Publish sends one event as a persistent JSON message on the default
// exchange. Errors are logged before being returned.
func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(envelope{
		Type:    eventType,
		TS:      time.Now().Unix(),
		Payload: payload,
	})
	if err != nil {
		p.log.Warn().Err(err).Str("event", eventType).Msg("marshal analytics event failed")
		return err
	}
	err = p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.log.Warn().Err(err).Str("event", eventType).Msg("publish analytics event failed")
	}
	return err
}

// Close tears down the channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// Nop discards all events. Used in tests and when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }
