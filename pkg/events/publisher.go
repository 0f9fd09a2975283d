// Package events publishes domain events (friend requests, friendships,
// chat messages, signups) to a RabbitMQ topic exchange for other services.
//
// Events are published after the database transaction commits. A publish
// failure is logged by the caller and never rolls back the operation. When no
// broker is configured the noop publisher is used.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys.
const (
	UserRegistered         = "user.registered"
	FriendRequestCreated   = "friend.request.created"
	FriendRequestAccepted  = "friend.request.accepted"
	FriendRequestRejected  = "friend.request.rejected"
	FriendRequestCancelled = "friend.request.cancelled"
	FriendshipRemoved      = "friendship.removed"
	ChatCreated            = "chat.created"
	ChatMessageCreated     = "chat.message.created"
)

// Envelope is the message body put on the exchange.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher sends an event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
	Close() error
}

type rabbitPublisher struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	mu           sync.Mutex
}

// NewRabbitPublisher dials the broker and declares a durable topic exchange.
func NewRabbitPublisher(amqpURL, exchangeName string) (Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchangeName, err)
	}

	return &rabbitPublisher{conn: conn, channel: ch, exchangeName: exchangeName}, nil
}

func (p *rabbitPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return amqp.ErrClosed
	}

	body, err := json.Marshal(Envelope{
		Type:       routingKey,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", routingKey, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(ctx,
		p.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
}

func (p *rabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}

type noopPublisher struct {
	warnOnce sync.Once
}

// NewNoopPublisher drops every event.
func NewNoopPublisher() Publisher { return &noopPublisher{} }

func (n *noopPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	n.warnOnce.Do(func() {
		log.Printf("[events] AMQP not configured; domain events are dropped (first: %s)", routingKey)
	})
	return nil
}

func (n *noopPublisher) Close() error { return nil }
