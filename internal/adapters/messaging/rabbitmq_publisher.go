package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultConfirmTimeout bounds how long Publish waits for the broker ack.
const DefaultConfirmTimeout = 5 * time.Second

var (
	ErrPublishNacked    = errors.New("event was nacked by broker")
	ErrConfirmTimeout   = errors.New("broker confirmation timed out")
	ErrPublisherClosed  = errors.New("publisher is closed")
	ErrChannelRequired  = errors.New("rabbitmq channel is required")
	ErrExchangeRequired = errors.New("exchange name is required")
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes outbox events to a durable topic exchange with
// publisher confirms. The routing key is the event type.
type RabbitMQPublisher struct {
	ch             Channel
	exchange       string
	confirms       chan amqp.Confirmation
	confirmTimeout time.Duration
	logger         *slog.Logger

	mu     sync.Mutex
	closed bool
}

// PublisherOption configures a RabbitMQPublisher.
type PublisherOption func(*RabbitMQPublisher)

// WithConfirmTimeout overrides DefaultConfirmTimeout.
func WithConfirmTimeout(d time.Duration) PublisherOption {
	return func(p *RabbitMQPublisher) {
		if d > 0 {
			p.confirmTimeout = d
		}
	}
}

// WithLogger sets the publisher's logger.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *RabbitMQPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewRabbitMQPublisher declares the exchange and puts ch into confirm mode.
func NewRabbitMQPublisher(ch Channel, exchange string, opts ...PublisherOption) (*RabbitMQPublisher, error) {
	if ch == nil {
		return nil, ErrChannelRequired
	}
	if exchange == "" {
		return nil, ErrExchangeRequired
	}
	p := &RabbitMQPublisher{
		ch:             ch,
		exchange:       exchange,
		confirmTimeout: DefaultConfirmTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return p, nil
}

// DialRabbitMQ opens a connection and channel and builds a publisher on it.
// The returned close func releases both.
func DialRabbitMQ(url, exchange string, opts ...PublisherOption) (*RabbitMQPublisher, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	p, err := NewRabbitMQPublisher(ch, exchange, opts...)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	closeFn := func() {
		_ = p.Close()
		_ = conn.Close()
	}
	return p, closeFn, nil
}

var _ portssvc.EventPublisher = (*RabbitMQPublisher)(nil)

// Publish sends one event and waits for the broker to confirm it.
func (p *RabbitMQPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.EventID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventID, err)
	}

	timer := time.NewTimer(p.confirmTimeout)
	defer timer.Stop()
	select {
	case confirm, ok := <-p.confirms:
		if !ok {
			return ErrPublisherClosed
		}
		if !confirm.Ack {
			return fmt.Errorf("event %s: %w", event.EventID, ErrPublishNacked)
		}
	case <-timer.C:
		return fmt.Errorf("event %s: %w", event.EventID, ErrConfirmTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	p.logger.Debug("Event published",
		slog.String("event_id", event.EventID),
		slog.String("event_type", string(event.Type)),
		slog.String("exchange", p.exchange))
	return nil
}

// Close closes the channel. Later Publish calls fail with ErrPublisherClosed.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.ch.Close()
}
