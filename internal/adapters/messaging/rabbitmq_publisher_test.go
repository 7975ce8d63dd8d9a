package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/adapters/messaging"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

// fakeChannel acks (or nacks) every publish on the confirm channel.
type fakeChannel struct {
	declared   string
	kind       string
	confirmOn  bool
	confirms   chan amqp.Confirmation
	published  []publishedMessage
	nack       bool
	silent     bool
	publishErr error
	closed     bool
	tag        uint64
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared, f.kind = name, kind
	return nil
}

func (f *fakeChannel) Confirm(noWait bool) error {
	f.confirmOn = true
	return nil
}

func (f *fakeChannel) NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation {
	f.confirms = confirm
	return confirm
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	if !f.silent {
		f.tag++
		f.confirms <- amqp.Confirmation{DeliveryTag: f.tag, Ack: !f.nack}
	}
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func testEvent() domain.DomainEvent {
	return domain.DomainEvent{
		EventID:     "evt-1",
		Type:        domain.EventPaymentCompleted,
		AggregateID: "pay-1",
		PoolID:      "pool-1",
		Amount:      decimal.NewFromInt(3000),
		Actor:       "officer-1",
		OccurredAt:  time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewRabbitMQPublisher_DeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}

	_, err := messaging.NewRabbitMQPublisher(ch, "ledger.events")

	require.NoError(t, err)
	assert.Equal(t, "ledger.events", ch.declared)
	assert.Equal(t, amqp.ExchangeTopic, ch.kind)
	assert.True(t, ch.confirmOn)
}

func TestNewRabbitMQPublisher_RequiresChannelAndExchange(t *testing.T) {
	_, err := messaging.NewRabbitMQPublisher(nil, "ledger.events")
	assert.ErrorIs(t, err, messaging.ErrChannelRequired)

	_, err = messaging.NewRabbitMQPublisher(&fakeChannel{}, "")
	assert.ErrorIs(t, err, messaging.ErrExchangeRequired)
}

func TestPublish_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p, err := messaging.NewRabbitMQPublisher(ch, "ledger.events")
	require.NoError(t, err)

	err = p.Publish(context.Background(), testEvent())

	require.NoError(t, err)
	require.Len(t, ch.published, 1)
	sent := ch.published[0]
	assert.Equal(t, "ledger.events", sent.exchange)
	assert.Equal(t, "PaymentCompleted", sent.key)
	assert.Equal(t, "evt-1", sent.msg.MessageId)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)

	var decoded domain.DomainEvent
	require.NoError(t, json.Unmarshal(sent.msg.Body, &decoded))
	assert.Equal(t, "pay-1", decoded.AggregateID)
	assert.True(t, decoded.Amount.Equal(decimal.NewFromInt(3000)))
}

func TestPublish_Nack(t *testing.T) {
	ch := &fakeChannel{nack: true}
	p, err := messaging.NewRabbitMQPublisher(ch, "ledger.events")
	require.NoError(t, err)

	err = p.Publish(context.Background(), testEvent())

	assert.ErrorIs(t, err, messaging.ErrPublishNacked)
}

func TestPublish_ConfirmTimeout(t *testing.T) {
	ch := &fakeChannel{silent: true}
	p, err := messaging.NewRabbitMQPublisher(ch, "ledger.events", messaging.WithConfirmTimeout(10*time.Millisecond))
	require.NoError(t, err)

	err = p.Publish(context.Background(), testEvent())

	assert.ErrorIs(t, err, messaging.ErrConfirmTimeout)
}

func TestPublish_ChannelError(t *testing.T) {
	brokerErr := errors.New("channel/connection is not open")
	ch := &fakeChannel{publishErr: brokerErr}
	p, err := messaging.NewRabbitMQPublisher(ch, "ledger.events")
	require.NoError(t, err)

	err = p.Publish(context.Background(), testEvent())

	assert.ErrorIs(t, err, brokerErr)
}

func TestPublish_AfterClose(t *testing.T) {
	ch := &fakeChannel{}
	p, err := messaging.NewRabbitMQPublisher(ch, "ledger.events")
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.True(t, ch.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), testEvent()), messaging.ErrPublisherClosed)
}

func TestLogPublisher_NeverFails(t *testing.T) {
	assert.NoError(t, messaging.NewLogPublisher().Publish(context.Background(), testEvent()))
}
