package mapping

import (
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
)

// ToModelOutboxEvent converts a domain event to an outbox row. Seq is assigned by the database.
func ToModelOutboxEvent(d domain.DomainEvent) models.OutboxEvent {
	return models.OutboxEvent{
		EventID:     d.EventID,
		EventType:   string(d.Type),
		AggregateID: d.AggregateID,
		PoolID:      d.PoolID,
		RequestID:   d.RequestID,
		PaymentID:   d.PaymentID,
		Amount:      d.Amount,
		Actor:       d.Actor,
		OccurredAt:  d.OccurredAt,
		PublishedAt: d.PublishedAt,
	}
}

// ToDomainEvent converts an outbox row to a domain event.
func ToDomainEvent(m models.OutboxEvent) domain.DomainEvent {
	return domain.DomainEvent{
		EventID:     m.EventID,
		Type:        domain.EventType(m.EventType),
		AggregateID: m.AggregateID,
		PoolID:      m.PoolID,
		RequestID:   m.RequestID,
		PaymentID:   m.PaymentID,
		Amount:      m.Amount,
		Actor:       m.Actor,
		OccurredAt:  m.OccurredAt,
		PublishedAt: m.PublishedAt,
	}
}
