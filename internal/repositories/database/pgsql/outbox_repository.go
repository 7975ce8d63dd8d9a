package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type outboxRepository struct {
	tx pgx.Tx
}

var _ portsrepo.OutboxRepository = (*outboxRepository)(nil)

// AppendEvents queues events in one round trip.
func (r *outboxRepository) AppendEvents(ctx context.Context, events ...domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		m := mapping.ToModelOutboxEvent(e)
		batch.Queue(`INSERT INTO outbox_events (event_id, event_type, aggregate_id, pool_id, request_id,
				payment_id, amount, actor, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			m.EventID, m.EventType, m.AggregateID, m.PoolID, m.RequestID,
			m.PaymentID, m.Amount, m.Actor, m.OccurredAt)
	}
	if err := r.tx.SendBatch(ctx, batch).Close(); err != nil {
		if mapped := translatePgError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to append outbox events: %w", err)
	}
	return nil
}

// ListPendingEvents returns unpublished events in append order.
func (r *outboxRepository) ListPendingEvents(ctx context.Context, limit int) ([]domain.DomainEvent, error) {
	rows, err := r.tx.Query(ctx, `SELECT seq, event_id, event_type, aggregate_id, pool_id, request_id,
			payment_id, amount, actor, occurred_at, published_at
		FROM outbox_events WHERE published_at IS NULL ORDER BY seq LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox events: %w", err)
	}
	defer rows.Close()

	events := []domain.DomainEvent{}
	for rows.Next() {
		var m models.OutboxEvent
		if err := rows.Scan(&m.Seq, &m.EventID, &m.EventType, &m.AggregateID, &m.PoolID, &m.RequestID,
			&m.PaymentID, &m.Amount, &m.Actor, &m.OccurredAt, &m.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, mapping.ToDomainEvent(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkEventsPublished(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	_, err := r.tx.Exec(ctx, `UPDATE outbox_events SET published_at = NOW()
		WHERE event_id = ANY($1) AND published_at IS NULL`, eventIDs)
	if err != nil {
		return fmt.Errorf("failed to mark outbox events published: %w", err)
	}
	return nil
}
