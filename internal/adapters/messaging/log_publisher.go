package messaging

import (
	"context"
	"log/slog"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/middleware"
)

// LogPublisher writes events to the structured log. It stands in for the
// broker when no RabbitMQ URL is configured.
type LogPublisher struct{}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher() *LogPublisher { return &LogPublisher{} }

var _ portssvc.EventPublisher = (*LogPublisher)(nil)

func (LogPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	middleware.GetLoggerFromCtx(ctx).Info("Ledger event",
		slog.String("event_id", event.EventID),
		slog.String("event_type", string(event.Type)),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("pool_id", event.PoolID),
		slog.String("amount", event.Amount.String()),
		slog.String("actor", event.Actor))
	return nil
}
