package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutboxEvent is a row of outbox_events. Seq orders delivery.
type OutboxEvent struct {
	Seq         int64           `json:"seq"`
	EventID     string          `json:"eventID"`
	EventType   string          `json:"eventType"`
	AggregateID string          `json:"aggregateID"`
	PoolID      string          `json:"poolID"`
	RequestID   string          `json:"requestID"`
	PaymentID   string          `json:"paymentID"`
	Amount      decimal.Decimal `json:"amount"`
	Actor       string          `json:"actor"`
	OccurredAt  time.Time       `json:"occurredAt"`
	PublishedAt *time.Time      `json:"publishedAt"`
}
