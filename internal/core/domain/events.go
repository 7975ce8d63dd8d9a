package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a ledger domain event.
type EventType string

const (
	EventPaymentCreated      EventType = "PaymentCreated"
	EventPaymentCompleted    EventType = "PaymentCompleted"
	EventPaymentCancelled    EventType = "PaymentCancelled"
	EventPaymentFailed       EventType = "PaymentFailed"
	EventPaymentRefunded     EventType = "PaymentRefunded"
	EventAllocationReserved  EventType = "AllocationReserved"
	EventAllocationCancelled EventType = "AllocationCancelled"
	EventAllocationRefunded  EventType = "AllocationRefunded"
	EventTransferCompleted   EventType = "TransferCompleted"
	EventPoolExpired         EventType = "PoolExpired"
)

// DomainEvent is written to the outbox in the same transaction as the change it describes.
type DomainEvent struct {
	EventID     string          `json:"eventID"`
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregateID"`
	PoolID      string          `json:"poolID,omitempty"`
	RequestID   string          `json:"requestID,omitempty"`
	PaymentID   string          `json:"paymentID,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Actor       string          `json:"actor"`
	OccurredAt  time.Time       `json:"occurredAt"`
	PublishedAt *time.Time      `json:"publishedAt,omitempty"`
}
