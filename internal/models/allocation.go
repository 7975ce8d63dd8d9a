package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation is a row of allocations.
type Allocation struct {
	AllocationID string          `json:"allocationID"`
	PoolID       string          `json:"poolID"`
	RequestID    string          `json:"requestID"`
	PaymentID    *string         `json:"paymentID"` // Nullable
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	AllocatedBy  string          `json:"allocatedBy"`
	Reason       string          `json:"reason"`
	ReservedAt   time.Time       `json:"reservedAt"`
	ConfirmedAt  *time.Time      `json:"confirmedAt"`
	PaidAt       *time.Time      `json:"paidAt"`
	CancelledAt  *time.Time      `json:"cancelledAt"`
	RefundedAt   *time.Time      `json:"refundedAt"`
	Version      int64           `json:"version"`
	AuditFields
}
