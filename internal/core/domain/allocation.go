package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationStatus is the lifecycle state of an allocation.
type AllocationStatus string

const (
	AllocationReserved  AllocationStatus = "reserved"
	AllocationConfirmed AllocationStatus = "confirmed"
	AllocationPaid      AllocationStatus = "paid"
	AllocationCancelled AllocationStatus = "cancelled"
	AllocationRefunded  AllocationStatus = "refunded"
)

var allocationTransitions = map[AllocationStatus][]AllocationStatus{
	AllocationReserved:  {AllocationConfirmed, AllocationCancelled},
	AllocationConfirmed: {AllocationPaid, AllocationCancelled},
	AllocationPaid:      {AllocationRefunded},
}

// CanTransitionTo reports whether the allocation state machine allows moving to next.
func (s AllocationStatus) CanTransitionTo(next AllocationStatus) bool {
	for _, allowed := range allocationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive is true for allocations that still count against the pool
// for duplicate detection.
func (s AllocationStatus) IsActive() bool {
	return s == AllocationReserved || s == AllocationConfirmed || s == AllocationPaid
}

// HoldsReservation is true while the amount sits in the pool's ReservedAmount.
func (s AllocationStatus) HoldsReservation() bool {
	return s == AllocationReserved || s == AllocationConfirmed
}

// Allocation is an earmark of pool funds for one request. Allocations are
// never deleted; they only move forward through their states.
type Allocation struct {
	AllocationID string           `json:"allocationID"`
	PoolID       string           `json:"poolID"`
	RequestID    string           `json:"requestID"`
	PaymentID    *string          `json:"paymentID,omitempty"`
	Amount       decimal.Decimal  `json:"amount"`
	Status       AllocationStatus `json:"status"`
	AllocatedBy  string           `json:"allocatedBy"`
	Reason       string           `json:"reason,omitempty"`
	ReservedAt   time.Time        `json:"reservedAt"`
	ConfirmedAt  *time.Time       `json:"confirmedAt,omitempty"`
	PaidAt       *time.Time       `json:"paidAt,omitempty"`
	CancelledAt  *time.Time       `json:"cancelledAt,omitempty"`
	RefundedAt   *time.Time       `json:"refundedAt,omitempty"`
	Version      int64            `json:"version"`
	AuditFields
}
