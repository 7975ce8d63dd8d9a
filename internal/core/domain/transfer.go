package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the lifecycle state of a pool-to-pool transfer.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferApproved  TransferStatus = "approved"
	TransferCompleted TransferStatus = "completed"
	TransferRejected  TransferStatus = "rejected"
)

var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferPending:  {TransferApproved, TransferRejected},
	TransferApproved: {TransferCompleted, TransferRejected},
}

// CanTransitionTo reports whether the transfer state machine allows moving to next.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransferDirection is the direction of a transfer relative to one pool.
type TransferDirection string

const (
	TransferIncoming TransferDirection = "incoming"
	TransferOutgoing TransferDirection = "outgoing"
)

// TransferMode selects how Complete commits the two pool updates.
type TransferMode string

const (
	// TransferModeAtomic commits debit and credit in one transaction.
	TransferModeAtomic TransferMode = "atomic"
	// TransferModeTwoPhase debits the source first and credits the destination
	// in a second transaction, relying on the reconciliation sweep for repair.
	TransferModeTwoPhase TransferMode = "two_phase"
)

// Transfer moves funds between two budget pools.
type Transfer struct {
	TransferID            string          `json:"transferID"`
	SourcePoolID          string          `json:"sourcePoolID"`
	DestinationPoolID     string          `json:"destinationPoolID"`
	Amount                decimal.Decimal `json:"amount"`
	Reason                string          `json:"reason"`
	Status                TransferStatus  `json:"status"`
	InitiatedBy           string          `json:"initiatedBy"`
	ApprovedBy            *string         `json:"approvedBy,omitempty"`
	RejectionReason       string          `json:"rejectionReason,omitempty"`
	SourceDebitedAt       *time.Time      `json:"sourceDebitedAt,omitempty"`
	DestinationCreditedAt *time.Time      `json:"destinationCreditedAt,omitempty"`
	CompletedAt           *time.Time      `json:"completedAt,omitempty"`
	RejectedAt            *time.Time      `json:"rejectedAt,omitempty"`
	Version               int64           `json:"version"`
	AuditFields
}

// DirectionFor returns whether the transfer flows into or out of poolID.
func (t Transfer) DirectionFor(poolID string) TransferDirection {
	if t.DestinationPoolID == poolID {
		return TransferIncoming
	}
	return TransferOutgoing
}

// IsDangling is true when the source was debited but the destination never credited.
func (t Transfer) IsDangling() bool {
	return t.SourceDebitedAt != nil && t.DestinationCreditedAt == nil && t.Status == TransferApproved
}

// PoolTransfer is a transfer seen from one pool.
type PoolTransfer struct {
	Transfer
	Direction TransferDirection `json:"direction"`
}
