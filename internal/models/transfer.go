package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is a row of transfers.
type Transfer struct {
	TransferID            string          `json:"transferID"`
	SourcePoolID          string          `json:"sourcePoolID"`
	DestinationPoolID     string          `json:"destinationPoolID"`
	Amount                decimal.Decimal `json:"amount"`
	Reason                string          `json:"reason"`
	Status                string          `json:"status"`
	InitiatedBy           string          `json:"initiatedBy"`
	ApprovedBy            *string         `json:"approvedBy"`
	RejectionReason       string          `json:"rejectionReason"`
	SourceDebitedAt       *time.Time      `json:"sourceDebitedAt"`
	DestinationCreditedAt *time.Time      `json:"destinationCreditedAt"`
	CompletedAt           *time.Time      `json:"completedAt"`
	RejectedAt            *time.Time      `json:"rejectedAt"`
	Version               int64           `json:"version"`
	AuditFields
}
