package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentDetails is stored in the details JSONB column.
type PaymentDetails struct {
	AccountNumber string `json:"accountNumber,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	HolderName    string `json:"holderName,omitempty"`
	CheckNumber   string `json:"checkNumber,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
}

// Payment is a row of payments. Fees and error details are flattened into columns.
type Payment struct {
	PaymentID          string          `json:"paymentID"`
	RequestID          string          `json:"requestID"`
	PoolID             *string         `json:"poolID"`
	AllocationID       *string         `json:"allocationID"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Method             string          `json:"method"`
	Details            PaymentDetails  `json:"details"`
	Status             string          `json:"status"`
	ProcessingFee      decimal.Decimal `json:"processingFee"`
	BankFee            decimal.Decimal `json:"bankFee"`
	TotalFees          decimal.Decimal `json:"totalFees"`
	FeeScheduleVersion string          `json:"feeScheduleVersion"`
	ErrorCode          string          `json:"errorCode"`
	ErrorMessage       string          `json:"errorMessage"`
	RetryCount         int             `json:"retryCount"`
	LastFailedAt       *time.Time      `json:"lastFailedAt"`
	ScheduledDate      *time.Time      `json:"scheduledDate"`
	TransactionID      *string         `json:"transactionID"`
	CompletedAt        *time.Time      `json:"completedAt"`
	CancelledAt        *time.Time      `json:"cancelledAt"`
	CancellationReason string          `json:"cancellationReason"`
	HoldReason         string          `json:"holdReason"`
	Version            int64           `json:"version"`
	AuditFields
}
