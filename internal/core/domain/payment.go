package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how funds reach the beneficiary.
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
	MethodCash         PaymentMethod = "cash"
	MethodCheck        PaymentMethod = "check"
	MethodMobileMoney  PaymentMethod = "mobile_money"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentOnHold     PaymentStatus = "on_hold"
)

// MaxPaymentRetries bounds RetryPayment; after that a new payment is required.
const MaxPaymentRetries = 5

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentCancelled, PaymentOnHold},
	PaymentProcessing: {PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentOnHold},
	PaymentFailed:     {PaymentProcessing, PaymentCancelled},
	PaymentOnHold:     {PaymentPending, PaymentProcessing, PaymentCancelled},
	PaymentCompleted:  {PaymentRefunded},
}

// CanTransitionTo reports whether the payment state machine allows moving to next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentDetails carries method-specific coordinates of the beneficiary.
type PaymentDetails struct {
	AccountNumber string `json:"accountNumber,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	HolderName    string `json:"holderName,omitempty"`
	CheckNumber   string `json:"checkNumber,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
}

// MissingFor returns the first required detail field absent for method, or "".
func (d PaymentDetails) MissingFor(method PaymentMethod) string {
	switch method {
	case MethodBankTransfer:
		switch {
		case d.AccountNumber == "":
			return "accountNumber"
		case d.BankName == "":
			return "bankName"
		case d.HolderName == "":
			return "holderName"
		}
	case MethodCheck:
		if d.CheckNumber == "" {
			return "checkNumber"
		}
	case MethodMobileMoney:
		if d.PhoneNumber == "" {
			return "phoneNumber"
		}
	}
	return ""
}

// Fees is the fee breakdown computed at payment creation.
type Fees struct {
	ProcessingFee   decimal.Decimal `json:"processingFee"`
	BankFee         decimal.Decimal `json:"bankFee"`
	TotalFees       decimal.Decimal `json:"totalFees"`
	ScheduleVersion string          `json:"scheduleVersion"`
}

// ErrorDetails records the last failure of a payment.
type ErrorDetails struct {
	Code         string     `json:"code,omitempty"`
	Message      string     `json:"message,omitempty"`
	RetryCount   int        `json:"retryCount"`
	LastFailedAt *time.Time `json:"lastFailedAt,omitempty"`
}

// Payment is a disbursement against a request, optionally backed by a pool allocation.
type Payment struct {
	PaymentID          string          `json:"paymentID"`
	RequestID          string          `json:"requestID"`
	PoolID             *string         `json:"poolID,omitempty"`
	AllocationID       *string         `json:"allocationID,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Method             PaymentMethod   `json:"method"`
	Details            PaymentDetails  `json:"details"`
	Status             PaymentStatus   `json:"status"`
	Fees               Fees            `json:"fees"`
	ErrorDetails       ErrorDetails    `json:"errorDetails"`
	ScheduledDate      *time.Time      `json:"scheduledDate,omitempty"`
	TransactionID      *string         `json:"transactionID,omitempty"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	HoldReason         string          `json:"holdReason,omitempty"`
	Version            int64           `json:"version"`
	AuditFields
}

// HasAllocation reports whether the payment is backed by a pool allocation.
func (p Payment) HasAllocation() bool {
	return p.AllocationID != nil && *p.AllocationID != ""
}

// IsScheduledAfter reports whether the payment still waits for a future date.
func (p Payment) IsScheduledAfter(now time.Time) bool {
	return p.ScheduledDate != nil && p.ScheduledDate.After(now)
}
