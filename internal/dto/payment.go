package dto

import (
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest defines the structure for creating a payment.
type CreatePaymentRequest struct {
	RequestID     string                `json:"requestID" binding:"required"`
	PoolID        string                `json:"poolID"`
	Amount        decimal.Decimal       `json:"amount" swaggertype:"string" example:"3000.00"`
	Currency      string                `json:"currency" binding:"omitempty,len=3"`
	Method        domain.PaymentMethod  `json:"method" binding:"required" enums:"bank_transfer,card,cash,check,mobile_money"`
	Details       domain.PaymentDetails `json:"details"`
	ScheduledDate *time.Time            `json:"scheduledDate"`
}

// ToCommand builds the ledger command for actor.
func (r CreatePaymentRequest) ToCommand(actor string) domain.CreatePaymentCommand {
	return domain.CreatePaymentCommand{
		RequestID:     r.RequestID,
		PoolID:        r.PoolID,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Method:        r.Method,
		Details:       r.Details,
		ScheduledDate: r.ScheduledDate,
		Actor:         actor,
	}
}

// ProcessPaymentRequest records the disbursement reference.
type ProcessPaymentRequest struct {
	TransactionID string `json:"transactionID"`
}

// MarkFailedRequest records a disbursement failure.
type MarkFailedRequest struct {
	Code    string `json:"code" binding:"required"`
	Message string `json:"message"`
}

// ListPaymentsParams are the query parameters of the payment list.
type ListPaymentsParams struct {
	Status    string `form:"status"`
	RequestID string `form:"requestID"`
	PoolID    string `form:"poolID"`
	Limit     int    `form:"limit"`
	NextToken string `form:"nextToken"`
}

// ListPaymentsResponse is one page of payments.
type ListPaymentsResponse struct {
	Payments  []domain.Payment `json:"payments"`
	NextToken *string          `json:"nextToken,omitempty"`
}
