package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Command is the closed set of typed mutations the ledger accepts.
// Only types in this package can implement it.
type Command interface {
	commandName() string
}

var validate = newCommandValidator()

func newCommandValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Amounts are validated as numbers; the conversion only feeds gt/gte tags.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateCommand checks a command's struct tags and maps the first failure
// to a ValidationError.
func ValidateCommand(cmd Command) error {
	if cmd == nil {
		return apperrors.NewValidationError("", "command is required")
	}
	if err := validate.Struct(cmd); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.NewValidationError(fe.Field(), describeTag(fe))
		}
		return apperrors.NewValidationError("", err.Error())
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "nefield":
		return "must differ from " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// ReserveCommand reserves pool funds for a request.
type ReserveCommand struct {
	PoolID    string          `json:"poolID" validate:"required"`
	RequestID string          `json:"requestID" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Actor     string          `json:"actor" validate:"required"`
}

// ConfirmCommand moves a reserved allocation to confirmed.
type ConfirmCommand struct {
	AllocationID string `json:"allocationID" validate:"required"`
	Actor        string `json:"actor" validate:"required"`
}

// SettleCommand moves a confirmed allocation to paid.
type SettleCommand struct {
	AllocationID string `json:"allocationID" validate:"required"`
	Actor        string `json:"actor" validate:"required"`
}

// CancelAllocationCommand releases a reserved or confirmed allocation.
type CancelAllocationCommand struct {
	AllocationID string `json:"allocationID" validate:"required"`
	Reason       string `json:"reason" validate:"max=500"`
	Actor        string `json:"actor" validate:"required"`
}

// RefundAllocationCommand reverses a paid allocation.
type RefundAllocationCommand struct {
	AllocationID string `json:"allocationID" validate:"required"`
	Reason       string `json:"reason" validate:"max=500"`
	Actor        string `json:"actor" validate:"required"`
}

// CreatePaymentCommand creates a payment against an approved request.
type CreatePaymentCommand struct {
	RequestID     string          `json:"requestID" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	Method        PaymentMethod   `json:"method" validate:"required,oneof=bank_transfer card cash check mobile_money"`
	PoolID        string          `json:"poolID"`
	Currency      string          `json:"currency" validate:"omitempty,len=3"`
	Details       PaymentDetails  `json:"details"`
	ScheduledDate *time.Time      `json:"scheduledDate"`
	Actor         string          `json:"actor" validate:"required"`
}

// ProcessPaymentCommand settles a processing payment.
type ProcessPaymentCommand struct {
	PaymentID     string `json:"paymentID" validate:"required"`
	TransactionID string `json:"transactionID"`
	Actor         string `json:"actor" validate:"required"`
}

// CancelPaymentCommand cancels a payment that has not completed.
type CancelPaymentCommand struct {
	PaymentID string `json:"paymentID" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
	Actor     string `json:"actor" validate:"required"`
}

// RetryPaymentCommand moves a failed payment back to processing.
type RetryPaymentCommand struct {
	PaymentID string `json:"paymentID" validate:"required"`
	Actor     string `json:"actor" validate:"required"`
}

// MarkPaymentFailedCommand records a disbursement failure.
type MarkPaymentFailedCommand struct {
	PaymentID string `json:"paymentID" validate:"required"`
	Code      string `json:"code" validate:"required"`
	Message   string `json:"message"`
	Actor     string `json:"actor" validate:"required"`
}

// ReleaseScheduledPaymentCommand starts processing a scheduled payment once due.
type ReleaseScheduledPaymentCommand struct {
	PaymentID string `json:"paymentID" validate:"required"`
	Actor     string `json:"actor" validate:"required"`
}

// HoldPaymentCommand puts a payment on hold.
type HoldPaymentCommand struct {
	PaymentID string `json:"paymentID" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=500"`
	Actor     string `json:"actor" validate:"required"`
}

// ResumePaymentCommand takes a payment off hold.
type ResumePaymentCommand struct {
	PaymentID string `json:"paymentID" validate:"required"`
	Actor     string `json:"actor" validate:"required"`
}

// RefundPaymentCommand reverses a completed payment.
type RefundPaymentCommand struct {
	PaymentID string `json:"paymentID" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=500"`
	Actor     string `json:"actor" validate:"required"`
}

// InitiateTransferCommand opens a pool-to-pool transfer.
type InitiateTransferCommand struct {
	SourcePoolID      string          `json:"sourcePoolID" validate:"required"`
	DestinationPoolID string          `json:"destinationPoolID" validate:"required,nefield=SourcePoolID"`
	Amount            decimal.Decimal `json:"amount" validate:"gt=0"`
	Reason            string          `json:"reason" validate:"max=500"`
	Actor             string          `json:"actor" validate:"required"`
}

// ApproveTransferCommand approves a pending transfer and earmarks its amount.
type ApproveTransferCommand struct {
	TransferID string `json:"transferID" validate:"required"`
	Actor      string `json:"actor" validate:"required"`
}

// CompleteTransferCommand moves the funds of an approved transfer.
type CompleteTransferCommand struct {
	TransferID string `json:"transferID" validate:"required"`
	Actor      string `json:"actor" validate:"required"`
}

// RejectTransferCommand rejects a transfer before completion.
type RejectTransferCommand struct {
	TransferID string `json:"transferID" validate:"required"`
	Reason     string `json:"reason" validate:"max=500"`
	Actor      string `json:"actor" validate:"required"`
}

// CreatePoolCommand creates a draft budget pool.
type CreatePoolCommand struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Department  string          `json:"department" validate:"required"`
	FiscalYear  int             `json:"fiscalYear" validate:"gt=1999"`
	Currency    string          `json:"currency" validate:"omitempty,len=3"`
	TotalAmount decimal.Decimal `json:"totalAmount" validate:"gte=0"`
	PeriodStart time.Time       `json:"periodStart" validate:"required"`
	PeriodEnd   time.Time       `json:"periodEnd" validate:"required,gtfield=PeriodStart"`
	Actor       string          `json:"actor" validate:"required"`
}

// TopUpPoolCommand raises a pool's total amount.
type TopUpPoolCommand struct {
	PoolID string          `json:"poolID" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Actor  string          `json:"actor" validate:"required"`
}

// SyncRequestCommand records a request that reached approval upstream.
type SyncRequestCommand struct {
	RequestID       string          `json:"requestID" validate:"required"`
	BeneficiaryID   string          `json:"beneficiaryID" validate:"required"`
	Reference       string          `json:"reference"`
	RequestedAmount decimal.Decimal `json:"requestedAmount" validate:"gte=0"`
	ApprovedAmount  decimal.Decimal `json:"approvedAmount" validate:"gt=0"`
	Actor           string          `json:"actor" validate:"required"`
}

func (ReserveCommand) commandName() string                 { return "reserve" }
func (ConfirmCommand) commandName() string                 { return "confirm" }
func (SettleCommand) commandName() string                  { return "settle" }
func (CancelAllocationCommand) commandName() string        { return "cancel_allocation" }
func (RefundAllocationCommand) commandName() string        { return "refund_allocation" }
func (CreatePaymentCommand) commandName() string           { return "create_payment" }
func (ProcessPaymentCommand) commandName() string          { return "process_payment" }
func (CancelPaymentCommand) commandName() string           { return "cancel_payment" }
func (RetryPaymentCommand) commandName() string            { return "retry_payment" }
func (MarkPaymentFailedCommand) commandName() string       { return "mark_payment_failed" }
func (ReleaseScheduledPaymentCommand) commandName() string { return "release_scheduled_payment" }
func (HoldPaymentCommand) commandName() string             { return "hold_payment" }
func (ResumePaymentCommand) commandName() string           { return "resume_payment" }
func (RefundPaymentCommand) commandName() string           { return "refund_payment" }
func (InitiateTransferCommand) commandName() string        { return "initiate_transfer" }
func (ApproveTransferCommand) commandName() string         { return "approve_transfer" }
func (CompleteTransferCommand) commandName() string        { return "complete_transfer" }
func (RejectTransferCommand) commandName() string          { return "reject_transfer" }
func (CreatePoolCommand) commandName() string              { return "create_pool" }
func (TopUpPoolCommand) commandName() string               { return "top_up_pool" }
func (SyncRequestCommand) commandName() string             { return "sync_request" }

// CommandName returns the stable name of a command, used in logs.
func CommandName(cmd Command) string {
	if cmd == nil {
		return ""
	}
	return cmd.commandName()
}
