package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientFundsError reports a reservation or debit the pool cannot cover.
type InsufficientFundsError struct {
	PoolID    string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in pool %s: requested %s, remaining %s",
		e.PoolID, e.Requested.String(), e.Available.String())
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// DuplicateAllocationError reports an existing active allocation for the same request and pool.
type DuplicateAllocationError struct {
	PoolID               string
	RequestID            string
	ExistingAllocationID string
}

func (e *DuplicateAllocationError) Error() string {
	return fmt.Sprintf("request %s already has active allocation %s in pool %s",
		e.RequestID, e.ExistingAllocationID, e.PoolID)
}

func (e *DuplicateAllocationError) Unwrap() error { return ErrDuplicateAllocation }

// InvalidStateTransitionError reports a lifecycle move that the state machine forbids.
// Hint, when set, names the operation that performs the move instead.
type InvalidStateTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
	Hint   string
}

func (e *InvalidStateTransitionError) Error() string {
	msg := fmt.Sprintf("%s %s cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// ExceedsApprovedAmountError reports a payment larger than what is left to pay on a request.
type ExceedsApprovedAmountError struct {
	RequestID   string
	Requested   decimal.Decimal
	Outstanding decimal.Decimal
}

func (e *ExceedsApprovedAmountError) Error() string {
	return fmt.Sprintf("payment of %s exceeds outstanding approved amount %s on request %s",
		e.Requested.String(), e.Outstanding.String(), e.RequestID)
}

func (e *ExceedsApprovedAmountError) Unwrap() error { return ErrExceedsApprovedAmount }

// InvalidScheduleError reports a scheduled date that cannot be honoured.
type InvalidScheduleError struct {
	Reason string
}

func (e *InvalidScheduleError) Error() string { return "invalid schedule: " + e.Reason }

func (e *InvalidScheduleError) Unwrap() error { return ErrInvalidSchedule }

// RetryLimitExceededError is fatal for the payment: a new payment must be created.
type RetryLimitExceededError struct {
	PaymentID  string
	RetryCount int
	MaxRetries int
}

func (e *RetryLimitExceededError) Error() string {
	return fmt.Sprintf("payment %s reached %d of %d retries; create a new payment",
		e.PaymentID, e.RetryCount, e.MaxRetries)
}

func (e *RetryLimitExceededError) Unwrap() error { return ErrRetryLimitExceeded }

// ConcurrentModificationError is surfaced once the bounded retry budget is spent.
type ConcurrentModificationError struct {
	Attempts int
	Err      error
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("concurrent modification persisted after %d attempts", e.Attempts)
}

func (e *ConcurrentModificationError) Unwrap() error { return ErrConcurrentModification }

// PoolExpiredError reports an operation on a pool past its period.
type PoolExpiredError struct {
	PoolID string
}

func (e *PoolExpiredError) Error() string {
	return fmt.Sprintf("budget pool %s is expired", e.PoolID)
}

func (e *PoolExpiredError) Unwrap() error { return ErrPoolExpired }

// PoolNotActiveError reports a reservation against a draft, frozen, depleted or cancelled pool.
type PoolNotActiveError struct {
	PoolID string
	Status string
}

func (e *PoolNotActiveError) Error() string {
	return fmt.Sprintf("budget pool %s is %s", e.PoolID, e.Status)
}

func (e *PoolNotActiveError) Unwrap() error { return ErrPoolNotActive }

// ValidationError reports missing or malformed command input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError is a shorthand used by command validation.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvariantViolationError means a mutation would break pool conservation; the
// surrounding transaction is rolled back.
type InvariantViolationError struct {
	PoolID string
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("pool %s invariant violated: %s", e.PoolID, e.Detail)
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }

// IsRetryable returns true if the error might succeed when the whole operation is re-run.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
