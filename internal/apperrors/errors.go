package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// Ledger error kinds. Each sentinel is the identity that typed errors unwrap to,
// so callers can branch with errors.Is without knowing the concrete type.
var (
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrDuplicateAllocation      = errors.New("duplicate allocation")
	ErrInvalidStateTransition   = errors.New("invalid state transition")
	ErrExceedsApprovedAmount    = errors.New("amount exceeds approved amount")
	ErrInvalidSchedule          = errors.New("invalid schedule")
	ErrRetryLimitExceeded       = errors.New("retry limit exceeded")
	ErrConcurrentModification   = errors.New("concurrent modification detected")
	ErrPoolExpired              = errors.New("budget pool expired")
	ErrPoolNotActive            = errors.New("budget pool not active")
	ErrInvariantViolation       = errors.New("ledger invariant violated")
	ErrDanglingTransferOnSource = errors.New("source pool already has a dangling transfer")
)

// AppError carries an HTTP-ish status code alongside a wrapped cause.
// Repositories use it for infrastructure failures.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
