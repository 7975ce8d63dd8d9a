package apperrors

import "errors"

// Kind is the stable, user-visible identifier of an error category.
type Kind string

const (
	KindInsufficientFunds      Kind = "insufficient_funds"
	KindDuplicateAllocation    Kind = "duplicate_allocation"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindExceedsApprovedAmount  Kind = "exceeds_approved_amount"
	KindInvalidSchedule        Kind = "invalid_schedule"
	KindRetryLimitExceeded     Kind = "retry_limit_exceeded"
	KindConcurrentModification Kind = "concurrent_modification"
	KindPoolExpired            Kind = "pool_expired"
	KindPoolNotActive          Kind = "pool_not_active"
	KindValidation             Kind = "validation_error"
	KindNotFound               Kind = "not_found"
	KindDuplicate              Kind = "duplicate"
	KindInvariantViolation     Kind = "invariant_violation"
	KindDanglingTransfer       Kind = "dangling_transfer"
	KindInternal               Kind = "internal"
)

var kindTable = []struct {
	sentinel error
	kind     Kind
}{
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrDuplicateAllocation, KindDuplicateAllocation},
	{ErrInvalidStateTransition, KindInvalidStateTransition},
	{ErrExceedsApprovedAmount, KindExceedsApprovedAmount},
	{ErrInvalidSchedule, KindInvalidSchedule},
	{ErrRetryLimitExceeded, KindRetryLimitExceeded},
	{ErrConcurrentModification, KindConcurrentModification},
	{ErrPoolExpired, KindPoolExpired},
	{ErrPoolNotActive, KindPoolNotActive},
	{ErrValidation, KindValidation},
	{ErrNotFound, KindNotFound},
	{ErrDuplicate, KindDuplicate},
	{ErrInvariantViolation, KindInvariantViolation},
	{ErrDanglingTransferOnSource, KindDanglingTransfer},
}

// KindOf classifies err. Anything unrecognised (persistence, network) is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.sentinel) {
			return entry.kind
		}
	}
	return KindInternal
}

// PublicMessage returns a message that is safe to show to end users.
// Ledger errors describe themselves; infrastructure errors are never echoed.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case "":
		return ""
	case KindInternal:
		return "internal error, please retry later"
	case KindInvariantViolation:
		return "the operation was rejected to protect budget consistency"
	case KindConcurrentModification:
		return "the budget pool was modified concurrently, please retry"
	case KindNotFound:
		return "resource not found"
	case KindDuplicate:
		return "a record with the same identity already exists"
	}
	return err.Error()
}
