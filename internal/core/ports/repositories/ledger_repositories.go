package repositories

import (
	"context"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Update* methods are compare-and-swap on Version: the write succeeds only if
// the stored version equals the entity's Version, and on success the entity's
// Version is incremented. A mismatch returns apperrors.ErrConcurrentModification.
// Find* methods return apperrors.ErrNotFound when nothing matches.

// BudgetPoolReader defines read operations for budget pools.
type BudgetPoolReader interface {
	FindPoolByID(ctx context.Context, poolID string) (*domain.BudgetPool, error)
	ListPools(ctx context.Context, filter PoolFilter) ([]domain.BudgetPool, error)
}

// BudgetPoolWriter defines write operations for budget pools.
type BudgetPoolWriter interface {
	SavePool(ctx context.Context, pool domain.BudgetPool) error
	UpdatePool(ctx context.Context, pool *domain.BudgetPool) error
}

// BudgetPoolTransactionSupport defines locking reads used inside a transaction.
type BudgetPoolTransactionSupport interface {
	// FindPoolForUpdate reads a pool and, where the store supports it, row-locks it
	// until the surrounding transaction ends.
	FindPoolForUpdate(ctx context.Context, poolID string) (*domain.BudgetPool, error)
}

// BudgetPoolRepository combines all budget pool repository interfaces.
type BudgetPoolRepository interface {
	BudgetPoolReader
	BudgetPoolWriter
	BudgetPoolTransactionSupport
}

// PoolFilter narrows ListPools.
type PoolFilter struct {
	Status     domain.PoolStatus
	Department string
	FiscalYear int
}

// AllocationRepository persists allocations.
type AllocationRepository interface {
	SaveAllocation(ctx context.Context, allocation domain.Allocation) error
	UpdateAllocation(ctx context.Context, allocation *domain.Allocation) error
	FindAllocationByID(ctx context.Context, allocationID string) (*domain.Allocation, error)
	// FindActiveAllocation returns the reserved, confirmed or paid allocation
	// of requestID in poolID.
	FindActiveAllocation(ctx context.Context, requestID, poolID string) (*domain.Allocation, error)
	ListAllocationsByPool(ctx context.Context, poolID string) ([]domain.Allocation, error)
}

// PaymentRepository persists payments.
type PaymentRepository interface {
	SavePayment(ctx context.Context, payment domain.Payment) error
	UpdatePayment(ctx context.Context, payment *domain.Payment) error
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListPaymentsByRequest(ctx context.Context, requestID string) ([]domain.Payment, error)
	// SumCompletedPayments is the authoritative paid amount of a request.
	SumCompletedPayments(ctx context.Context, requestID string) (decimal.Decimal, error)
	// ListPayments returns a page ordered by newest first and the token of the next page.
	ListPayments(ctx context.Context, filter PaymentFilter) ([]domain.Payment, *string, error)
}

// PaymentFilter narrows ListPayments.
type PaymentFilter struct {
	Status    domain.PaymentStatus
	RequestID string
	PoolID    string
	Limit     int
	NextToken *string
}

// RequestRepository persists the ledger view of aid requests.
type RequestRepository interface {
	SaveRequest(ctx context.Context, request domain.AidRequest) error
	UpdateRequest(ctx context.Context, request *domain.AidRequest) error
	FindRequestByID(ctx context.Context, requestID string) (*domain.AidRequest, error)
}

// TransferRepository persists pool-to-pool transfers.
type TransferRepository interface {
	SaveTransfer(ctx context.Context, transfer domain.Transfer) error
	UpdateTransfer(ctx context.Context, transfer *domain.Transfer) error
	FindTransferByID(ctx context.Context, transferID string) (*domain.Transfer, error)
	// ListTransfersByPool returns transfers where poolID is source or destination.
	ListTransfersByPool(ctx context.Context, poolID string) ([]domain.Transfer, error)
	// ListDanglingTransfers returns approved transfers whose source was debited
	// but whose destination was never credited.
	ListDanglingTransfers(ctx context.Context) ([]domain.Transfer, error)
}

// OutboxRepository stores domain events until they are relayed.
type OutboxRepository interface {
	AppendEvents(ctx context.Context, events ...domain.DomainEvent) error
	ListPendingEvents(ctx context.Context, limit int) ([]domain.DomainEvent, error)
	MarkEventsPublished(ctx context.Context, eventIDs []string) error
}

// LedgerTx exposes every repository bound to one transaction.
type LedgerTx interface {
	Pools() BudgetPoolRepository
	Allocations() AllocationRepository
	Payments() PaymentRepository
	Requests() RequestRepository
	Transfers() TransferRepository
	Outbox() OutboxRepository
}

// LedgerStore runs fn inside a single all-or-nothing transaction. If fn returns
// an error, or the commit detects a version conflict, nothing is applied.
type LedgerStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}
