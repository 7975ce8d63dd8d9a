package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/accounting"
	"github.com/google/uuid"
)

// allocationLedger holds the transaction-scoped allocation rules. The
// allocation service exposes them directly and the payment service composes
// them with payment and request updates inside its own transactions.
type allocationLedger struct {
	BaseService
}

// reserve holds pool funds for a request. paymentID links the allocation to the
// payment that created it and may be empty.
func (l *allocationLedger) reserve(ctx context.Context, tx portsrepo.LedgerTx, cmd domain.ReserveCommand, paymentID string) (*domain.Allocation, error) {
	pool, err := tx.Pools().FindPoolForUpdate(ctx, cmd.PoolID)
	if err != nil {
		return nil, err
	}
	now := l.Now()
	if pool.Status == domain.PoolExpired || pool.IsPastPeriod(now) {
		return nil, &apperrors.PoolExpiredError{PoolID: pool.PoolID}
	}
	// a depleted pool accepts the attempt and fails on funds below
	if pool.Status != domain.PoolActive && pool.Status != domain.PoolDepleted {
		return nil, &apperrors.PoolNotActiveError{PoolID: pool.PoolID, Status: string(pool.Status)}
	}

	existing, err := tx.Allocations().FindActiveAllocation(ctx, cmd.RequestID, cmd.PoolID)
	switch {
	case err == nil:
		return nil, &apperrors.DuplicateAllocationError{
			PoolID:               cmd.PoolID,
			RequestID:            cmd.RequestID,
			ExistingAllocationID: existing.AllocationID,
		}
	case !isNotFound(err):
		return nil, err
	}

	if !accounting.CheckCanReserve(*pool, cmd.Amount) {
		return nil, &apperrors.InsufficientFundsError{
			PoolID:    pool.PoolID,
			Requested: cmd.Amount,
			Available: pool.RemainingAmount(),
		}
	}

	pool.ReservedAmount = pool.ReservedAmount.Add(cmd.Amount)
	pool.Touch(cmd.Actor, now)
	if err := persistPool(ctx, tx, pool); err != nil {
		return nil, err
	}

	allocation := domain.Allocation{
		AllocationID: uuid.NewString(),
		PoolID:       cmd.PoolID,
		RequestID:    cmd.RequestID,
		PaymentID:    domain.StrPtr(paymentID),
		Amount:       cmd.Amount,
		Status:       domain.AllocationReserved,
		AllocatedBy:  cmd.Actor,
		ReservedAt:   now,
		AuditFields:  domain.NewAuditFields(cmd.Actor, now),
	}
	if err := tx.Allocations().SaveAllocation(ctx, allocation); err != nil {
		return nil, err
	}

	event := l.newEvent(domain.EventAllocationReserved, allocation.AllocationID, cmd.Amount, cmd.Actor)
	event.PoolID, event.RequestID, event.PaymentID = cmd.PoolID, cmd.RequestID, paymentID
	if err := tx.Outbox().AppendEvents(ctx, event); err != nil {
		return nil, err
	}
	return &allocation, nil
}

// loadForTransition reads an allocation and checks that it may move to next.
func (l *allocationLedger) loadForTransition(ctx context.Context, tx portsrepo.LedgerTx, allocationID string, next domain.AllocationStatus) (*domain.Allocation, *domain.BudgetPool, error) {
	allocation, err := tx.Allocations().FindAllocationByID(ctx, allocationID)
	if err != nil {
		return nil, nil, err
	}
	if !allocation.Status.CanTransitionTo(next) {
		return nil, nil, &apperrors.InvalidStateTransitionError{
			Entity: "allocation",
			ID:     allocation.AllocationID,
			From:   string(allocation.Status),
			To:     string(next),
		}
	}
	pool, err := tx.Pools().FindPoolForUpdate(ctx, allocation.PoolID)
	if err != nil {
		return nil, nil, err
	}
	return allocation, pool, nil
}

func (l *allocationLedger) confirm(ctx context.Context, tx portsrepo.LedgerTx, allocationID, actor string) (*domain.Allocation, error) {
	allocation, pool, err := l.loadForTransition(ctx, tx, allocationID, domain.AllocationConfirmed)
	if err != nil {
		return nil, err
	}
	if !accounting.CheckCanConfirm(*pool, allocation.Amount) {
		return nil, &apperrors.InvariantViolationError{
			PoolID: pool.PoolID,
			Detail: fmt.Sprintf("reserved amount %s does not cover allocation %s", pool.ReservedAmount, allocation.AllocationID),
		}
	}

	now := l.Now()
	allocation.Status = domain.AllocationConfirmed
	allocation.ConfirmedAt = domain.TimePtr(now)
	allocation.Touch(actor, now)
	if err := tx.Allocations().UpdateAllocation(ctx, allocation); err != nil {
		return nil, err
	}
	return allocation, nil
}

func (l *allocationLedger) settle(ctx context.Context, tx portsrepo.LedgerTx, allocationID, actor string) (*domain.Allocation, error) {
	allocation, pool, err := l.loadForTransition(ctx, tx, allocationID, domain.AllocationPaid)
	if err != nil {
		return nil, err
	}
	if pool.Status == domain.PoolFrozen || pool.Status == domain.PoolCancelled {
		return nil, &apperrors.PoolNotActiveError{PoolID: pool.PoolID, Status: string(pool.Status)}
	}
	if !accounting.CheckCanSettle(*pool, allocation.Amount) {
		return nil, &apperrors.InvariantViolationError{
			PoolID: pool.PoolID,
			Detail: fmt.Sprintf("cannot settle %s: reserved %s, spent %s, total %s",
				allocation.Amount, pool.ReservedAmount, pool.SpentAmount, pool.TotalAmount),
		}
	}

	now := l.Now()
	pool.ReservedAmount = pool.ReservedAmount.Sub(allocation.Amount)
	pool.SpentAmount = pool.SpentAmount.Add(allocation.Amount)
	pool.Touch(actor, now)
	if err := persistPool(ctx, tx, pool); err != nil {
		return nil, err
	}

	allocation.Status = domain.AllocationPaid
	allocation.PaidAt = domain.TimePtr(now)
	allocation.Touch(actor, now)
	if err := tx.Allocations().UpdateAllocation(ctx, allocation); err != nil {
		return nil, err
	}
	return allocation, nil
}

func (l *allocationLedger) cancel(ctx context.Context, tx portsrepo.LedgerTx, allocationID, reason, actor string) (*domain.Allocation, error) {
	allocation, pool, err := l.loadForTransition(ctx, tx, allocationID, domain.AllocationCancelled)
	if err != nil {
		return nil, err
	}
	if !accounting.CheckCanConfirm(*pool, allocation.Amount) {
		return nil, &apperrors.InvariantViolationError{
			PoolID: pool.PoolID,
			Detail: fmt.Sprintf("reserved amount %s does not cover allocation %s", pool.ReservedAmount, allocation.AllocationID),
		}
	}

	now := l.Now()
	pool.ReservedAmount = pool.ReservedAmount.Sub(allocation.Amount)
	pool.Touch(actor, now)
	if err := persistPool(ctx, tx, pool); err != nil {
		return nil, err
	}

	allocation.Status = domain.AllocationCancelled
	allocation.Reason = reason
	allocation.CancelledAt = domain.TimePtr(now)
	allocation.Touch(actor, now)
	if err := tx.Allocations().UpdateAllocation(ctx, allocation); err != nil {
		return nil, err
	}

	event := l.newEvent(domain.EventAllocationCancelled, allocation.AllocationID, allocation.Amount, actor)
	event.PoolID, event.RequestID = allocation.PoolID, allocation.RequestID
	event.PaymentID = optionalID(allocation.PaymentID)
	if err := tx.Outbox().AppendEvents(ctx, event); err != nil {
		return nil, err
	}
	return allocation, nil
}

func (l *allocationLedger) refund(ctx context.Context, tx portsrepo.LedgerTx, allocationID, reason, actor string) (*domain.Allocation, error) {
	allocation, pool, err := l.loadForTransition(ctx, tx, allocationID, domain.AllocationRefunded)
	if err != nil {
		return nil, err
	}
	if !accounting.CheckCanRefund(*pool, allocation.Amount) {
		return nil, &apperrors.InvariantViolationError{
			PoolID: pool.PoolID,
			Detail: fmt.Sprintf("spent amount %s does not cover refund of allocation %s", pool.SpentAmount, allocation.AllocationID),
		}
	}

	now := l.Now()
	pool.SpentAmount = pool.SpentAmount.Sub(allocation.Amount)
	pool.Touch(actor, now)
	if err := persistPool(ctx, tx, pool); err != nil {
		return nil, err
	}

	allocation.Status = domain.AllocationRefunded
	allocation.Reason = reason
	allocation.RefundedAt = domain.TimePtr(now)
	allocation.Touch(actor, now)
	if err := tx.Allocations().UpdateAllocation(ctx, allocation); err != nil {
		return nil, err
	}

	event := l.newEvent(domain.EventAllocationRefunded, allocation.AllocationID, allocation.Amount, actor)
	event.PoolID, event.RequestID = allocation.PoolID, allocation.RequestID
	event.PaymentID = optionalID(allocation.PaymentID)
	if err := tx.Outbox().AppendEvents(ctx, event); err != nil {
		return nil, err
	}
	return allocation, nil
}

// allocationService implements the AllocationSvcFacade interface
type allocationService struct {
	allocationLedger
	store    portsrepo.LedgerStore
	strategy ConcurrencyStrategy
}

// ServiceOption configures the ledger services.
type ServiceOption func(*BaseService)

// WithClock overrides the wall clock, for tests and replays.
func WithClock(clock domain.Clock) ServiceOption {
	return func(b *BaseService) {
		b.Clock = clock
	}
}

func newBaseService(options ...ServiceOption) BaseService {
	base := BaseService{Clock: domain.SystemClock{}}
	for _, option := range options {
		option(&base)
	}
	return base
}

// NewAllocationService creates an allocation service running every mutation
// under the given concurrency strategy.
func NewAllocationService(store portsrepo.LedgerStore, strategy ConcurrencyStrategy, options ...ServiceOption) portssvc.AllocationSvcFacade {
	return &allocationService{
		allocationLedger: allocationLedger{BaseService: newBaseService(options...)},
		store:            store,
		strategy:         strategy,
	}
}

var _ portssvc.AllocationSvcFacade = (*allocationService)(nil)

// allocationKeys locks the pool and request an allocation belongs to.
func (s *allocationService) allocationKeys(allocationID string) KeyResolver {
	return func(ctx context.Context) ([]string, error) {
		var keys []string
		err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			a, err := tx.Allocations().FindAllocationByID(ctx, allocationID)
			if err != nil {
				return err
			}
			keys = []string{poolKey(a.PoolID), requestKey(a.RequestID)}
			return nil
		})
		return keys, err
	}
}

func (s *allocationService) Reserve(ctx context.Context, cmd domain.ReserveCommand) (*domain.Allocation, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}

	var result *domain.Allocation
	err := s.strategy.Execute(ctx, staticKeys(poolKey(cmd.PoolID), requestKey(cmd.RequestID)),
		func(ctx context.Context, tx portsrepo.LedgerTx) error {
			request, err := tx.Requests().FindRequestByID(ctx, cmd.RequestID)
			if err != nil {
				return err
			}
			if !request.Status.AcceptsPayments() {
				return &apperrors.InvalidStateTransitionError{
					Entity: "request", ID: request.RequestID, From: string(request.Status), To: "allocated",
				}
			}
			allocation, err := s.reserve(ctx, tx, cmd, "")
			if err != nil {
				return err
			}
			result = allocation
			return nil
		})
	if err != nil {
		s.logFailure(ctx, err, "Failed to reserve allocation",
			slog.String("pool_id", cmd.PoolID),
			slog.String("request_id", cmd.RequestID),
			slog.String("amount", cmd.Amount.String()))
		return nil, err
	}

	s.LogInfo(ctx, "Allocation reserved",
		slog.String("allocation_id", result.AllocationID),
		slog.String("pool_id", result.PoolID),
		slog.String("amount", result.Amount.String()))
	return result, nil
}

// paymentOwnedError refuses a direct move of an allocation that a payment
// created. Those allocations follow their payment's lifecycle only.
func paymentOwnedError(a *domain.Allocation, to domain.AllocationStatus, paymentOp string) error {
	return &apperrors.InvalidStateTransitionError{
		Entity: "allocation",
		ID:     a.AllocationID,
		From:   string(a.Status),
		To:     string(to),
		Hint:   fmt.Sprintf("it belongs to payment %s, use %s on the payment instead", *a.PaymentID, paymentOp),
	}
}

// transition runs one allocation state change under the strategy.
// paymentOp names the payment operation to use when the allocation is owned
// by a payment.
func (s *allocationService) transition(ctx context.Context, allocationID, op string, to domain.AllocationStatus, paymentOp string, fn func(ctx context.Context, tx portsrepo.LedgerTx) (*domain.Allocation, error)) (*domain.Allocation, error) {
	var result *domain.Allocation
	err := s.strategy.Execute(ctx, s.allocationKeys(allocationID), func(ctx context.Context, tx portsrepo.LedgerTx) error {
		current, err := tx.Allocations().FindAllocationByID(ctx, allocationID)
		if err != nil {
			return err
		}
		if current.PaymentID != nil {
			return paymentOwnedError(current, to, paymentOp)
		}
		allocation, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		result = allocation
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Allocation "+op+" failed", slog.String("allocation_id", allocationID))
		return nil, err
	}
	s.LogInfo(ctx, "Allocation "+op+" succeeded",
		slog.String("allocation_id", allocationID),
		slog.String("status", string(result.Status)))
	return result, nil
}

func (s *allocationService) Confirm(ctx context.Context, cmd domain.ConfirmCommand) (*domain.Allocation, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.transition(ctx, cmd.AllocationID, "confirm", domain.AllocationConfirmed, "release or resume", func(ctx context.Context, tx portsrepo.LedgerTx) (*domain.Allocation, error) {
		return s.confirm(ctx, tx, cmd.AllocationID, cmd.Actor)
	})
}

func (s *allocationService) Settle(ctx context.Context, cmd domain.SettleCommand) (*domain.Allocation, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.transition(ctx, cmd.AllocationID, "settle", domain.AllocationPaid, "process", func(ctx context.Context, tx portsrepo.LedgerTx) (*domain.Allocation, error) {
		return s.settle(ctx, tx, cmd.AllocationID, cmd.Actor)
	})
}

func (s *allocationService) Cancel(ctx context.Context, cmd domain.CancelAllocationCommand) (*domain.Allocation, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.transition(ctx, cmd.AllocationID, "cancel", domain.AllocationCancelled, "cancel", func(ctx context.Context, tx portsrepo.LedgerTx) (*domain.Allocation, error) {
		return s.cancel(ctx, tx, cmd.AllocationID, cmd.Reason, cmd.Actor)
	})
}

func (s *allocationService) Refund(ctx context.Context, cmd domain.RefundAllocationCommand) (*domain.Allocation, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.transition(ctx, cmd.AllocationID, "refund", domain.AllocationRefunded, "refund", func(ctx context.Context, tx portsrepo.LedgerTx) (*domain.Allocation, error) {
		return s.refund(ctx, tx, cmd.AllocationID, cmd.Reason, cmd.Actor)
	})
}

func (s *allocationService) GetAllocation(ctx context.Context, allocationID string) (*domain.Allocation, error) {
	var result *domain.Allocation
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		a, err := tx.Allocations().FindAllocationByID(ctx, allocationID)
		result = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *allocationService) ListAllocationsByPool(ctx context.Context, poolID string) ([]domain.Allocation, error) {
	var result []domain.Allocation
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if _, err := tx.Pools().FindPoolByID(ctx, poolID); err != nil {
			return err
		}
		list, err := tx.Allocations().ListAllocationsByPool(ctx, poolID)
		result = list
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
