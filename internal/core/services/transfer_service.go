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

// transferService implements the TransferSvcFacade interface
type transferService struct {
	BaseService
	store    portsrepo.LedgerStore
	strategy ConcurrencyStrategy
	mode     domain.TransferMode
}

// NewTransferService creates a transfer manager. In two_phase mode Complete
// debits the source and credits the destination in separate transactions.
func NewTransferService(store portsrepo.LedgerStore, strategy ConcurrencyStrategy, mode domain.TransferMode, options ...ServiceOption) portssvc.TransferSvcFacade {
	if mode == "" {
		mode = domain.TransferModeAtomic
	}
	return &transferService{
		BaseService: newBaseService(options...),
		store:       store,
		strategy:    strategy,
		mode:        mode,
	}
}

var _ portssvc.TransferSvcFacade = (*transferService)(nil)

func transferTransitionError(t *domain.Transfer, to domain.TransferStatus) error {
	return &apperrors.InvalidStateTransitionError{
		Entity: "transfer",
		ID:     t.TransferID,
		From:   string(t.Status),
		To:     string(to),
	}
}

// transferKeys locks the transfer and its source pool, plus the destination
// when withDestination is set.
func (s *transferService) transferKeys(transferID string, withDestination bool) KeyResolver {
	return func(ctx context.Context) ([]string, error) {
		keys := []string{transferKey(transferID)}
		err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			t, err := tx.Transfers().FindTransferByID(ctx, transferID)
			if err != nil {
				return err
			}
			keys = append(keys, poolKey(t.SourcePoolID))
			if withDestination {
				keys = append(keys, poolKey(t.DestinationPoolID))
			}
			return nil
		})
		return keys, err
	}
}

func (s *transferService) Initiate(ctx context.Context, cmd domain.InitiateTransferCommand) (*domain.Transfer, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}

	var result *domain.Transfer
	err := s.strategy.Execute(ctx, staticKeys(poolKey(cmd.SourcePoolID)), func(ctx context.Context, tx portsrepo.LedgerTx) error {
		source, err := tx.Pools().FindPoolByID(ctx, cmd.SourcePoolID)
		if err != nil {
			return err
		}
		destination, err := tx.Pools().FindPoolByID(ctx, cmd.DestinationPoolID)
		if err != nil {
			return err
		}
		if source.Currency != destination.Currency {
			return apperrors.NewValidationError("destinationPoolID",
				fmt.Sprintf("currency %s does not match source currency %s", destination.Currency, source.Currency))
		}
		if source.Status != domain.PoolActive {
			return &apperrors.PoolNotActiveError{PoolID: source.PoolID, Status: string(source.Status)}
		}

		now := s.Now()
		transfer := domain.Transfer{
			TransferID:        uuid.NewString(),
			SourcePoolID:      cmd.SourcePoolID,
			DestinationPoolID: cmd.DestinationPoolID,
			Amount:            cmd.Amount,
			Reason:            cmd.Reason,
			Status:            domain.TransferPending,
			InitiatedBy:       cmd.Actor,
			AuditFields:       domain.NewAuditFields(cmd.Actor, now),
		}
		if err := tx.Transfers().SaveTransfer(ctx, transfer); err != nil {
			return err
		}
		result = &transfer
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to initiate transfer",
			slog.String("source_pool_id", cmd.SourcePoolID),
			slog.String("destination_pool_id", cmd.DestinationPoolID))
		return nil, err
	}
	s.LogInfo(ctx, "Transfer initiated",
		slog.String("transfer_id", result.TransferID),
		slog.String("amount", result.Amount.String()))
	return result, nil
}

// mutate loads a transfer inside a strategy-managed transaction and hands it to fn.
func (s *transferService) mutate(ctx context.Context, transferID, op string, withDestination bool, fn func(ctx context.Context, tx portsrepo.LedgerTx, t *domain.Transfer) error) (*domain.Transfer, error) {
	var result *domain.Transfer
	err := s.strategy.Execute(ctx, s.transferKeys(transferID, withDestination), func(ctx context.Context, tx portsrepo.LedgerTx) error {
		t, err := tx.Transfers().FindTransferByID(ctx, transferID)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, t); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Transfer "+op+" failed", slog.String("transfer_id", transferID))
		return nil, err
	}
	s.LogInfo(ctx, "Transfer "+op+" succeeded",
		slog.String("transfer_id", result.TransferID),
		slog.String("status", string(result.Status)))
	return result, nil
}

func (s *transferService) Approve(ctx context.Context, cmd domain.ApproveTransferCommand) (*domain.Transfer, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.TransferID, "approval", false, func(ctx context.Context, tx portsrepo.LedgerTx, t *domain.Transfer) error {
		if !t.Status.CanTransitionTo(domain.TransferApproved) {
			return transferTransitionError(t, domain.TransferApproved)
		}
		source, err := tx.Pools().FindPoolForUpdate(ctx, t.SourcePoolID)
		if err != nil {
			return err
		}
		if source.Status != domain.PoolActive {
			return &apperrors.PoolNotActiveError{PoolID: source.PoolID, Status: string(source.Status)}
		}
		if !accounting.CheckCanEarmark(*source, t.Amount) {
			return &apperrors.InsufficientFundsError{
				PoolID:    source.PoolID,
				Requested: t.Amount,
				Available: source.RemainingAmount(),
			}
		}

		now := s.Now()
		source.AllocatedAmount = source.AllocatedAmount.Add(t.Amount)
		source.Touch(cmd.Actor, now)
		if err := persistPool(ctx, tx, source); err != nil {
			return err
		}

		t.Status = domain.TransferApproved
		t.ApprovedBy = domain.StrPtr(cmd.Actor)
		t.Touch(cmd.Actor, now)
		return tx.Transfers().UpdateTransfer(ctx, t)
	})
}

// debitSource releases the earmark and removes the amount from the source total.
func (s *transferService) debitSource(ctx context.Context, tx portsrepo.LedgerTx, t *domain.Transfer, actor string) error {
	source, err := tx.Pools().FindPoolForUpdate(ctx, t.SourcePoolID)
	if err != nil {
		return err
	}
	if !accounting.CheckCanDebit(*source, t.Amount) {
		return &apperrors.InvariantViolationError{
			PoolID: source.PoolID,
			Detail: fmt.Sprintf("earmark %s does not cover transfer %s of %s", source.AllocatedAmount, t.TransferID, t.Amount),
		}
	}

	now := s.Now()
	source.AllocatedAmount = source.AllocatedAmount.Sub(t.Amount)
	source.TotalAmount = source.TotalAmount.Sub(t.Amount)
	source.Touch(actor, now)
	if err := persistPool(ctx, tx, source); err != nil {
		return err
	}
	t.SourceDebitedAt = domain.TimePtr(now)
	return nil
}

// creditDestination adds the amount to the destination and completes the transfer.
func (s *transferService) creditDestination(ctx context.Context, tx portsrepo.LedgerTx, t *domain.Transfer, actor string) error {
	destination, err := tx.Pools().FindPoolForUpdate(ctx, t.DestinationPoolID)
	if err != nil {
		return err
	}
	if destination.Status == domain.PoolCancelled {
		return &apperrors.PoolNotActiveError{PoolID: destination.PoolID, Status: string(destination.Status)}
	}

	now := s.Now()
	destination.TotalAmount = destination.TotalAmount.Add(t.Amount)
	destination.Touch(actor, now)
	if err := persistPool(ctx, tx, destination); err != nil {
		return err
	}

	t.Status = domain.TransferCompleted
	t.DestinationCreditedAt = domain.TimePtr(now)
	t.CompletedAt = domain.TimePtr(now)
	t.Touch(actor, now)
	if err := tx.Transfers().UpdateTransfer(ctx, t); err != nil {
		return err
	}

	event := s.newEvent(domain.EventTransferCompleted, t.TransferID, t.Amount, actor)
	event.PoolID = t.DestinationPoolID
	return tx.Outbox().AppendEvents(ctx, event)
}

// checkNoOtherDangling refuses a debit while the source still has an
// interrupted transfer waiting for its credit.
func checkNoOtherDangling(ctx context.Context, tx portsrepo.LedgerTx, t *domain.Transfer) error {
	dangling, err := tx.Transfers().ListDanglingTransfers(ctx)
	if err != nil {
		return err
	}
	for _, d := range dangling {
		if d.SourcePoolID == t.SourcePoolID && d.TransferID != t.TransferID {
			return fmt.Errorf("%w: pool %s, transfer %s", apperrors.ErrDanglingTransferOnSource, d.SourcePoolID, d.TransferID)
		}
	}
	return nil
}

func (s *transferService) Complete(ctx context.Context, cmd domain.CompleteTransferCommand) (*domain.Transfer, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}

	if s.mode == domain.TransferModeTwoPhase {
		debited, err := s.mutate(ctx, cmd.TransferID, "debit", false, func(ctx context.Context, tx portsrepo.LedgerTx, t *domain.Transfer) error {
			if t.Status != domain.TransferApproved {
				return transferTransitionError(t, domain.TransferCompleted)
			}
			if t.SourceDebitedAt != nil {
				return nil
			}
			if err := checkNoOtherDangling(ctx, tx, t); err != nil {
				return err
			}
			if err := s.debitSource(ctx, tx, t, cmd.Actor); err != nil {
				return err
			}
			t.Touch(cmd.Actor, s.Now())
			return tx.Transfers().UpdateTransfer(ctx, t)
		})
		if err != nil {
			return nil, err
		}
		// If the credit fails the transfer stays debited and the sweep finishes it.
		return s.RepairDangling(ctx, debited.TransferID)
	}

	return s.mutate(ctx, cmd.TransferID, "completion", true, func(ctx context.Context, tx portsrepo.LedgerTx, t *domain.Transfer) error {
		if !t.Status.CanTransitionTo(domain.TransferCompleted) {
			return transferTransitionError(t, domain.TransferCompleted)
		}
		if t.SourceDebitedAt == nil {
			if err := s.debitSource(ctx, tx, t, cmd.Actor); err != nil {
				return err
			}
		}
		return s.creditDestination(ctx, tx, t, cmd.Actor)
	})
}

func (s *transferService) RepairDangling(ctx context.Context, transferID string) (*domain.Transfer, error) {
	return s.mutate(ctx, transferID, "credit", true, func(ctx context.Context, tx portsrepo.LedgerTx, t *domain.Transfer) error {
		if !t.IsDangling() {
			return transferTransitionError(t, domain.TransferCompleted)
		}
		return s.creditDestination(ctx, tx, t, t.InitiatedBy)
	})
}

func (s *transferService) Reject(ctx context.Context, cmd domain.RejectTransferCommand) (*domain.Transfer, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.TransferID, "rejection", false, func(ctx context.Context, tx portsrepo.LedgerTx, t *domain.Transfer) error {
		// a debited transfer can only move forward
		if !t.Status.CanTransitionTo(domain.TransferRejected) || t.SourceDebitedAt != nil {
			return transferTransitionError(t, domain.TransferRejected)
		}

		now := s.Now()
		if t.Status == domain.TransferApproved {
			source, err := tx.Pools().FindPoolForUpdate(ctx, t.SourcePoolID)
			if err != nil {
				return err
			}
			source.AllocatedAmount = source.AllocatedAmount.Sub(t.Amount)
			source.Touch(cmd.Actor, now)
			if err := persistPool(ctx, tx, source); err != nil {
				return err
			}
		}

		t.Status = domain.TransferRejected
		t.RejectionReason = cmd.Reason
		t.RejectedAt = domain.TimePtr(now)
		t.Touch(cmd.Actor, now)
		return tx.Transfers().UpdateTransfer(ctx, t)
	})
}

func (s *transferService) GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error) {
	var result *domain.Transfer
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		t, err := tx.Transfers().FindTransferByID(ctx, transferID)
		result = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *transferService) ListTransfersByPool(ctx context.Context, poolID string) ([]domain.PoolTransfer, error) {
	var transfers []domain.Transfer
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if _, err := tx.Pools().FindPoolByID(ctx, poolID); err != nil {
			return err
		}
		list, err := tx.Transfers().ListTransfersByPool(ctx, poolID)
		transfers = list
		return err
	})
	if err != nil {
		return nil, err
	}

	result := make([]domain.PoolTransfer, 0, len(transfers))
	for _, t := range transfers {
		result = append(result, domain.PoolTransfer{Transfer: t, Direction: t.DirectionFor(poolID)})
	}
	return result, nil
}
