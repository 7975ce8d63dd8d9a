package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// requestService implements the RequestSvcFacade interface
type requestService struct {
	BaseService
	store    portsrepo.LedgerStore
	strategy ConcurrencyStrategy
}

// NewRequestService creates the service that mirrors approved aid requests into the ledger.
func NewRequestService(store portsrepo.LedgerStore, strategy ConcurrencyStrategy, options ...ServiceOption) portssvc.RequestSvcFacade {
	return &requestService{
		BaseService: newBaseService(options...),
		store:       store,
		strategy:    strategy,
	}
}

var _ portssvc.RequestSvcFacade = (*requestService)(nil)

// SyncApprovedRequest inserts a newly approved request or updates the amounts
// of a known one. The paid amount is always recomputed from completed payments.
func (s *requestService) SyncApprovedRequest(ctx context.Context, cmd domain.SyncRequestCommand) (*domain.AidRequest, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}

	var (
		result  *domain.AidRequest
		created bool
	)
	err := s.strategy.Execute(ctx, staticKeys(requestKey(cmd.RequestID)), func(ctx context.Context, tx portsrepo.LedgerTx) error {
		now := s.Now()
		paid, err := tx.Payments().SumCompletedPayments(ctx, cmd.RequestID)
		if err != nil {
			return err
		}
		if cmd.ApprovedAmount.LessThan(paid) {
			return apperrors.NewValidationError("approvedAmount", "cannot be lower than the amount already paid ("+paid.String()+")")
		}

		existing, err := tx.Requests().FindRequestByID(ctx, cmd.RequestID)
		if err != nil {
			if !isNotFound(err) {
				return err
			}
			request := domain.AidRequest{
				RequestID:       cmd.RequestID,
				BeneficiaryID:   cmd.BeneficiaryID,
				Reference:       cmd.Reference,
				RequestedAmount: cmd.RequestedAmount,
				ApprovedAmount:  cmd.ApprovedAmount,
				PaidAmount:      decimal.Zero,
				Status:          domain.RequestApproved,
				AuditFields:     domain.NewAuditFields(cmd.Actor, now),
			}
			if err := tx.Requests().SaveRequest(ctx, request); err != nil {
				return err
			}
			result, created = &request, true
			return nil
		}

		if existing.Status == domain.RequestCancelled {
			return &apperrors.InvalidStateTransitionError{
				Entity: "request", ID: existing.RequestID, From: string(existing.Status), To: string(domain.RequestApproved),
			}
		}
		existing.BeneficiaryID = cmd.BeneficiaryID
		existing.Reference = cmd.Reference
		existing.RequestedAmount = cmd.RequestedAmount
		existing.ApprovedAmount = cmd.ApprovedAmount
		applyPaidAmount(existing, paid)
		existing.Touch(cmd.Actor, now)
		if err := tx.Requests().UpdateRequest(ctx, existing); err != nil {
			return err
		}
		result = existing
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to sync approved request", slog.String("request_id", cmd.RequestID))
		return nil, err
	}

	s.LogInfo(ctx, "Approved request synced",
		slog.String("request_id", result.RequestID),
		slog.Bool("created", created),
		slog.String("approved_amount", result.ApprovedAmount.String()),
		slog.String("status", string(result.Status)))
	return result, nil
}

func (s *requestService) GetRequest(ctx context.Context, requestID string) (*domain.AidRequest, error) {
	var result *domain.AidRequest
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		r, err := tx.Requests().FindRequestByID(ctx, requestID)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
