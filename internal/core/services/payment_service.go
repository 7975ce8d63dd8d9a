package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/fees"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for payments without a pool or explicit currency.
const DefaultCurrency = "TND"

// paymentService implements the PaymentSvcFacade interface
type paymentService struct {
	allocationLedger
	store           portsrepo.LedgerStore
	strategy        ConcurrencyStrategy
	defaultCurrency string
}

// NewPaymentService creates a payment settlement engine. Pool funds move
// through the same allocation rules as the allocation service.
func NewPaymentService(store portsrepo.LedgerStore, strategy ConcurrencyStrategy, defaultCurrency string, options ...ServiceOption) portssvc.PaymentSvcFacade {
	if defaultCurrency == "" {
		defaultCurrency = DefaultCurrency
	}
	return &paymentService{
		allocationLedger: allocationLedger{BaseService: newBaseService(options...)},
		store:            store,
		strategy:         strategy,
		defaultCurrency:  strings.ToUpper(defaultCurrency),
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

func paymentTransitionError(p *domain.Payment, to domain.PaymentStatus) error {
	return &apperrors.InvalidStateTransitionError{
		Entity: "payment",
		ID:     p.PaymentID,
		From:   string(p.Status),
		To:     string(to),
	}
}

// paymentKeys locks a payment together with its request and pool.
func (s *paymentService) paymentKeys(paymentID string) KeyResolver {
	return func(ctx context.Context) ([]string, error) {
		keys := []string{paymentKey(paymentID)}
		err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			p, err := tx.Payments().FindPaymentByID(ctx, paymentID)
			if err != nil {
				return err
			}
			keys = append(keys, requestKey(p.RequestID))
			if p.PoolID != nil {
				keys = append(keys, poolKey(*p.PoolID))
			}
			return nil
		})
		return keys, err
	}
}

// recomputeRequest sets the request's paid amount to the sum of its completed
// payments and derives its status from it.
func (s *paymentService) recomputeRequest(ctx context.Context, tx portsrepo.LedgerTx, requestID, actor string) (*domain.AidRequest, error) {
	request, err := tx.Requests().FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	paid, err := tx.Payments().SumCompletedPayments(ctx, requestID)
	if err != nil {
		return nil, err
	}
	applyPaidAmount(request, paid)
	request.Touch(actor, s.Now())
	if err := tx.Requests().UpdateRequest(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// applyPaidAmount records the sum of completed payments on a request and
// derives its status from it. Every status change driven by amounts goes
// through here.
func applyPaidAmount(request *domain.AidRequest, paid decimal.Decimal) {
	request.PaidAmount = paid
	if request.Status != domain.RequestCancelled {
		request.Status = domain.DeriveRequestStatus(paid, request.ApprovedAmount)
	}
}

// confirmIfReserved confirms the payment's allocation when it is still only reserved.
func (s *paymentService) confirmIfReserved(ctx context.Context, tx portsrepo.LedgerTx, p *domain.Payment, actor string) error {
	if !p.HasAllocation() {
		return nil
	}
	allocation, err := tx.Allocations().FindAllocationByID(ctx, *p.AllocationID)
	if err != nil {
		return err
	}
	if allocation.Status != domain.AllocationReserved {
		return nil
	}
	_, err = s.confirm(ctx, tx, allocation.AllocationID, actor)
	return err
}

func (s *paymentService) appendPaymentEvent(ctx context.Context, tx portsrepo.LedgerTx, eventType domain.EventType, p *domain.Payment, actor string) error {
	event := s.newEvent(eventType, p.PaymentID, p.Amount, actor)
	event.PaymentID = p.PaymentID
	event.RequestID = p.RequestID
	event.PoolID = optionalID(p.PoolID)
	return tx.Outbox().AppendEvents(ctx, event)
}

func (s *paymentService) CreatePayment(ctx context.Context, cmd domain.CreatePaymentCommand) (*domain.Payment, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	if missing := cmd.Details.MissingFor(cmd.Method); missing != "" {
		return nil, apperrors.NewValidationError("details."+missing, "is required for "+string(cmd.Method)+" payments")
	}

	now := s.Now()
	if cmd.ScheduledDate != nil && cmd.ScheduledDate.Before(now) {
		return nil, &apperrors.InvalidScheduleError{Reason: "scheduled date " + cmd.ScheduledDate.Format(time.RFC3339) + " is in the past"}
	}
	scheduled := cmd.ScheduledDate != nil && cmd.ScheduledDate.After(now)

	paymentFees, warning := fees.ComputeFees(cmd.Amount, cmd.Method)
	if warning != nil {
		s.LogWarn(ctx, "Fee schedule has no entry for payment method",
			slog.String("method", string(cmd.Method)),
			slog.String("warning", warning.Error()))
	}

	keys := []string{requestKey(cmd.RequestID)}
	if cmd.PoolID != "" {
		keys = append(keys, poolKey(cmd.PoolID))
	}

	var result *domain.Payment
	err := s.strategy.Execute(ctx, staticKeys(keys...), func(ctx context.Context, tx portsrepo.LedgerTx) error {
		request, err := tx.Requests().FindRequestByID(ctx, cmd.RequestID)
		if err != nil {
			return err
		}
		if !request.Status.AcceptsPayments() {
			return &apperrors.InvalidStateTransitionError{
				Entity: "request", ID: request.RequestID, From: string(request.Status), To: "payment",
			}
		}
		if outstanding := request.OutstandingAmount(); cmd.Amount.GreaterThan(outstanding) {
			return &apperrors.ExceedsApprovedAmountError{
				RequestID:   request.RequestID,
				Requested:   cmd.Amount,
				Outstanding: outstanding,
			}
		}

		payment := domain.Payment{
			PaymentID:   uuid.NewString(),
			RequestID:   cmd.RequestID,
			Amount:      cmd.Amount,
			Currency:    strings.ToUpper(cmd.Currency),
			Method:      cmd.Method,
			Details:     cmd.Details,
			Status:      domain.PaymentProcessing,
			Fees:        paymentFees,
			AuditFields: domain.NewAuditFields(cmd.Actor, now),
		}
		if scheduled {
			payment.Status = domain.PaymentPending
			payment.ScheduledDate = domain.TimePtr(cmd.ScheduledDate.UTC())
		}

		if cmd.PoolID != "" {
			pool, err := tx.Pools().FindPoolByID(ctx, cmd.PoolID)
			if err != nil {
				return err
			}
			if payment.Currency == "" {
				payment.Currency = pool.Currency
			} else if payment.Currency != pool.Currency {
				return apperrors.NewValidationError("currency", "must match pool currency "+pool.Currency)
			}

			allocation, err := s.reserve(ctx, tx, domain.ReserveCommand{
				PoolID:    cmd.PoolID,
				RequestID: cmd.RequestID,
				Amount:    cmd.Amount,
				Actor:     cmd.Actor,
			}, payment.PaymentID)
			if err != nil {
				return err
			}
			if !scheduled {
				if _, err := s.confirm(ctx, tx, allocation.AllocationID, cmd.Actor); err != nil {
					return err
				}
			}
			payment.PoolID = domain.StrPtr(cmd.PoolID)
			payment.AllocationID = domain.StrPtr(allocation.AllocationID)
		}
		if payment.Currency == "" {
			payment.Currency = s.defaultCurrency
		}

		if err := tx.Payments().SavePayment(ctx, payment); err != nil {
			return err
		}
		if err := s.appendPaymentEvent(ctx, tx, domain.EventPaymentCreated, &payment, cmd.Actor); err != nil {
			return err
		}
		result = &payment
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to create payment",
			slog.String("request_id", cmd.RequestID),
			slog.String("pool_id", cmd.PoolID),
			slog.String("amount", cmd.Amount.String()))
		return nil, err
	}

	s.LogInfo(ctx, "Payment created",
		slog.String("payment_id", result.PaymentID),
		slog.String("request_id", result.RequestID),
		slog.String("status", string(result.Status)),
		slog.String("total_fees", result.Fees.TotalFees.String()))
	return result, nil
}

// mutate loads a payment inside a strategy-managed transaction and hands it to fn.
func (s *paymentService) mutate(ctx context.Context, paymentID, op string, fn func(ctx context.Context, tx portsrepo.LedgerTx, p *domain.Payment) error) (*domain.Payment, error) {
	var result *domain.Payment
	err := s.strategy.Execute(ctx, s.paymentKeys(paymentID), func(ctx context.Context, tx portsrepo.LedgerTx) error {
		p, err := tx.Payments().FindPaymentByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Payment "+op+" failed", slog.String("payment_id", paymentID))
		return nil, err
	}
	s.LogInfo(ctx, "Payment "+op+" succeeded",
		slog.String("payment_id", result.PaymentID),
		slog.String("status", string(result.Status)))
	return result, nil
}

func (s *paymentService) ProcessPayment(ctx context.Context, cmd domain.ProcessPaymentCommand) (*domain.Payment, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.PaymentID, "process", func(ctx context.Context, tx portsrepo.LedgerTx, p *domain.Payment) error {
		if p.Status != domain.PaymentProcessing {
			return paymentTransitionError(p, domain.PaymentCompleted)
		}

		request, err := tx.Requests().FindRequestByID(ctx, p.RequestID)
		if err != nil {
			return err
		}
		paid, err := tx.Payments().SumCompletedPayments(ctx, p.RequestID)
		if err != nil {
			return err
		}
		if paid.Add(p.Amount).GreaterThan(request.ApprovedAmount) {
			return &apperrors.ExceedsApprovedAmountError{
				RequestID:   p.RequestID,
				Requested:   p.Amount,
				Outstanding: request.ApprovedAmount.Sub(paid),
			}
		}

		if p.HasAllocation() {
			if _, err := s.settle(ctx, tx, *p.AllocationID, cmd.Actor); err != nil {
				return err
			}
		}

		now := s.Now()
		p.Status = domain.PaymentCompleted
		p.CompletedAt = domain.TimePtr(now)
		if cmd.TransactionID != "" {
			p.TransactionID = domain.StrPtr(cmd.TransactionID)
		}
		p.Touch(cmd.Actor, now)
		if err := tx.Payments().UpdatePayment(ctx, p); err != nil {
			return err
		}
		if _, err := s.recomputeRequest(ctx, tx, p.RequestID, cmd.Actor); err != nil {
			return err
		}
		return s.appendPaymentEvent(ctx, tx, domain.EventPaymentCompleted, p, cmd.Actor)
	})
}

func (s *paymentService) CancelPayment(ctx context.Context, cmd domain.CancelPaymentCommand) (*domain.Payment, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.PaymentID, "cancel", func(ctx context.Context, tx portsrepo.LedgerTx, p *domain.Payment) error {
		if !p.Status.CanTransitionTo(domain.PaymentCancelled) {
			return paymentTransitionError(p, domain.PaymentCancelled)
		}

		if p.HasAllocation() {
			allocation, err := tx.Allocations().FindAllocationByID(ctx, *p.AllocationID)
			if err != nil {
				return err
			}
			if allocation.Status.HoldsReservation() {
				if _, err := s.cancel(ctx, tx, allocation.AllocationID, cmd.Reason, cmd.Actor); err != nil {
					return err
				}
			}
		}

		now := s.Now()
		p.Status = domain.PaymentCancelled
		p.CancelledAt = domain.TimePtr(now)
		p.CancellationReason = cmd.Reason
		p.Touch(cmd.Actor, now)
		if err := tx.Payments().UpdatePayment(ctx, p); err != nil {
			return err
		}
		if _, err := s.recomputeRequest(ctx, tx, p.RequestID, cmd.Actor); err != nil {
			return err
		}
		return s.appendPaymentEvent(ctx, tx, domain.EventPaymentCancelled, p, cmd.Actor)
	})
}

func (s *paymentService) RetryPayment(ctx context.Context, cmd domain.RetryPaymentCommand) (*domain.Payment, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.PaymentID, "retry", func(ctx context.Context, tx portsrepo.LedgerTx, p *domain.Payment) error {
		if p.Status != domain.PaymentFailed {
			return paymentTransitionError(p, domain.PaymentProcessing)
		}
		if p.ErrorDetails.RetryCount >= domain.MaxPaymentRetries {
			return &apperrors.RetryLimitExceededError{
				PaymentID:  p.PaymentID,
				RetryCount: p.ErrorDetails.RetryCount,
				MaxRetries: domain.MaxPaymentRetries,
			}
		}

		p.ErrorDetails.RetryCount++
		p.Status = domain.PaymentProcessing
		p.Touch(cmd.Actor, s.Now())
		return tx.Payments().UpdatePayment(ctx, p)
	})
}

func (s *paymentService) MarkFailed(ctx context.Context, cmd domain.MarkPaymentFailedCommand) (*domain.Payment, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.PaymentID, "failure", func(ctx context.Context, tx portsrepo.LedgerTx, p *domain.Payment) error {
		if p.Status != domain.PaymentProcessing {
			return paymentTransitionError(p, domain.PaymentFailed)
		}

		now := s.Now()
		p.Status = domain.PaymentFailed
		p.ErrorDetails.Code = cmd.Code
		p.ErrorDetails.Message = cmd.Message
		p.ErrorDetails.LastFailedAt = domain.TimePtr(now)
		p.Touch(cmd.Actor, now)
		if err := tx.Payments().UpdatePayment(ctx, p); err != nil {
			return err
		}
		return s.appendPaymentEvent(ctx, tx, domain.EventPaymentFailed, p, cmd.Actor)
	})
}

func (s *paymentService) ReleaseScheduledPayment(ctx context.Context, cmd domain.ReleaseScheduledPaymentCommand) (*domain.Payment, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.PaymentID, "release", func(ctx context.Context, tx portsrepo.LedgerTx, p *domain.Payment) error {
		if p.Status != domain.PaymentPending {
			return paymentTransitionError(p, domain.PaymentProcessing)
		}
		now := s.Now()
		if p.IsScheduledAfter(now) {
			return &apperrors.InvalidScheduleError{Reason: "payment is not due until " + p.ScheduledDate.Format(time.RFC3339)}
		}
		if err := s.confirmIfReserved(ctx, tx, p, cmd.Actor); err != nil {
			return err
		}
		p.Status = domain.PaymentProcessing
		p.Touch(cmd.Actor, now)
		return tx.Payments().UpdatePayment(ctx, p)
	})
}

func (s *paymentService) HoldPayment(ctx context.Context, cmd domain.HoldPaymentCommand) (*domain.Payment, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.PaymentID, "hold", func(ctx context.Context, tx portsrepo.LedgerTx, p *domain.Payment) error {
		if !p.Status.CanTransitionTo(domain.PaymentOnHold) {
			return paymentTransitionError(p, domain.PaymentOnHold)
		}
		p.Status = domain.PaymentOnHold
		p.HoldReason = cmd.Reason
		p.Touch(cmd.Actor, s.Now())
		return tx.Payments().UpdatePayment(ctx, p)
	})
}

func (s *paymentService) ResumePayment(ctx context.Context, cmd domain.ResumePaymentCommand) (*domain.Payment, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.PaymentID, "resume", func(ctx context.Context, tx portsrepo.LedgerTx, p *domain.Payment) error {
		if p.Status != domain.PaymentOnHold {
			return paymentTransitionError(p, domain.PaymentProcessing)
		}
		now := s.Now()
		if p.IsScheduledAfter(now) {
			p.Status = domain.PaymentPending
		} else {
			if err := s.confirmIfReserved(ctx, tx, p, cmd.Actor); err != nil {
				return err
			}
			p.Status = domain.PaymentProcessing
		}
		p.HoldReason = ""
		p.Touch(cmd.Actor, now)
		return tx.Payments().UpdatePayment(ctx, p)
	})
}

func (s *paymentService) RefundPayment(ctx context.Context, cmd domain.RefundPaymentCommand) (*domain.Payment, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.PaymentID, "refund", func(ctx context.Context, tx portsrepo.LedgerTx, p *domain.Payment) error {
		if !p.Status.CanTransitionTo(domain.PaymentRefunded) {
			return paymentTransitionError(p, domain.PaymentRefunded)
		}
		if p.HasAllocation() {
			if _, err := s.refund(ctx, tx, *p.AllocationID, cmd.Reason, cmd.Actor); err != nil {
				return err
			}
		}

		p.Status = domain.PaymentRefunded
		p.CancellationReason = cmd.Reason
		p.Touch(cmd.Actor, s.Now())
		if err := tx.Payments().UpdatePayment(ctx, p); err != nil {
			return err
		}
		if _, err := s.recomputeRequest(ctx, tx, p.RequestID, cmd.Actor); err != nil {
			return err
		}
		return s.appendPaymentEvent(ctx, tx, domain.EventPaymentRefunded, p, cmd.Actor)
	})
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var result *domain.Payment
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		p, err := tx.Payments().FindPaymentByID(ctx, paymentID)
		result = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *paymentService) ListPaymentsByRequest(ctx context.Context, requestID string) ([]domain.Payment, error) {
	var result []domain.Payment
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		list, err := tx.Payments().ListPaymentsByRequest(ctx, requestID)
		result = list
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *paymentService) ListPayments(ctx context.Context, filter portsrepo.PaymentFilter) ([]domain.Payment, *string, error) {
	var (
		result []domain.Payment
		next   *string
	)
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		list, token, err := tx.Payments().ListPayments(ctx, filter)
		result, next = list, token
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list payments", slog.String("status", string(filter.Status)))
		return nil, nil, err
	}
	return result, next, nil
}
