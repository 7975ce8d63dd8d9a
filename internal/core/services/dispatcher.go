package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
)

// ledgerDispatcher implements the LedgerDispatcher interface
type ledgerDispatcher struct {
	BaseService
	pools       portssvc.PoolSvcFacade
	requests    portssvc.RequestSvcFacade
	allocations portssvc.AllocationSvcFacade
	payments    portssvc.PaymentSvcFacade
	transfers   portssvc.TransferSvcFacade
}

// NewLedgerDispatcher routes typed commands to the services in c.
func NewLedgerDispatcher(c *portssvc.ServiceContainer) portssvc.LedgerDispatcher {
	return &ledgerDispatcher{
		pools:       c.Pool,
		requests:    c.Request,
		allocations: c.Allocation,
		payments:    c.Payment,
		transfers:   c.Transfer,
	}
}

var _ portssvc.LedgerDispatcher = (*ledgerDispatcher)(nil)

func (d *ledgerDispatcher) Dispatch(ctx context.Context, cmd domain.Command) (any, error) {
	if cmd == nil {
		return nil, apperrors.NewValidationError("", "command is required")
	}
	d.LogDebug(ctx, "Dispatching ledger command", slog.String("command", domain.CommandName(cmd)))

	switch c := cmd.(type) {
	case domain.ReserveCommand:
		return d.allocations.Reserve(ctx, c)
	case domain.ConfirmCommand:
		return d.allocations.Confirm(ctx, c)
	case domain.SettleCommand:
		return d.allocations.Settle(ctx, c)
	case domain.CancelAllocationCommand:
		return d.allocations.Cancel(ctx, c)
	case domain.RefundAllocationCommand:
		return d.allocations.Refund(ctx, c)
	case domain.CreatePaymentCommand:
		return d.payments.CreatePayment(ctx, c)
	case domain.ProcessPaymentCommand:
		return d.payments.ProcessPayment(ctx, c)
	case domain.CancelPaymentCommand:
		return d.payments.CancelPayment(ctx, c)
	case domain.RetryPaymentCommand:
		return d.payments.RetryPayment(ctx, c)
	case domain.MarkPaymentFailedCommand:
		return d.payments.MarkFailed(ctx, c)
	case domain.ReleaseScheduledPaymentCommand:
		return d.payments.ReleaseScheduledPayment(ctx, c)
	case domain.HoldPaymentCommand:
		return d.payments.HoldPayment(ctx, c)
	case domain.ResumePaymentCommand:
		return d.payments.ResumePayment(ctx, c)
	case domain.RefundPaymentCommand:
		return d.payments.RefundPayment(ctx, c)
	case domain.InitiateTransferCommand:
		return d.transfers.Initiate(ctx, c)
	case domain.ApproveTransferCommand:
		return d.transfers.Approve(ctx, c)
	case domain.CompleteTransferCommand:
		return d.transfers.Complete(ctx, c)
	case domain.RejectTransferCommand:
		return d.transfers.Reject(ctx, c)
	case domain.CreatePoolCommand:
		return d.pools.CreatePool(ctx, c)
	case domain.TopUpPoolCommand:
		return d.pools.TopUpPool(ctx, c)
	case domain.SyncRequestCommand:
		return d.requests.SyncApprovedRequest(ctx, c)
	}
	return nil, fmt.Errorf("%w: unsupported command %s", apperrors.ErrValidation, domain.CommandName(cmd))
}
