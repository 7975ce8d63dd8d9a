package services

import (
	"context"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
)

// AllocationReaderSvc defines read operations on allocations.
type AllocationReaderSvc interface {
	GetAllocation(ctx context.Context, allocationID string) (*domain.Allocation, error)
	ListAllocationsByPool(ctx context.Context, poolID string) ([]domain.Allocation, error)
}

// AllocationWriterSvc moves pool funds through the allocation state machine.
type AllocationWriterSvc interface {
	Reserve(ctx context.Context, cmd domain.ReserveCommand) (*domain.Allocation, error)
	Confirm(ctx context.Context, cmd domain.ConfirmCommand) (*domain.Allocation, error)
	Settle(ctx context.Context, cmd domain.SettleCommand) (*domain.Allocation, error)
	Cancel(ctx context.Context, cmd domain.CancelAllocationCommand) (*domain.Allocation, error)
	Refund(ctx context.Context, cmd domain.RefundAllocationCommand) (*domain.Allocation, error)
}

// AllocationSvcFacade combines allocation reads and writes.
type AllocationSvcFacade interface {
	AllocationReaderSvc
	AllocationWriterSvc
}

// PaymentReaderSvc defines read operations on payments.
type PaymentReaderSvc interface {
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListPaymentsByRequest(ctx context.Context, requestID string) ([]domain.Payment, error)
	ListPayments(ctx context.Context, filter portsrepo.PaymentFilter) ([]domain.Payment, *string, error)
}

// PaymentWriterSvc drives the payment lifecycle.
type PaymentWriterSvc interface {
	CreatePayment(ctx context.Context, cmd domain.CreatePaymentCommand) (*domain.Payment, error)
	ProcessPayment(ctx context.Context, cmd domain.ProcessPaymentCommand) (*domain.Payment, error)
	CancelPayment(ctx context.Context, cmd domain.CancelPaymentCommand) (*domain.Payment, error)
	RetryPayment(ctx context.Context, cmd domain.RetryPaymentCommand) (*domain.Payment, error)
	MarkFailed(ctx context.Context, cmd domain.MarkPaymentFailedCommand) (*domain.Payment, error)
	ReleaseScheduledPayment(ctx context.Context, cmd domain.ReleaseScheduledPaymentCommand) (*domain.Payment, error)
	HoldPayment(ctx context.Context, cmd domain.HoldPaymentCommand) (*domain.Payment, error)
	ResumePayment(ctx context.Context, cmd domain.ResumePaymentCommand) (*domain.Payment, error)
	RefundPayment(ctx context.Context, cmd domain.RefundPaymentCommand) (*domain.Payment, error)
}

// PaymentSvcFacade combines payment reads and writes.
type PaymentSvcFacade interface {
	PaymentReaderSvc
	PaymentWriterSvc
}

// TransferSvcFacade moves funds between pools.
type TransferSvcFacade interface {
	Initiate(ctx context.Context, cmd domain.InitiateTransferCommand) (*domain.Transfer, error)
	Approve(ctx context.Context, cmd domain.ApproveTransferCommand) (*domain.Transfer, error)
	Complete(ctx context.Context, cmd domain.CompleteTransferCommand) (*domain.Transfer, error)
	Reject(ctx context.Context, cmd domain.RejectTransferCommand) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error)
	ListTransfersByPool(ctx context.Context, poolID string) ([]domain.PoolTransfer, error)
	// RepairDangling credits the destination of a transfer whose source was
	// debited in an interrupted two-phase completion.
	RepairDangling(ctx context.Context, transferID string) (*domain.Transfer, error)
}

// PoolSvcFacade manages budget pool lifecycle.
type PoolSvcFacade interface {
	CreatePool(ctx context.Context, cmd domain.CreatePoolCommand) (*domain.BudgetPool, error)
	ActivatePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error)
	FreezePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error)
	UnfreezePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error)
	CancelPool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error)
	TopUpPool(ctx context.Context, cmd domain.TopUpPoolCommand) (*domain.BudgetPool, error)
	// ExpirePool moves a pool past its period end to expired.
	ExpirePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error)
	GetPool(ctx context.Context, poolID string) (*domain.BudgetPool, error)
	ListPools(ctx context.Context, filter portsrepo.PoolFilter) ([]domain.BudgetPool, error)
}

// RequestSvcFacade is the boundary with the upstream approval workflow.
type RequestSvcFacade interface {
	SyncApprovedRequest(ctx context.Context, cmd domain.SyncRequestCommand) (*domain.AidRequest, error)
	GetRequest(ctx context.Context, requestID string) (*domain.AidRequest, error)
}

// ReconciliationSvc runs the periodic sweep.
type ReconciliationSvc interface {
	Sweep(ctx context.Context) (*domain.SweepReport, error)
}

// ReportingSvc answers read-only dashboard queries.
type ReportingSvc interface {
	PoolSummary(ctx context.Context, poolID string) (*domain.PoolSummary, error)
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
}

// LedgerDispatcher routes a typed command to the service that owns it.
type LedgerDispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) (any, error)
}

// EventPublisher delivers outbox events to the notification subsystem.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
}
