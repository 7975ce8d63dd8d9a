package handlers_test

import (
	"context"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/stretchr/testify/mock"
)

// --- Mock LedgerDispatcher ---
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, cmd domain.Command) (any, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0), args.Error(1)
}

var _ portssvc.LedgerDispatcher = (*MockDispatcher)(nil)

// --- Mock PoolService ---
type MockPoolService struct {
	mock.Mock
}

func (m *MockPoolService) pool(args mock.Arguments) (*domain.BudgetPool, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BudgetPool), args.Error(1)
}

func (m *MockPoolService) CreatePool(ctx context.Context, cmd domain.CreatePoolCommand) (*domain.BudgetPool, error) {
	return m.pool(m.Called(ctx, cmd))
}
func (m *MockPoolService) ActivatePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error) {
	return m.pool(m.Called(ctx, poolID, actor))
}
func (m *MockPoolService) FreezePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error) {
	return m.pool(m.Called(ctx, poolID, actor))
}
func (m *MockPoolService) UnfreezePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error) {
	return m.pool(m.Called(ctx, poolID, actor))
}
func (m *MockPoolService) CancelPool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error) {
	return m.pool(m.Called(ctx, poolID, actor))
}
func (m *MockPoolService) TopUpPool(ctx context.Context, cmd domain.TopUpPoolCommand) (*domain.BudgetPool, error) {
	return m.pool(m.Called(ctx, cmd))
}
func (m *MockPoolService) ExpirePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error) {
	return m.pool(m.Called(ctx, poolID, actor))
}
func (m *MockPoolService) GetPool(ctx context.Context, poolID string) (*domain.BudgetPool, error) {
	return m.pool(m.Called(ctx, poolID))
}
func (m *MockPoolService) ListPools(ctx context.Context, filter portsrepo.PoolFilter) ([]domain.BudgetPool, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BudgetPool), args.Error(1)
}

var _ portssvc.PoolSvcFacade = (*MockPoolService)(nil)

// --- Mock PaymentService ---
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) payment(args mock.Arguments) (*domain.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, paymentID))
}
func (m *MockPaymentService) ListPaymentsByRequest(ctx context.Context, requestID string) ([]domain.Payment, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentService) ListPayments(ctx context.Context, filter portsrepo.PaymentFilter) ([]domain.Payment, *string, error) {
	args := m.Called(ctx, filter)
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, next, args.Error(2)
	}
	return args.Get(0).([]domain.Payment), next, args.Error(2)
}
func (m *MockPaymentService) CreatePayment(ctx context.Context, cmd domain.CreatePaymentCommand) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, cmd))
}
func (m *MockPaymentService) ProcessPayment(ctx context.Context, cmd domain.ProcessPaymentCommand) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, cmd))
}
func (m *MockPaymentService) CancelPayment(ctx context.Context, cmd domain.CancelPaymentCommand) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, cmd))
}
func (m *MockPaymentService) RetryPayment(ctx context.Context, cmd domain.RetryPaymentCommand) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, cmd))
}
func (m *MockPaymentService) MarkFailed(ctx context.Context, cmd domain.MarkPaymentFailedCommand) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, cmd))
}
func (m *MockPaymentService) ReleaseScheduledPayment(ctx context.Context, cmd domain.ReleaseScheduledPaymentCommand) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, cmd))
}
func (m *MockPaymentService) HoldPayment(ctx context.Context, cmd domain.HoldPaymentCommand) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, cmd))
}
func (m *MockPaymentService) ResumePayment(ctx context.Context, cmd domain.ResumePaymentCommand) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, cmd))
}
func (m *MockPaymentService) RefundPayment(ctx context.Context, cmd domain.RefundPaymentCommand) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, cmd))
}

var _ portssvc.PaymentSvcFacade = (*MockPaymentService)(nil)

// --- Mock Reporting and Reconciliation ---
type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) PoolSummary(ctx context.Context, poolID string) (*domain.PoolSummary, error) {
	args := m.Called(ctx, poolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PoolSummary), args.Error(1)
}
func (m *MockReportingService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

var _ portssvc.ReportingSvc = (*MockReportingService)(nil)

type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) Sweep(ctx context.Context) (*domain.SweepReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepReport), args.Error(1)
}

var _ portssvc.ReconciliationSvc = (*MockReconciliationService)(nil)
