package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/adapters/lock"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/core/services"
	"github.com/SscSPs/aid_budget_ledger/internal/repositories/database/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testActor = "officer-1"

var (
	testNow         = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	testPeriodStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testPeriodEnd   = time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// --- Mock EventPublisher ---
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// interruptingStrategy fails the Nth Execute call without running it.
type interruptingStrategy struct {
	services.ConcurrencyStrategy
	mu     sync.Mutex
	calls  int
	failOn int
}

var errInterrupted = errors.New("process interrupted")

func (s *interruptingStrategy) Execute(ctx context.Context, resolve services.KeyResolver, fn services.TxFunc) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls == s.failOn
	s.mu.Unlock()
	if fail {
		return errInterrupted
	}
	return s.ConcurrencyStrategy.Execute(ctx, resolve, fn)
}

// ledgerFixture wires every ledger service over one in-memory store.
type ledgerFixture struct {
	store          *memory.Store
	clock          *domain.FixedClock
	strategy       services.ConcurrencyStrategy
	pools          portssvc.PoolSvcFacade
	requests       portssvc.RequestSvcFacade
	allocations    portssvc.AllocationSvcFacade
	payments       portssvc.PaymentSvcFacade
	transfers      portssvc.TransferSvcFacade
	reporting      portssvc.ReportingSvc
	reconciliation portssvc.ReconciliationSvc
	publisher      *MockEventPublisher
}

func newLedgerFixture(t *testing.T, strategyName string, mode domain.TransferMode) *ledgerFixture {
	t.Helper()
	store := memory.NewStore()
	strategy, err := services.NewConcurrencyStrategy(strategyName, store, lock.NewKeyedMutexLocker(), 10)
	require.NoError(t, err)
	return newLedgerFixtureWith(store, strategy, mode)
}

func newLedgerFixtureWith(store *memory.Store, strategy services.ConcurrencyStrategy, mode domain.TransferMode) *ledgerFixture {
	clock := &domain.FixedClock{T: testNow}
	opts := []services.ServiceOption{services.WithClock(clock)}
	f := &ledgerFixture{
		store:     store,
		clock:     clock,
		strategy:  strategy,
		publisher: new(MockEventPublisher),
	}
	f.pools = services.NewPoolService(store, strategy, "TND", opts...)
	f.requests = services.NewRequestService(store, strategy, opts...)
	f.allocations = services.NewAllocationService(store, strategy, opts...)
	f.payments = services.NewPaymentService(store, strategy, "TND", opts...)
	f.transfers = services.NewTransferService(store, strategy, mode, opts...)
	f.reporting = services.NewReportingService(store, opts...)
	f.reconciliation = services.NewReconciliationService(store, f.pools, f.transfers, f.publisher, opts...)
	return f
}

// activePool creates and activates a pool holding total.
func (f *ledgerFixture) activePool(t *testing.T, total int64) string {
	t.Helper()
	ctx := context.Background()
	pool, err := f.pools.CreatePool(ctx, domain.CreatePoolCommand{
		Name:        "Emergency relief " + uuid.NewString()[:8],
		Department:  "social-affairs",
		FiscalYear:  2024,
		Currency:    "TND",
		TotalAmount: dec(total),
		PeriodStart: testPeriodStart,
		PeriodEnd:   testPeriodEnd,
		Actor:       testActor,
	})
	require.NoError(t, err)
	_, err = f.pools.ActivatePool(ctx, pool.PoolID, testActor)
	require.NoError(t, err)
	return pool.PoolID
}

// approvedRequest syncs a request approved for approved.
func (f *ledgerFixture) approvedRequest(t *testing.T, approved int64) string {
	t.Helper()
	req, err := f.requests.SyncApprovedRequest(context.Background(), domain.SyncRequestCommand{
		RequestID:       uuid.NewString(),
		BeneficiaryID:   uuid.NewString(),
		Reference:       "DEM-2024-001",
		RequestedAmount: dec(approved),
		ApprovedAmount:  dec(approved),
		Actor:           testActor,
	})
	require.NoError(t, err)
	return req.RequestID
}

func (f *ledgerFixture) pool(t *testing.T, poolID string) *domain.BudgetPool {
	t.Helper()
	pool, err := f.pools.GetPool(context.Background(), poolID)
	require.NoError(t, err)
	return pool
}

func (f *ledgerFixture) request(t *testing.T, requestID string) *domain.AidRequest {
	t.Helper()
	req, err := f.requests.GetRequest(context.Background(), requestID)
	require.NoError(t, err)
	return req
}

func (f *ledgerFixture) pendingEvents(t *testing.T) []domain.DomainEvent {
	t.Helper()
	var events []domain.DomainEvent
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx portsrepo.LedgerTx) error {
		list, err := tx.Outbox().ListPendingEvents(ctx, 1000)
		events = list
		return err
	})
	require.NoError(t, err)
	return events
}

func cashPayment(requestID, poolID string, amount int64) domain.CreatePaymentCommand {
	return domain.CreatePaymentCommand{
		RequestID: requestID,
		PoolID:    poolID,
		Amount:    dec(amount),
		Method:    domain.MethodCash,
		Actor:     testActor,
	}
}
