package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/aid_budget_ledger/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite ---
type ReconciliationServiceTestSuite struct {
	suite.Suite
	f   *ledgerFixture
	ctx context.Context
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.f = newLedgerFixture(suite.T(), services.StrategyOptimistic, domain.TransferModeAtomic)
	suite.ctx = context.Background()
}

// --- Test Cases ---

func (suite *ReconciliationServiceTestSuite) TestSweep_ExpiresPoolsPastPeriodEnd() {
	poolID := suite.f.activePool(suite.T(), 1000)
	draft, err := suite.f.pools.CreatePool(suite.ctx, domain.CreatePoolCommand{
		Name: "draft", Department: "social-affairs", FiscalYear: 2024, TotalAmount: dec(10),
		PeriodStart: testPeriodStart, PeriodEnd: testPeriodEnd, Actor: testActor,
	})
	suite.Require().NoError(err)
	suite.f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	suite.f.clock.T = testPeriodEnd.Add(24 * time.Hour)

	report, err := suite.f.reconciliation.Sweep(suite.ctx)

	suite.Require().NoError(err)
	suite.Equal([]string{poolID}, report.ExpiredPools)
	suite.Equal(domain.PoolExpired, suite.f.pool(suite.T(), poolID).Status)
	suite.Equal(domain.PoolDraft, suite.f.pool(suite.T(), draft.PoolID).Status)
	suite.f.publisher.AssertCalled(suite.T(), "Publish", mock.Anything, mock.MatchedBy(func(e domain.DomainEvent) bool {
		return e.Type == domain.EventPoolExpired && e.PoolID == poolID
	}))
}

func (suite *ReconciliationServiceTestSuite) TestSweep_ReportsDriftWithoutCorrecting() {
	poolID := suite.f.activePool(suite.T(), 10000)
	_, err := suite.f.payments.CreatePayment(suite.ctx, cashPayment(suite.f.approvedRequest(suite.T(), 5000), poolID, 2000))
	suite.Require().NoError(err)
	suite.f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	// tamper with the counter behind the ledger's back
	err = suite.f.store.WithinTx(suite.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		p, err := tx.Pools().FindPoolByID(ctx, poolID)
		if err != nil {
			return err
		}
		p.ReservedAmount = dec(2500)
		return tx.Pools().UpdatePool(ctx, p)
	})
	suite.Require().NoError(err)

	report, err := suite.f.reconciliation.Sweep(suite.ctx)

	suite.Require().NoError(err)
	suite.Require().Len(report.Drifts, 1)
	drift := report.Drifts[0]
	suite.Equal(poolID, drift.PoolID)
	suite.Equal("reservedAmount", drift.Field)
	suite.True(drift.Recorded.Equal(dec(2500)))
	suite.True(drift.FromAllocations.Equal(dec(2000)))
	suite.False(drift.InvariantViolated)
	suite.True(suite.f.pool(suite.T(), poolID).ReservedAmount.Equal(dec(2500)))
}

func (suite *ReconciliationServiceTestSuite) TestSweep_ReportsPaymentsOutOfStepWithAllocations() {
	poolID := suite.f.activePool(suite.T(), 10000)
	payment, err := suite.f.payments.CreatePayment(suite.ctx, cashPayment(suite.f.approvedRequest(suite.T(), 5000), poolID, 3000))
	suite.Require().NoError(err)
	_, err = suite.f.payments.ProcessPayment(suite.ctx, domain.ProcessPaymentCommand{PaymentID: payment.PaymentID, Actor: testActor})
	suite.Require().NoError(err)
	suite.f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	report, err := suite.f.reconciliation.Sweep(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(report.Drifts)

	// roll the payment back without touching its allocation
	err = suite.f.store.WithinTx(suite.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		p, err := tx.Payments().FindPaymentByID(ctx, payment.PaymentID)
		if err != nil {
			return err
		}
		p.Status = domain.PaymentProcessing
		p.CompletedAt = nil
		return tx.Payments().UpdatePayment(ctx, p)
	})
	suite.Require().NoError(err)

	report, err = suite.f.reconciliation.Sweep(suite.ctx)

	suite.Require().NoError(err)
	suite.Require().Len(report.Drifts, 1)
	drift := report.Drifts[0]
	suite.Equal(poolID, drift.PoolID)
	suite.Equal("completedPayments", drift.Field)
	suite.True(drift.Recorded.IsZero())
	suite.True(drift.FromAllocations.Equal(dec(3000)))
}

func (suite *ReconciliationServiceTestSuite) TestSweep_RelaysOutboxExactlyOnce() {
	poolID := suite.f.activePool(suite.T(), 10000)
	_, err := suite.f.payments.CreatePayment(suite.ctx, cashPayment(suite.f.approvedRequest(suite.T(), 5000), poolID, 2000))
	suite.Require().NoError(err)
	pending := suite.f.pendingEvents(suite.T())
	suite.Require().Len(pending, 2)

	suite.f.publisher.On("Publish", mock.Anything, mock.AnythingOfType("domain.DomainEvent")).Return(nil).Times(2)

	first, err := suite.f.reconciliation.Sweep(suite.ctx)
	suite.Require().NoError(err)
	second, err := suite.f.reconciliation.Sweep(suite.ctx)
	suite.Require().NoError(err)

	suite.Equal(2, first.PublishedEvents)
	suite.Equal(0, second.PublishedEvents)
	suite.Empty(suite.f.pendingEvents(suite.T()))
	suite.f.publisher.AssertNumberOfCalls(suite.T(), "Publish", 2)
	suite.f.publisher.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestSweep_PublishFailureKeepsEventsPending() {
	poolID := suite.f.activePool(suite.T(), 10000)
	_, err := suite.f.payments.CreatePayment(suite.ctx, cashPayment(suite.f.approvedRequest(suite.T(), 5000), poolID, 2000))
	suite.Require().NoError(err)
	brokerDown := errors.New("broker unavailable")
	suite.f.publisher.On("Publish", mock.Anything, mock.Anything).Return(brokerDown).Once()

	report, err := suite.f.reconciliation.Sweep(suite.ctx)

	suite.ErrorIs(err, brokerDown)
	suite.Equal(0, report.PublishedEvents)
	suite.Len(suite.f.pendingEvents(suite.T()), 2)

	suite.f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Times(2)
	report, err = suite.f.reconciliation.Sweep(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(2, report.PublishedEvents)
}

func (suite *ReconciliationServiceTestSuite) TestScheduler_RunsSweepUntilStopped() {
	suite.f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	poolID := suite.f.activePool(suite.T(), 1000)
	suite.f.clock.T = testPeriodEnd.Add(time.Hour)

	scheduler := services.NewReconciliationScheduler(suite.f.reconciliation, 10*time.Millisecond, nil)
	scheduler.Start()
	suite.Eventually(func() bool {
		pool, err := suite.f.pools.GetPool(suite.ctx, poolID)
		return err == nil && pool.Status == domain.PoolExpired
	}, time.Second, 5*time.Millisecond)
	scheduler.Stop()
	scheduler.Stop()
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
