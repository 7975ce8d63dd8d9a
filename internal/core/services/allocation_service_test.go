package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/SscSPs/aid_budget_ledger/internal/core/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

// --- Test Suite ---
type AllocationServiceTestSuite struct {
	suite.Suite
	strategyName string
	f            *ledgerFixture
	ctx          context.Context
}

func (suite *AllocationServiceTestSuite) SetupTest() {
	suite.f = newLedgerFixture(suite.T(), suite.strategyName, domain.TransferModeAtomic)
	suite.ctx = context.Background()
}

func (suite *AllocationServiceTestSuite) reserve(poolID, requestID string, amount int64) (*domain.Allocation, error) {
	return suite.f.allocations.Reserve(suite.ctx, domain.ReserveCommand{
		PoolID: poolID, RequestID: requestID, Amount: dec(amount), Actor: testActor,
	})
}

// --- Test Cases ---

func (suite *AllocationServiceTestSuite) TestReserve_Success() {
	poolID := suite.f.activePool(suite.T(), 10000)
	requestID := suite.f.approvedRequest(suite.T(), 3000)

	allocation, err := suite.reserve(poolID, requestID, 3000)

	suite.Require().NoError(err)
	suite.Equal(domain.AllocationReserved, allocation.Status)
	suite.Equal(testActor, allocation.AllocatedBy)
	suite.Equal(testNow, allocation.ReservedAt)

	pool := suite.f.pool(suite.T(), poolID)
	suite.True(pool.ReservedAmount.Equal(dec(3000)))
	suite.True(pool.RemainingAmount().Equal(dec(7000)))

	events := suite.f.pendingEvents(suite.T())
	suite.Require().NotEmpty(events)
	last := events[len(events)-1]
	suite.Equal(domain.EventAllocationReserved, last.Type)
	suite.Equal(allocation.AllocationID, last.AggregateID)
}

func (suite *AllocationServiceTestSuite) TestReserve_InsufficientFunds() {
	poolID := suite.f.activePool(suite.T(), 1000)
	requestID := suite.f.approvedRequest(suite.T(), 5000)

	allocation, err := suite.reserve(poolID, requestID, 1500)

	suite.Nil(allocation)
	var insufficient *apperrors.InsufficientFundsError
	suite.Require().ErrorAs(err, &insufficient)
	suite.True(insufficient.Available.Equal(dec(1000)))
	suite.Equal(apperrors.KindInsufficientFunds, apperrors.KindOf(err))
	suite.True(suite.f.pool(suite.T(), poolID).ReservedAmount.IsZero())
}

func (suite *AllocationServiceTestSuite) TestReserve_DuplicateAllocation() {
	poolID := suite.f.activePool(suite.T(), 10000)
	requestID := suite.f.approvedRequest(suite.T(), 3000)

	first, err := suite.reserve(poolID, requestID, 1000)
	suite.Require().NoError(err)

	_, err = suite.reserve(poolID, requestID, 1000)

	var dup *apperrors.DuplicateAllocationError
	suite.Require().ErrorAs(err, &dup)
	suite.Equal(first.AllocationID, dup.ExistingAllocationID)
	suite.True(suite.f.pool(suite.T(), poolID).ReservedAmount.Equal(dec(1000)))
}

func (suite *AllocationServiceTestSuite) TestReserve_AfterCancelIsAllowed() {
	poolID := suite.f.activePool(suite.T(), 10000)
	requestID := suite.f.approvedRequest(suite.T(), 3000)

	first, err := suite.reserve(poolID, requestID, 1000)
	suite.Require().NoError(err)
	_, err = suite.f.allocations.Cancel(suite.ctx, domain.CancelAllocationCommand{AllocationID: first.AllocationID, Actor: testActor})
	suite.Require().NoError(err)

	_, err = suite.reserve(poolID, requestID, 1000)
	suite.NoError(err)
}

func (suite *AllocationServiceTestSuite) TestReserve_FrozenPool() {
	poolID := suite.f.activePool(suite.T(), 10000)
	requestID := suite.f.approvedRequest(suite.T(), 3000)
	_, err := suite.f.pools.FreezePool(suite.ctx, poolID, testActor)
	suite.Require().NoError(err)

	_, err = suite.reserve(poolID, requestID, 1000)

	suite.ErrorIs(err, apperrors.ErrPoolNotActive)
}

func (suite *AllocationServiceTestSuite) TestReserve_PastPeriodEnd() {
	poolID := suite.f.activePool(suite.T(), 10000)
	requestID := suite.f.approvedRequest(suite.T(), 3000)
	suite.f.clock.T = testPeriodEnd.Add(time.Hour)

	_, err := suite.reserve(poolID, requestID, 1000)

	suite.ErrorIs(err, apperrors.ErrPoolExpired)
}

func (suite *AllocationServiceTestSuite) TestReserve_DepletedPoolReportsInsufficientFunds() {
	poolID := suite.f.activePool(suite.T(), 1000)
	_, err := suite.reserve(poolID, suite.f.approvedRequest(suite.T(), 1000), 1000)
	suite.Require().NoError(err)
	suite.Equal(domain.PoolDepleted, suite.f.pool(suite.T(), poolID).Status)

	_, err = suite.reserve(poolID, suite.f.approvedRequest(suite.T(), 1000), 1)

	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
}

func (suite *AllocationServiceTestSuite) TestReserve_UnknownRequest() {
	poolID := suite.f.activePool(suite.T(), 1000)

	_, err := suite.reserve(poolID, uuid.NewString(), 100)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AllocationServiceTestSuite) TestReserve_ValidationError() {
	_, err := suite.reserve("pool", "request", 0)

	var verr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &verr)
	suite.Equal("amount", verr.Field)
}

func (suite *AllocationServiceTestSuite) TestReserveCancel_RestoresPool() {
	poolID := suite.f.activePool(suite.T(), 10000)
	before := suite.f.pool(suite.T(), poolID)
	requestID := suite.f.approvedRequest(suite.T(), 4000)

	allocation, err := suite.reserve(poolID, requestID, 4000)
	suite.Require().NoError(err)
	cancelled, err := suite.f.allocations.Cancel(suite.ctx, domain.CancelAllocationCommand{
		AllocationID: allocation.AllocationID, Reason: "beneficiary withdrew", Actor: testActor,
	})
	suite.Require().NoError(err)

	suite.Equal(domain.AllocationCancelled, cancelled.Status)
	suite.NotNil(cancelled.CancelledAt)
	after := suite.f.pool(suite.T(), poolID)
	suite.True(before.ReservedAmount.Equal(after.ReservedAmount))
	suite.True(before.SpentAmount.Equal(after.SpentAmount))
	suite.True(before.RemainingAmount().Equal(after.RemainingAmount()))
}

func (suite *AllocationServiceTestSuite) TestConfirmSettle_MovesReservedToSpent() {
	poolID := suite.f.activePool(suite.T(), 10000)
	allocation, err := suite.reserve(poolID, suite.f.approvedRequest(suite.T(), 2500), 2500)
	suite.Require().NoError(err)

	confirmed, err := suite.f.allocations.Confirm(suite.ctx, domain.ConfirmCommand{AllocationID: allocation.AllocationID, Actor: testActor})
	suite.Require().NoError(err)
	suite.Equal(domain.AllocationConfirmed, confirmed.Status)
	suite.True(suite.f.pool(suite.T(), poolID).ReservedAmount.Equal(dec(2500)))

	paid, err := suite.f.allocations.Settle(suite.ctx, domain.SettleCommand{AllocationID: allocation.AllocationID, Actor: testActor})
	suite.Require().NoError(err)
	suite.Equal(domain.AllocationPaid, paid.Status)

	pool := suite.f.pool(suite.T(), poolID)
	suite.True(pool.ReservedAmount.IsZero())
	suite.True(pool.SpentAmount.Equal(dec(2500)))
}

func (suite *AllocationServiceTestSuite) TestSettle_Twice() {
	poolID := suite.f.activePool(suite.T(), 10000)
	allocation, err := suite.reserve(poolID, suite.f.approvedRequest(suite.T(), 2500), 2500)
	suite.Require().NoError(err)
	_, err = suite.f.allocations.Confirm(suite.ctx, domain.ConfirmCommand{AllocationID: allocation.AllocationID, Actor: testActor})
	suite.Require().NoError(err)
	_, err = suite.f.allocations.Settle(suite.ctx, domain.SettleCommand{AllocationID: allocation.AllocationID, Actor: testActor})
	suite.Require().NoError(err)

	_, err = suite.f.allocations.Settle(suite.ctx, domain.SettleCommand{AllocationID: allocation.AllocationID, Actor: testActor})

	suite.ErrorIs(err, apperrors.ErrInvalidStateTransition)
	suite.True(suite.f.pool(suite.T(), poolID).SpentAmount.Equal(dec(2500)))
}

func (suite *AllocationServiceTestSuite) TestSettle_RequiresConfirmation() {
	poolID := suite.f.activePool(suite.T(), 10000)
	allocation, err := suite.reserve(poolID, suite.f.approvedRequest(suite.T(), 2500), 2500)
	suite.Require().NoError(err)

	_, err = suite.f.allocations.Settle(suite.ctx, domain.SettleCommand{AllocationID: allocation.AllocationID, Actor: testActor})

	suite.ErrorIs(err, apperrors.ErrInvalidStateTransition)
}

func (suite *AllocationServiceTestSuite) TestCancelPaid_PointsToRefund() {
	poolID := suite.f.activePool(suite.T(), 10000)
	allocation, err := suite.reserve(poolID, suite.f.approvedRequest(suite.T(), 2500), 2500)
	suite.Require().NoError(err)
	_, err = suite.f.allocations.Confirm(suite.ctx, domain.ConfirmCommand{AllocationID: allocation.AllocationID, Actor: testActor})
	suite.Require().NoError(err)
	_, err = suite.f.allocations.Settle(suite.ctx, domain.SettleCommand{AllocationID: allocation.AllocationID, Actor: testActor})
	suite.Require().NoError(err)

	_, err = suite.f.allocations.Cancel(suite.ctx, domain.CancelAllocationCommand{AllocationID: allocation.AllocationID, Actor: testActor})
	suite.ErrorIs(err, apperrors.ErrInvalidStateTransition)

	refunded, err := suite.f.allocations.Refund(suite.ctx, domain.RefundAllocationCommand{
		AllocationID: allocation.AllocationID, Reason: "duplicate disbursement", Actor: testActor,
	})
	suite.Require().NoError(err)
	suite.Equal(domain.AllocationRefunded, refunded.Status)
	suite.True(suite.f.pool(suite.T(), poolID).SpentAmount.IsZero())
}

func (suite *AllocationServiceTestSuite) TestPaymentAllocation_MovesOnlyThroughPayment() {
	poolID := suite.f.activePool(suite.T(), 10000)
	requestID := suite.f.approvedRequest(suite.T(), 5000)
	payment, err := suite.f.payments.CreatePayment(suite.ctx, cashPayment(requestID, poolID, 3000))
	suite.Require().NoError(err)
	allocationID := *payment.AllocationID

	_, err = suite.f.allocations.Settle(suite.ctx, domain.SettleCommand{AllocationID: allocationID, Actor: testActor})
	var terr *apperrors.InvalidStateTransitionError
	suite.Require().ErrorAs(err, &terr)
	suite.Contains(terr.Hint, payment.PaymentID)
	_, err = suite.f.allocations.Cancel(suite.ctx, domain.CancelAllocationCommand{AllocationID: allocationID, Actor: testActor})
	suite.ErrorIs(err, apperrors.ErrInvalidStateTransition)

	pool := suite.f.pool(suite.T(), poolID)
	suite.True(pool.ReservedAmount.Equal(dec(3000)))
	suite.True(pool.SpentAmount.IsZero())

	completed, err := suite.f.payments.ProcessPayment(suite.ctx, domain.ProcessPaymentCommand{PaymentID: payment.PaymentID, Actor: testActor})
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentCompleted, completed.Status)
	suite.True(suite.f.request(suite.T(), requestID).PaidAmount.Equal(dec(3000)))

	_, err = suite.f.allocations.Refund(suite.ctx, domain.RefundAllocationCommand{AllocationID: allocationID, Reason: "returned", Actor: testActor})
	suite.ErrorIs(err, apperrors.ErrInvalidStateTransition)
	suite.True(suite.f.pool(suite.T(), poolID).SpentAmount.Equal(dec(3000)))

	refunded, err := suite.f.payments.RefundPayment(suite.ctx, domain.RefundPaymentCommand{PaymentID: payment.PaymentID, Reason: "returned", Actor: testActor})
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentRefunded, refunded.Status)
	suite.True(suite.f.pool(suite.T(), poolID).SpentAmount.IsZero())
	suite.True(suite.f.request(suite.T(), requestID).PaidAmount.IsZero())
}

func (suite *AllocationServiceTestSuite) TestSecondInstallmentFromSamePool_IsDuplicate() {
	poolID := suite.f.activePool(suite.T(), 10000)
	other := suite.f.activePool(suite.T(), 10000)
	requestID := suite.f.approvedRequest(suite.T(), 5000)
	first, err := suite.f.payments.CreatePayment(suite.ctx, cashPayment(requestID, poolID, 2000))
	suite.Require().NoError(err)
	_, err = suite.f.payments.ProcessPayment(suite.ctx, domain.ProcessPaymentCommand{PaymentID: first.PaymentID, Actor: testActor})
	suite.Require().NoError(err)

	// a paid allocation still occupies the (request, pool) slot
	_, err = suite.f.payments.CreatePayment(suite.ctx, cashPayment(requestID, poolID, 1000))
	var dup *apperrors.DuplicateAllocationError
	suite.Require().ErrorAs(err, &dup)
	suite.Equal(*first.AllocationID, dup.ExistingAllocationID)

	_, err = suite.f.payments.CreatePayment(suite.ctx, cashPayment(requestID, other, 1000))
	suite.NoError(err)

	_, err = suite.f.payments.RefundPayment(suite.ctx, domain.RefundPaymentCommand{PaymentID: first.PaymentID, Reason: "reissue", Actor: testActor})
	suite.Require().NoError(err)
	_, err = suite.f.payments.CreatePayment(suite.ctx, cashPayment(requestID, poolID, 2000))
	suite.NoError(err)
}

func (suite *AllocationServiceTestSuite) TestConfirm_NotFound() {
	_, err := suite.f.allocations.Confirm(suite.ctx, domain.ConfirmCommand{AllocationID: uuid.NewString(), Actor: testActor})

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AllocationServiceTestSuite) TestListAllocationsByPool() {
	poolID := suite.f.activePool(suite.T(), 10000)
	for i := 0; i < 3; i++ {
		_, err := suite.reserve(poolID, suite.f.approvedRequest(suite.T(), 100), 100)
		suite.Require().NoError(err)
	}

	list, err := suite.f.allocations.ListAllocationsByPool(suite.ctx, poolID)

	suite.Require().NoError(err)
	suite.Len(list, 3)

	_, err = suite.f.allocations.ListAllocationsByPool(suite.ctx, uuid.NewString())
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AllocationServiceTestSuite) TestConcurrentReservations_NeverOverAllocate() {
	poolID := suite.f.activePool(suite.T(), 10000)
	requests := make([]string, 10)
	for i := range requests {
		requests[i] = suite.f.approvedRequest(suite.T(), 1500)
	}

	var succeeded, insufficient, conflicted atomic.Int32
	var g errgroup.Group
	for _, requestID := range requests {
		requestID := requestID
		g.Go(func() error {
			_, err := suite.reserve(poolID, requestID, 1500)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, apperrors.ErrInsufficientFunds):
				insufficient.Add(1)
			case errors.Is(err, apperrors.ErrConcurrentModification):
				conflicted.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	suite.Require().NoError(g.Wait())

	pool := suite.f.pool(suite.T(), poolID)
	suite.True(pool.ReservedAmount.Equal(dec(1500).Mul(dec(int64(succeeded.Load())))))
	suite.True(pool.ReservedAmount.LessThanOrEqual(pool.TotalAmount))
	suite.LessOrEqual(succeeded.Load(), int32(6))
	if suite.strategyName == services.StrategyPessimistic {
		suite.Equal(int32(6), succeeded.Load())
		suite.Equal(int32(4), insufficient.Load())
		suite.Zero(conflicted.Load())
	}
}

func TestAllocationServiceOptimistic(t *testing.T) {
	suite.Run(t, &AllocationServiceTestSuite{strategyName: services.StrategyOptimistic})
}

func TestAllocationServicePessimistic(t *testing.T) {
	suite.Run(t, &AllocationServiceTestSuite{strategyName: services.StrategyPessimistic})
}
