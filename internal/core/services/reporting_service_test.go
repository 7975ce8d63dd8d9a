package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/SscSPs/aid_budget_ledger/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSummary_CountsAllocationsAndOpenTransfers(t *testing.T) {
	f := newLedgerFixture(t, services.StrategyPessimistic, domain.TransferModeAtomic)
	ctx := context.Background()
	poolID := f.activePool(t, 10000)
	other := f.activePool(t, 0)

	_, err := f.payments.CreatePayment(ctx, cashPayment(f.approvedRequest(t, 5000), poolID, 2000))
	require.NoError(t, err)
	_, err = f.allocations.Reserve(ctx, domain.ReserveCommand{PoolID: poolID, RequestID: f.approvedRequest(t, 500), Amount: dec(500), Actor: testActor})
	require.NoError(t, err)
	_, err = f.transfers.Initiate(ctx, domain.InitiateTransferCommand{SourcePoolID: poolID, DestinationPoolID: other, Amount: dec(100), Actor: testActor})
	require.NoError(t, err)

	summary, err := f.reporting.PoolSummary(ctx, poolID)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.AllocationsByStatus[domain.AllocationConfirmed])
	assert.Equal(t, 1, summary.AllocationsByStatus[domain.AllocationReserved])
	assert.Equal(t, 1, summary.PendingTransfers)
	assert.True(t, summary.RemainingAmount.Equal(dec(7500)))
	assert.True(t, summary.AvailableAmount.Equal(dec(7500)))
}

func TestPoolSummary_NotFound(t *testing.T) {
	f := newLedgerFixture(t, services.StrategyPessimistic, domain.TransferModeAtomic)

	_, err := f.reporting.PoolSummary(context.Background(), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDashboard_TotalsPoolsAndPayments(t *testing.T) {
	f := newLedgerFixture(t, services.StrategyPessimistic, domain.TransferModeAtomic)
	ctx := context.Background()
	a := f.activePool(t, 10000)
	b := f.activePool(t, 4000)
	requestID := f.approvedRequest(t, 5000)

	completed, err := f.payments.CreatePayment(ctx, cashPayment(requestID, a, 3000))
	require.NoError(t, err)
	_, err = f.payments.ProcessPayment(ctx, domain.ProcessPaymentCommand{PaymentID: completed.PaymentID, Actor: testActor})
	require.NoError(t, err)
	_, err = f.payments.CreatePayment(ctx, cashPayment(f.approvedRequest(t, 1000), b, 1000))
	require.NoError(t, err)

	dashboard, err := f.reporting.Dashboard(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, dashboard.PoolCount)
	assert.Equal(t, 2, dashboard.PoolsByStatus[domain.PoolActive])
	assert.True(t, dashboard.TotalAmount.Equal(dec(14000)))
	assert.True(t, dashboard.SpentAmount.Equal(dec(3000)))
	assert.True(t, dashboard.ReservedAmount.Equal(dec(1000)))
	assert.True(t, dashboard.RemainingAmount.Equal(dec(10000)))
	assert.Equal(t, 1, dashboard.PaymentsByStatus[domain.PaymentCompleted])
	assert.Equal(t, 1, dashboard.PaymentsByStatus[domain.PaymentProcessing])
	assert.True(t, dashboard.CompletedPayments.Equal(dec(3000)))
}
