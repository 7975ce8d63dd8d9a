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

func TestSyncApprovedRequest_CreatesThenUpdates(t *testing.T) {
	f := newLedgerFixture(t, services.StrategyOptimistic, domain.TransferModeAtomic)
	ctx := context.Background()
	cmd := domain.SyncRequestCommand{
		RequestID: "DEM-17", BeneficiaryID: "ben-4", Reference: "DEM-2024-017",
		RequestedAmount: dec(6000), ApprovedAmount: dec(4000), Actor: testActor,
	}

	created, err := f.requests.SyncApprovedRequest(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, created.Status)
	assert.True(t, created.PaidAmount.IsZero())

	cmd.ApprovedAmount = dec(5000)
	updated, err := f.requests.SyncApprovedRequest(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, updated.ApprovedAmount.Equal(dec(5000)))
	assert.True(t, f.request(t, "DEM-17").OutstandingAmount().Equal(dec(5000)))
}

func TestSyncApprovedRequest_CannotDropBelowPaid(t *testing.T) {
	f := newLedgerFixture(t, services.StrategyOptimistic, domain.TransferModeAtomic)
	ctx := context.Background()
	poolID := f.activePool(t, 10000)
	requestID := f.approvedRequest(t, 5000)
	payment, err := f.payments.CreatePayment(ctx, cashPayment(requestID, poolID, 3000))
	require.NoError(t, err)
	_, err = f.payments.ProcessPayment(ctx, domain.ProcessPaymentCommand{PaymentID: payment.PaymentID, Actor: testActor})
	require.NoError(t, err)

	_, err = f.requests.SyncApprovedRequest(ctx, domain.SyncRequestCommand{
		RequestID: requestID, BeneficiaryID: "ben", ApprovedAmount: dec(2000), Actor: testActor,
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "approvedAmount", verr.Field)

	// lowering the approval to exactly what was paid settles the request
	paid, err := f.requests.SyncApprovedRequest(ctx, domain.SyncRequestCommand{
		RequestID: requestID, BeneficiaryID: "ben", ApprovedAmount: dec(3000), Actor: testActor,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPaid, paid.Status)
}

func TestSyncApprovedRequest_RaisingApprovalReopensPaidRequest(t *testing.T) {
	f := newLedgerFixture(t, services.StrategyPessimistic, domain.TransferModeAtomic)
	ctx := context.Background()
	poolID := f.activePool(t, 10000)
	requestID := f.approvedRequest(t, 2000)
	payment, err := f.payments.CreatePayment(ctx, cashPayment(requestID, poolID, 2000))
	require.NoError(t, err)
	_, err = f.payments.ProcessPayment(ctx, domain.ProcessPaymentCommand{PaymentID: payment.PaymentID, Actor: testActor})
	require.NoError(t, err)
	require.Equal(t, domain.RequestPaid, f.request(t, requestID).Status)

	reopened, err := f.requests.SyncApprovedRequest(ctx, domain.SyncRequestCommand{
		RequestID: requestID, BeneficiaryID: "ben", ApprovedAmount: dec(3500), Actor: testActor,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RequestPartiallyPaid, reopened.Status)
	assert.True(t, reopened.PaidAmount.Equal(dec(2000)))
	assert.True(t, reopened.OutstandingAmount().Equal(dec(1500)))
}

func TestSyncApprovedRequest_Validation(t *testing.T) {
	f := newLedgerFixture(t, services.StrategyOptimistic, domain.TransferModeAtomic)

	_, err := f.requests.SyncApprovedRequest(context.Background(), domain.SyncRequestCommand{
		RequestID: "DEM-1", BeneficiaryID: "ben", ApprovedAmount: dec(0), Actor: testActor,
	})

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "approvedAmount", verr.Field)
}

func TestGetRequest_NotFound(t *testing.T) {
	f := newLedgerFixture(t, services.StrategyOptimistic, domain.TransferModeAtomic)

	_, err := f.requests.GetRequest(context.Background(), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
