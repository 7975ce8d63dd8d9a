package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveRequestStatus(t *testing.T) {
	tests := []struct {
		name     string
		paid     int64
		approved int64
		want     domain.RequestStatus
	}{
		{"nothing paid", 0, 5000, domain.RequestApproved},
		{"partially paid", 3000, 5000, domain.RequestPartiallyPaid},
		{"fully paid", 5000, 5000, domain.RequestPaid},
		{"overpaid is still paid", 5001, 5000, domain.RequestPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.DeriveRequestStatus(decimal.NewFromInt(tt.paid), decimal.NewFromInt(tt.approved))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllocationStatus_Transitions(t *testing.T) {
	assert.True(t, domain.AllocationReserved.CanTransitionTo(domain.AllocationConfirmed))
	assert.True(t, domain.AllocationReserved.CanTransitionTo(domain.AllocationCancelled))
	assert.True(t, domain.AllocationConfirmed.CanTransitionTo(domain.AllocationPaid))
	assert.True(t, domain.AllocationPaid.CanTransitionTo(domain.AllocationRefunded))

	assert.False(t, domain.AllocationReserved.CanTransitionTo(domain.AllocationPaid))
	assert.False(t, domain.AllocationPaid.CanTransitionTo(domain.AllocationCancelled))
	assert.False(t, domain.AllocationConfirmed.CanTransitionTo(domain.AllocationReserved))
	assert.False(t, domain.AllocationRefunded.CanTransitionTo(domain.AllocationPaid))
}

func TestPaymentStatus_Transitions(t *testing.T) {
	assert.True(t, domain.PaymentProcessing.CanTransitionTo(domain.PaymentCompleted))
	assert.True(t, domain.PaymentFailed.CanTransitionTo(domain.PaymentProcessing))
	assert.True(t, domain.PaymentFailed.CanTransitionTo(domain.PaymentCancelled))
	assert.True(t, domain.PaymentOnHold.CanTransitionTo(domain.PaymentCancelled))
	assert.True(t, domain.PaymentCompleted.CanTransitionTo(domain.PaymentRefunded))

	assert.False(t, domain.PaymentCompleted.CanTransitionTo(domain.PaymentCancelled))
	assert.False(t, domain.PaymentPending.CanTransitionTo(domain.PaymentCompleted))
	assert.False(t, domain.PaymentCancelled.CanTransitionTo(domain.PaymentProcessing))
}

func TestBudgetPool_Amounts(t *testing.T) {
	p := domain.BudgetPool{
		TotalAmount:     decimal.NewFromInt(10000),
		AllocatedAmount: decimal.NewFromInt(1000),
		ReservedAmount:  decimal.NewFromInt(2000),
		SpentAmount:     decimal.NewFromInt(3000),
	}

	assert.True(t, decimal.NewFromInt(4000).Equal(p.RemainingAmount()))
	assert.True(t, decimal.NewFromInt(5000).Equal(p.AvailableAmount()))
}

func TestBudgetPool_RefreshDepletion(t *testing.T) {
	p := domain.BudgetPool{
		Status:         domain.PoolActive,
		TotalAmount:    decimal.NewFromInt(100),
		ReservedAmount: decimal.NewFromInt(100),
	}
	p.RefreshDepletion()
	assert.Equal(t, domain.PoolDepleted, p.Status)

	p.ReservedAmount = decimal.NewFromInt(40)
	p.RefreshDepletion()
	assert.Equal(t, domain.PoolActive, p.Status)

	p.Status = domain.PoolFrozen
	p.ReservedAmount = decimal.NewFromInt(100)
	p.RefreshDepletion()
	assert.Equal(t, domain.PoolFrozen, p.Status, "frozen pools keep their status")
}

func TestBudgetPool_IsPastPeriod(t *testing.T) {
	end := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	p := domain.BudgetPool{PeriodEnd: end}

	assert.False(t, p.IsPastPeriod(end))
	assert.True(t, p.IsPastPeriod(end.Add(time.Second)))
	assert.False(t, domain.BudgetPool{}.IsPastPeriod(end), "open ended pool never expires")
}

func TestPaymentDetails_MissingFor(t *testing.T) {
	full := domain.PaymentDetails{AccountNumber: "FR76", BankName: "BNA", HolderName: "A. Ben"}

	assert.Empty(t, full.MissingFor(domain.MethodBankTransfer))
	assert.Equal(t, "bankName", domain.PaymentDetails{AccountNumber: "FR76"}.MissingFor(domain.MethodBankTransfer))
	assert.Equal(t, "checkNumber", domain.PaymentDetails{}.MissingFor(domain.MethodCheck))
	assert.Equal(t, "phoneNumber", domain.PaymentDetails{}.MissingFor(domain.MethodMobileMoney))
	assert.Empty(t, domain.PaymentDetails{}.MissingFor(domain.MethodCash))
}

func TestTransfer_DirectionFor(t *testing.T) {
	tr := domain.Transfer{SourcePoolID: "a", DestinationPoolID: "b"}

	assert.Equal(t, domain.TransferOutgoing, tr.DirectionFor("a"))
	assert.Equal(t, domain.TransferIncoming, tr.DirectionFor("b"))
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid reserve", func(t *testing.T) {
		err := domain.ValidateCommand(domain.ReserveCommand{
			PoolID: "p", RequestID: "r", Amount: decimal.NewFromInt(10), Actor: "u",
		})
		assert.NoError(t, err)
	})

	t.Run("zero amount", func(t *testing.T) {
		err := domain.ValidateCommand(domain.ReserveCommand{
			PoolID: "p", RequestID: "r", Amount: decimal.Zero, Actor: "u",
		})
		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "amount", verr.Field)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		err := domain.ValidateCommand(domain.CreatePaymentCommand{
			RequestID: "r", Amount: decimal.NewFromInt(10), Method: "crypto", Actor: "u",
		})
		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "method", verr.Field)
	})

	t.Run("transfer to same pool", func(t *testing.T) {
		err := domain.ValidateCommand(domain.InitiateTransferCommand{
			SourcePoolID: "p", DestinationPoolID: "p", Amount: decimal.NewFromInt(1), Actor: "u",
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("nil command", func(t *testing.T) {
		assert.ErrorIs(t, domain.ValidateCommand(nil), apperrors.ErrValidation)
	})
}
