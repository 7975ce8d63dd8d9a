package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPaymentMapping_FlattensFeesAndErrors(t *testing.T) {
	failedAt := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	poolID := "pool-1"
	d := domain.Payment{
		PaymentID: "pay-1",
		RequestID: "req-1",
		PoolID:    &poolID,
		Amount:    decimal.NewFromInt(500),
		Method:    domain.MethodBankTransfer,
		Details:   domain.PaymentDetails{AccountNumber: "TN59", BankName: "BNA", HolderName: "A. Ben Salah"},
		Status:    domain.PaymentFailed,
		Fees: domain.Fees{
			ProcessingFee:   decimal.NewFromInt(10),
			BankFee:         decimal.RequireFromString("2.5"),
			TotalFees:       decimal.RequireFromString("12.5"),
			ScheduleVersion: "2024-01",
		},
		ErrorDetails: domain.ErrorDetails{Code: "BANK_TIMEOUT", Message: "gateway timeout", RetryCount: 2, LastFailedAt: &failedAt},
		Version:      4,
	}

	m := ToModelPayment(d)

	assert.Equal(t, "bank_transfer", m.Method)
	assert.Equal(t, "2024-01", m.FeeScheduleVersion)
	assert.Equal(t, "BANK_TIMEOUT", m.ErrorCode)
	assert.Equal(t, 2, m.RetryCount)
	assert.Equal(t, "BNA", m.Details.BankName)
	assert.Equal(t, d, ToDomainPayment(m))
}

func TestBudgetPoolMapping_NormalizesPeriodToUTC(t *testing.T) {
	tunis := time.FixedZone("CET", 3600)
	m := ToModelBudgetPool(domain.BudgetPool{
		PoolID:      "pool-1",
		Status:      domain.PoolActive,
		PeriodStart: time.Date(2024, 1, 1, 1, 0, 0, 0, tunis),
		PeriodEnd:   time.Date(2025, 1, 1, 0, 59, 59, 0, tunis),
	})

	d := ToDomainBudgetPool(m)

	assert.Equal(t, domain.PoolActive, d.Status)
	assert.Equal(t, time.UTC, d.PeriodStart.Location())
	assert.True(t, d.PeriodEnd.Equal(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)))
}
