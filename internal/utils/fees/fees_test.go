package fees_test

import (
	"testing"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/fees"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeFees(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		method     domain.PaymentMethod
		processing string
		bank       string
		total      string
	}{
		{"bank transfer lowest tier", "1000", domain.MethodBankTransfer, "5", "1", "6"},
		{"bank transfer middle tier", "3000", domain.MethodBankTransfer, "15", "2.5", "17.5"},
		{"bank transfer upper bound of middle tier", "10000", domain.MethodBankTransfer, "50", "2.5", "52.5"},
		{"bank transfer top tier", "10000.01", domain.MethodBankTransfer, "50", "5", "55"},
		{"card", "200", domain.MethodCard, "5", "0.5", "5.5"},
		{"card rounds half up to three places", "0.1", domain.MethodCard, "0.003", "0.5", "0.503"},
		{"mobile money", "450.50", domain.MethodMobileMoney, "4.505", "0", "4.505"},
		{"cash is free", "500", domain.MethodCash, "0", "0", "0"},
		{"check is free", "500", domain.MethodCheck, "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warn := fees.ComputeFees(dec(tt.amount), tt.method)
			require.NoError(t, warn)
			assert.True(t, dec(tt.processing).Equal(got.ProcessingFee), "processing fee: got %s", got.ProcessingFee)
			assert.True(t, dec(tt.bank).Equal(got.BankFee), "bank fee: got %s", got.BankFee)
			assert.True(t, dec(tt.total).Equal(got.TotalFees), "total fees: got %s", got.TotalFees)
			assert.Equal(t, fees.ScheduleVersion, got.ScheduleVersion)
		})
	}
}

func TestComputeFees_UnknownMethodWarns(t *testing.T) {
	got, warn := fees.ComputeFees(dec("100"), domain.PaymentMethod("crypto"))

	var unknown *fees.UnknownMethodWarning
	require.ErrorAs(t, warn, &unknown)
	assert.Equal(t, domain.PaymentMethod("crypto"), unknown.Method)
	assert.True(t, got.TotalFees.IsZero())
	assert.Equal(t, fees.ScheduleVersion, got.ScheduleVersion)
}
