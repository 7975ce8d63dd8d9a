// Package fees computes disbursement fees from a static, versioned schedule.
package fees

import (
	"fmt"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ScheduleVersion identifies the fee table below. It is stored on every
// payment so historical fees stay explainable after the table changes.
const ScheduleVersion = "2024-01"

const feePrecision = 3

type bankFeeTier struct {
	upTo decimal.Decimal // inclusive; zero means no upper bound
	fee  decimal.Decimal
}

type methodSchedule struct {
	processingRate decimal.Decimal
	bankFees       []bankFeeTier
}

var schedule = map[domain.PaymentMethod]methodSchedule{
	domain.MethodBankTransfer: {
		processingRate: decimal.RequireFromString("0.005"),
		bankFees: []bankFeeTier{
			{upTo: decimal.NewFromInt(1000), fee: decimal.RequireFromString("1.000")},
			{upTo: decimal.NewFromInt(10000), fee: decimal.RequireFromString("2.500")},
			{fee: decimal.RequireFromString("5.000")},
		},
	},
	domain.MethodCard: {
		processingRate: decimal.RequireFromString("0.025"),
		bankFees:       []bankFeeTier{{fee: decimal.RequireFromString("0.500")}},
	},
	domain.MethodMobileMoney: {
		processingRate: decimal.RequireFromString("0.01"),
	},
	domain.MethodCash:  {processingRate: decimal.Zero},
	domain.MethodCheck: {processingRate: decimal.Zero},
}

// UnknownMethodWarning is returned alongside zero fees for a method missing from the schedule.
type UnknownMethodWarning struct {
	Method domain.PaymentMethod
}

func (w *UnknownMethodWarning) Error() string {
	return fmt.Sprintf("no fee schedule for payment method %q, fees default to zero", w.Method)
}

// ComputeFees returns the fees for amount paid with method. It never fails;
// an unknown method yields zero fees plus a warning for the caller to log.
func ComputeFees(amount decimal.Decimal, method domain.PaymentMethod) (domain.Fees, error) {
	fees := domain.Fees{
		ProcessingFee:   decimal.Zero,
		BankFee:         decimal.Zero,
		TotalFees:       decimal.Zero,
		ScheduleVersion: ScheduleVersion,
	}

	s, ok := schedule[method]
	if !ok {
		return fees, &UnknownMethodWarning{Method: method}
	}

	fees.ProcessingFee = amount.Mul(s.processingRate).Round(feePrecision)
	fees.BankFee = bankFeeFor(amount, s.bankFees).Round(feePrecision)
	fees.TotalFees = fees.ProcessingFee.Add(fees.BankFee)
	return fees, nil
}

func bankFeeFor(amount decimal.Decimal, tiers []bankFeeTier) decimal.Decimal {
	for _, tier := range tiers {
		if tier.upTo.IsZero() || amount.LessThanOrEqual(tier.upTo) {
			return tier.fee
		}
	}
	return decimal.Zero
}
