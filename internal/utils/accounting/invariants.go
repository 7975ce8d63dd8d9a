package accounting

import (
	"fmt"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CheckPoolInvariant verifies that every amount component of the pool is
// non-negative and that allocated + reserved + spent never exceeds total.
// It runs after every mutation and before commit.
func CheckPoolInvariant(pool domain.BudgetPool) error {
	components := []struct {
		name  string
		value decimal.Decimal
	}{
		{"totalAmount", pool.TotalAmount},
		{"allocatedAmount", pool.AllocatedAmount},
		{"reservedAmount", pool.ReservedAmount},
		{"spentAmount", pool.SpentAmount},
	}
	for _, c := range components {
		if c.value.IsNegative() {
			return &apperrors.InvariantViolationError{
				PoolID: pool.PoolID,
				Detail: fmt.Sprintf("%s is negative (%s)", c.name, c.value.String()),
			}
		}
	}

	committed := pool.AllocatedAmount.Add(pool.ReservedAmount).Add(pool.SpentAmount)
	if committed.GreaterThan(pool.TotalAmount) {
		return &apperrors.InvariantViolationError{
			PoolID: pool.PoolID,
			Detail: fmt.Sprintf("allocated+reserved+spent %s exceeds total %s",
				committed.String(), pool.TotalAmount.String()),
		}
	}
	return nil
}

// CheckCanReserve reports whether amount fits in the pool's remaining funds.
func CheckCanReserve(pool domain.BudgetPool, amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.LessThanOrEqual(pool.RemainingAmount())
}

// CheckCanConfirm reports whether amount is covered by current reservations.
func CheckCanConfirm(pool domain.BudgetPool, amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.LessThanOrEqual(pool.ReservedAmount)
}

// CheckCanSettle reports whether amount can move from reserved to spent
// without pushing spent past total.
func CheckCanSettle(pool domain.BudgetPool, amount decimal.Decimal) bool {
	if !CheckCanConfirm(pool, amount) {
		return false
	}
	return pool.SpentAmount.Add(amount).LessThanOrEqual(pool.TotalAmount)
}

// CheckCanRefund reports whether amount can be returned from spent.
func CheckCanRefund(pool domain.BudgetPool, amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.LessThanOrEqual(pool.SpentAmount)
}

// CheckCanEarmark reports whether an outgoing transfer of amount can be earmarked.
func CheckCanEarmark(pool domain.BudgetPool, amount decimal.Decimal) bool {
	return CheckCanReserve(pool, amount)
}

// CheckCanDebit reports whether an earmarked transfer amount can leave the pool.
func CheckCanDebit(pool domain.BudgetPool, amount decimal.Decimal) bool {
	return amount.IsPositive() &&
		amount.LessThanOrEqual(pool.AllocatedAmount) &&
		amount.LessThanOrEqual(pool.TotalAmount)
}
