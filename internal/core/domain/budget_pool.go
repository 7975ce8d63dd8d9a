package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolStatus is the lifecycle state of a budget pool.
type PoolStatus string

const (
	PoolDraft     PoolStatus = "draft"
	PoolActive    PoolStatus = "active"
	PoolFrozen    PoolStatus = "frozen"
	PoolDepleted  PoolStatus = "depleted"
	PoolExpired   PoolStatus = "expired"
	PoolCancelled PoolStatus = "cancelled"
)

var poolTransitions = map[PoolStatus][]PoolStatus{
	PoolDraft:    {PoolActive, PoolCancelled},
	PoolActive:   {PoolFrozen, PoolDepleted, PoolExpired, PoolCancelled},
	PoolFrozen:   {PoolActive, PoolExpired, PoolCancelled},
	PoolDepleted: {PoolActive, PoolExpired, PoolCancelled},
}

// CanTransitionTo reports whether the pool state machine allows moving to next.
func (s PoolStatus) CanTransitionTo(next PoolStatus) bool {
	for _, allowed := range poolTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal is true for expired and cancelled pools.
func (s PoolStatus) IsTerminal() bool {
	return s == PoolExpired || s == PoolCancelled
}

// BudgetPool is a departmental envelope of funds for a fiscal period.
//
// AllocatedAmount holds funds earmarked by approved outgoing transfers,
// ReservedAmount holds funds reserved or confirmed for payments and
// SpentAmount holds settled payments. Their sum never exceeds TotalAmount.
type BudgetPool struct {
	PoolID          string          `json:"poolID"`
	Name            string          `json:"name"`
	Department      string          `json:"department"`
	FiscalYear      int             `json:"fiscalYear"`
	Currency        string          `json:"currency"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	ReservedAmount  decimal.Decimal `json:"reservedAmount"`
	SpentAmount     decimal.Decimal `json:"spentAmount"`
	PeriodStart     time.Time       `json:"periodStart"`
	PeriodEnd       time.Time       `json:"periodEnd"`
	Status          PoolStatus      `json:"status"`
	Version         int64           `json:"version"`
	AuditFields
}

// AvailableAmount is what has not been spent or reserved.
func (p BudgetPool) AvailableAmount() decimal.Decimal {
	return p.TotalAmount.Sub(p.SpentAmount).Sub(p.ReservedAmount)
}

// RemainingAmount is what can still be reserved or earmarked.
func (p BudgetPool) RemainingAmount() decimal.Decimal {
	return p.TotalAmount.Sub(p.AllocatedAmount).Sub(p.ReservedAmount).Sub(p.SpentAmount)
}

// IsPastPeriod reports whether now is after the pool's period end.
func (p BudgetPool) IsPastPeriod(now time.Time) bool {
	return !p.PeriodEnd.IsZero() && now.After(p.PeriodEnd)
}

// RefreshDepletion flips an active pool to depleted when nothing remains, and
// back to active once funds are released. Other statuses are left untouched.
func (p *BudgetPool) RefreshDepletion() {
	remaining := p.RemainingAmount()
	switch {
	case p.Status == PoolActive && remaining.LessThanOrEqual(decimal.Zero) && p.TotalAmount.IsPositive():
		p.Status = PoolDepleted
	case p.Status == PoolDepleted && remaining.IsPositive():
		p.Status = PoolActive
	}
}
