package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPool is a row of budget_pools.
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
	Status          string          `json:"status"`
	Version         int64           `json:"version"`
	AuditFields
}
