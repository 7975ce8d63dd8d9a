package dto

import (
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePoolRequest defines the structure for creating a budget pool.
type CreatePoolRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Department  string          `json:"department" binding:"required"`
	FiscalYear  int             `json:"fiscalYear" binding:"required"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	TotalAmount decimal.Decimal `json:"totalAmount" swaggertype:"string" example:"10000.00"`
	PeriodStart time.Time       `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time       `json:"periodEnd" binding:"required"`
}

// ToCommand builds the ledger command for actor.
func (r CreatePoolRequest) ToCommand(actor string) domain.CreatePoolCommand {
	return domain.CreatePoolCommand{
		Name:        r.Name,
		Department:  r.Department,
		FiscalYear:  r.FiscalYear,
		Currency:    r.Currency,
		TotalAmount: r.TotalAmount,
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
		Actor:       actor,
	}
}

// TopUpPoolRequest raises a pool's total.
type TopUpPoolRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"500.00"`
}

// PoolResponse is a budget pool with its derived amounts.
type PoolResponse struct {
	domain.BudgetPool
	RemainingAmount decimal.Decimal `json:"remainingAmount" swaggertype:"string"`
	AvailableAmount decimal.Decimal `json:"availableAmount" swaggertype:"string"`
}

// ToPoolResponse converts a domain pool to its response.
func ToPoolResponse(p *domain.BudgetPool) PoolResponse {
	return PoolResponse{
		BudgetPool:      *p,
		RemainingAmount: p.RemainingAmount(),
		AvailableAmount: p.AvailableAmount(),
	}
}

// ToListPoolResponse converts a list of pools.
func ToListPoolResponse(pools []domain.BudgetPool) []PoolResponse {
	list := make([]PoolResponse, len(pools))
	for i := range pools {
		list[i] = ToPoolResponse(&pools[i])
	}
	return list
}
