package dto

import (
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReserveRequest reserves pool funds for a request outside of a payment.
type ReserveRequest struct {
	PoolID    string          `json:"poolID" binding:"required"`
	RequestID string          `json:"requestID" binding:"required"`
	Amount    decimal.Decimal `json:"amount" swaggertype:"string" example:"1500.00"`
}

// ToCommand builds the ledger command for actor.
func (r ReserveRequest) ToCommand(actor string) domain.ReserveCommand {
	return domain.ReserveCommand{PoolID: r.PoolID, RequestID: r.RequestID, Amount: r.Amount, Actor: actor}
}

// ReasonRequest is the body of cancel, refund, reject and hold operations.
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}
