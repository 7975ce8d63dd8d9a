package dto

import (
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InitiateTransferRequest opens a pool-to-pool transfer.
type InitiateTransferRequest struct {
	SourcePoolID      string          `json:"sourcePoolID" binding:"required"`
	DestinationPoolID string          `json:"destinationPoolID" binding:"required"`
	Amount            decimal.Decimal `json:"amount" swaggertype:"string" example:"2500.00"`
	Reason            string          `json:"reason" binding:"max=500"`
}

// ToCommand builds the ledger command for actor.
func (r InitiateTransferRequest) ToCommand(actor string) domain.InitiateTransferCommand {
	return domain.InitiateTransferCommand{
		SourcePoolID:      r.SourcePoolID,
		DestinationPoolID: r.DestinationPoolID,
		Amount:            r.Amount,
		Reason:            r.Reason,
		Actor:             actor,
	}
}
