package dto

import (
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SyncRequestRequest carries an approval decision from the aid workflow.
type SyncRequestRequest struct {
	BeneficiaryID   string          `json:"beneficiaryID" binding:"required"`
	Reference       string          `json:"reference"`
	RequestedAmount decimal.Decimal `json:"requestedAmount" swaggertype:"string"`
	ApprovedAmount  decimal.Decimal `json:"approvedAmount" swaggertype:"string" example:"5000.00"`
}

// ToCommand builds the ledger command for requestID.
func (r SyncRequestRequest) ToCommand(requestID, actor string) domain.SyncRequestCommand {
	return domain.SyncRequestCommand{
		RequestID:       requestID,
		BeneficiaryID:   r.BeneficiaryID,
		Reference:       r.Reference,
		RequestedAmount: r.RequestedAmount,
		ApprovedAmount:  r.ApprovedAmount,
		Actor:           actor,
	}
}

// AidRequestResponse is the ledger view of a request.
type AidRequestResponse struct {
	domain.AidRequest
	OutstandingAmount decimal.Decimal `json:"outstandingAmount" swaggertype:"string"`
}

// ToAidRequestResponse converts a domain request to its response.
func ToAidRequestResponse(r *domain.AidRequest) AidRequestResponse {
	return AidRequestResponse{AidRequest: *r, OutstandingAmount: r.OutstandingAmount()}
}
