package models

import "github.com/shopspring/decimal"

// AidRequest is a row of aid_requests.
type AidRequest struct {
	RequestID       string          `json:"requestID"`
	BeneficiaryID   string          `json:"beneficiaryID"`
	Reference       string          `json:"reference"`
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
	ApprovedAmount  decimal.Decimal `json:"approvedAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	Status          string          `json:"status"`
	Version         int64           `json:"version"`
	AuditFields
}
