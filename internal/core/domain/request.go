package domain

import (
	"github.com/shopspring/decimal"
)

// RequestStatus is the payment-facing status of an approved aid request.
type RequestStatus string

const (
	RequestApproved      RequestStatus = "approved"
	RequestPartiallyPaid RequestStatus = "partially_paid"
	RequestPaid          RequestStatus = "paid"
	RequestCancelled     RequestStatus = "cancelled"
)

// AcceptsPayments is true for requests a new payment can be created against.
func (s RequestStatus) AcceptsPayments() bool {
	return s == RequestApproved || s == RequestPartiallyPaid
}

// AidRequest is the ledger's view of an approved aid request.
// PaidAmount always equals the sum of the request's completed payments.
type AidRequest struct {
	RequestID       string          `json:"requestID"`
	BeneficiaryID   string          `json:"beneficiaryID"`
	Reference       string          `json:"reference"`
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
	ApprovedAmount  decimal.Decimal `json:"approvedAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	Status          RequestStatus   `json:"status"`
	Version         int64           `json:"version"`
	AuditFields
}

// OutstandingAmount is what may still be paid on the request.
func (r AidRequest) OutstandingAmount() decimal.Decimal {
	return r.ApprovedAmount.Sub(r.PaidAmount)
}

// DeriveRequestStatus maps paid and approved amounts to a request status.
func DeriveRequestStatus(paid, approved decimal.Decimal) RequestStatus {
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(approved):
		return RequestPaid
	case paid.IsPositive():
		return RequestPartiallyPaid
	default:
		return RequestApproved
	}
}
