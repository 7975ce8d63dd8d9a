package mapping

import (
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
)

// ToModelAidRequest converts a domain AidRequest to a model AidRequest
func ToModelAidRequest(d domain.AidRequest) models.AidRequest {
	return models.AidRequest{
		RequestID:       d.RequestID,
		BeneficiaryID:   d.BeneficiaryID,
		Reference:       d.Reference,
		RequestedAmount: d.RequestedAmount,
		ApprovedAmount:  d.ApprovedAmount,
		PaidAmount:      d.PaidAmount,
		Status:          string(d.Status),
		Version:         d.Version,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAidRequest converts a model AidRequest to a domain AidRequest
func ToDomainAidRequest(m models.AidRequest) domain.AidRequest {
	return domain.AidRequest{
		RequestID:       m.RequestID,
		BeneficiaryID:   m.BeneficiaryID,
		Reference:       m.Reference,
		RequestedAmount: m.RequestedAmount,
		ApprovedAmount:  m.ApprovedAmount,
		PaidAmount:      m.PaidAmount,
		Status:          domain.RequestStatus(m.Status),
		Version:         m.Version,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}
