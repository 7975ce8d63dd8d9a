package mapping

import (
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
)

// ToModelTransfer converts a domain Transfer to a model Transfer
func ToModelTransfer(d domain.Transfer) models.Transfer {
	return models.Transfer{
		TransferID:            d.TransferID,
		SourcePoolID:          d.SourcePoolID,
		DestinationPoolID:     d.DestinationPoolID,
		Amount:                d.Amount,
		Reason:                d.Reason,
		Status:                string(d.Status),
		InitiatedBy:           d.InitiatedBy,
		ApprovedBy:            d.ApprovedBy,
		RejectionReason:       d.RejectionReason,
		SourceDebitedAt:       d.SourceDebitedAt,
		DestinationCreditedAt: d.DestinationCreditedAt,
		CompletedAt:           d.CompletedAt,
		RejectedAt:            d.RejectedAt,
		Version:               d.Version,
		AuditFields:           ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransfer converts a model Transfer to a domain Transfer
func ToDomainTransfer(m models.Transfer) domain.Transfer {
	return domain.Transfer{
		TransferID:            m.TransferID,
		SourcePoolID:          m.SourcePoolID,
		DestinationPoolID:     m.DestinationPoolID,
		Amount:                m.Amount,
		Reason:                m.Reason,
		Status:                domain.TransferStatus(m.Status),
		InitiatedBy:           m.InitiatedBy,
		ApprovedBy:            m.ApprovedBy,
		RejectionReason:       m.RejectionReason,
		SourceDebitedAt:       m.SourceDebitedAt,
		DestinationCreditedAt: m.DestinationCreditedAt,
		CompletedAt:           m.CompletedAt,
		RejectedAt:            m.RejectedAt,
		Version:               m.Version,
		AuditFields:           ToDomainAuditFields(m.AuditFields),
	}
}
