package mapping

import (
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
)

// ToModelAllocation converts a domain Allocation to a model Allocation
func ToModelAllocation(d domain.Allocation) models.Allocation {
	return models.Allocation{
		AllocationID: d.AllocationID,
		PoolID:       d.PoolID,
		RequestID:    d.RequestID,
		PaymentID:    d.PaymentID,
		Amount:       d.Amount,
		Status:       string(d.Status),
		AllocatedBy:  d.AllocatedBy,
		Reason:       d.Reason,
		ReservedAt:   d.ReservedAt,
		ConfirmedAt:  d.ConfirmedAt,
		PaidAt:       d.PaidAt,
		CancelledAt:  d.CancelledAt,
		RefundedAt:   d.RefundedAt,
		Version:      d.Version,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAllocation converts a model Allocation to a domain Allocation
func ToDomainAllocation(m models.Allocation) domain.Allocation {
	return domain.Allocation{
		AllocationID: m.AllocationID,
		PoolID:       m.PoolID,
		RequestID:    m.RequestID,
		PaymentID:    m.PaymentID,
		Amount:       m.Amount,
		Status:       domain.AllocationStatus(m.Status),
		AllocatedBy:  m.AllocatedBy,
		Reason:       m.Reason,
		ReservedAt:   m.ReservedAt,
		ConfirmedAt:  m.ConfirmedAt,
		PaidAt:       m.PaidAt,
		CancelledAt:  m.CancelledAt,
		RefundedAt:   m.RefundedAt,
		Version:      m.Version,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
