package mapping

import (
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
)

// ToModelBudgetPool converts a domain BudgetPool to a model BudgetPool
func ToModelBudgetPool(d domain.BudgetPool) models.BudgetPool {
	return models.BudgetPool{
		PoolID:          d.PoolID,
		Name:            d.Name,
		Department:      d.Department,
		FiscalYear:      d.FiscalYear,
		Currency:        d.Currency,
		TotalAmount:     d.TotalAmount,
		AllocatedAmount: d.AllocatedAmount,
		ReservedAmount:  d.ReservedAmount,
		SpentAmount:     d.SpentAmount,
		PeriodStart:     d.PeriodStart,
		PeriodEnd:       d.PeriodEnd,
		Status:          string(d.Status),
		Version:         d.Version,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBudgetPool converts a model BudgetPool to a domain BudgetPool
func ToDomainBudgetPool(m models.BudgetPool) domain.BudgetPool {
	return domain.BudgetPool{
		PoolID:          m.PoolID,
		Name:            m.Name,
		Department:      m.Department,
		FiscalYear:      m.FiscalYear,
		Currency:        m.Currency,
		TotalAmount:     m.TotalAmount,
		AllocatedAmount: m.AllocatedAmount,
		ReservedAmount:  m.ReservedAmount,
		SpentAmount:     m.SpentAmount,
		PeriodStart:     m.PeriodStart.UTC(),
		PeriodEnd:       m.PeriodEnd.UTC(),
		Status:          domain.PoolStatus(m.Status),
		Version:         m.Version,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}
