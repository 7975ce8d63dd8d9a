package mapping

import (
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:    d.PaymentID,
		RequestID:    d.RequestID,
		PoolID:       d.PoolID,
		AllocationID: d.AllocationID,
		Amount:       d.Amount,
		Currency:     d.Currency,
		Method:       string(d.Method),
		Details: models.PaymentDetails{
			AccountNumber: d.Details.AccountNumber,
			BankName:      d.Details.BankName,
			HolderName:    d.Details.HolderName,
			CheckNumber:   d.Details.CheckNumber,
			PhoneNumber:   d.Details.PhoneNumber,
		},
		Status:             string(d.Status),
		ProcessingFee:      d.Fees.ProcessingFee,
		BankFee:            d.Fees.BankFee,
		TotalFees:          d.Fees.TotalFees,
		FeeScheduleVersion: d.Fees.ScheduleVersion,
		ErrorCode:          d.ErrorDetails.Code,
		ErrorMessage:       d.ErrorDetails.Message,
		RetryCount:         d.ErrorDetails.RetryCount,
		LastFailedAt:       d.ErrorDetails.LastFailedAt,
		ScheduledDate:      d.ScheduledDate,
		TransactionID:      d.TransactionID,
		CompletedAt:        d.CompletedAt,
		CancelledAt:        d.CancelledAt,
		CancellationReason: d.CancellationReason,
		HoldReason:         d.HoldReason,
		Version:            d.Version,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:    m.PaymentID,
		RequestID:    m.RequestID,
		PoolID:       m.PoolID,
		AllocationID: m.AllocationID,
		Amount:       m.Amount,
		Currency:     m.Currency,
		Method:       domain.PaymentMethod(m.Method),
		Details: domain.PaymentDetails{
			AccountNumber: m.Details.AccountNumber,
			BankName:      m.Details.BankName,
			HolderName:    m.Details.HolderName,
			CheckNumber:   m.Details.CheckNumber,
			PhoneNumber:   m.Details.PhoneNumber,
		},
		Status: domain.PaymentStatus(m.Status),
		Fees: domain.Fees{
			ProcessingFee:   m.ProcessingFee,
			BankFee:         m.BankFee,
			TotalFees:       m.TotalFees,
			ScheduleVersion: m.FeeScheduleVersion,
		},
		ErrorDetails: domain.ErrorDetails{
			Code:         m.ErrorCode,
			Message:      m.ErrorMessage,
			RetryCount:   m.RetryCount,
			LastFailedAt: m.LastFailedAt,
		},
		ScheduledDate:      m.ScheduledDate,
		TransactionID:      m.TransactionID,
		CompletedAt:        m.CompletedAt,
		CancelledAt:        m.CancelledAt,
		CancellationReason: m.CancellationReason,
		HoldReason:         m.HoldReason,
		Version:            m.Version,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}
