package services

import (
	"context"
	"fmt"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// reportingService implements the ReportingSvc interface
type reportingService struct {
	BaseService
	store portsrepo.LedgerStore
}

// NewReportingService creates a read-only reporting service
func NewReportingService(store portsrepo.LedgerStore, options ...ServiceOption) portssvc.ReportingSvc {
	return &reportingService{
		BaseService: newBaseService(options...),
		store:       store,
	}
}

// Ensure reportingService implements the ReportingSvc interface
var _ portssvc.ReportingSvc = (*reportingService)(nil)

// PoolSummary returns a pool's amounts with its allocation and transfer counts.
func (s *reportingService) PoolSummary(ctx context.Context, poolID string) (*domain.PoolSummary, error) {
	var summary *domain.PoolSummary
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		pool, err := tx.Pools().FindPoolByID(ctx, poolID)
		if err != nil {
			return err
		}
		allocations, err := tx.Allocations().ListAllocationsByPool(ctx, poolID)
		if err != nil {
			return err
		}
		transfers, err := tx.Transfers().ListTransfersByPool(ctx, poolID)
		if err != nil {
			return err
		}

		summary = &domain.PoolSummary{
			Pool:                *pool,
			RemainingAmount:     pool.RemainingAmount(),
			AvailableAmount:     pool.AvailableAmount(),
			AllocationsByStatus: make(map[domain.AllocationStatus]int),
		}
		for _, a := range allocations {
			summary.AllocationsByStatus[a.Status]++
		}
		for _, t := range transfers {
			if t.Status == domain.TransferPending || t.Status == domain.TransferApproved {
				summary.PendingTransfers++
			}
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to build pool summary")
		return nil, err
	}
	return summary, nil
}

// Dashboard totals every pool and counts payments by status.
func (s *reportingService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	dashboard := &domain.Dashboard{
		PoolsByStatus:     make(map[domain.PoolStatus]int),
		PaymentsByStatus:  make(map[domain.PaymentStatus]int),
		TotalAmount:       decimal.Zero,
		AllocatedAmount:   decimal.Zero,
		ReservedAmount:    decimal.Zero,
		SpentAmount:       decimal.Zero,
		RemainingAmount:   decimal.Zero,
		CompletedPayments: decimal.Zero,
	}

	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		pools, err := tx.Pools().ListPools(ctx, portsrepo.PoolFilter{})
		if err != nil {
			return err
		}
		dashboard.PoolCount = len(pools)
		for _, p := range pools {
			dashboard.PoolsByStatus[p.Status]++
			dashboard.TotalAmount = dashboard.TotalAmount.Add(p.TotalAmount)
			dashboard.AllocatedAmount = dashboard.AllocatedAmount.Add(p.AllocatedAmount)
			dashboard.ReservedAmount = dashboard.ReservedAmount.Add(p.ReservedAmount)
			dashboard.SpentAmount = dashboard.SpentAmount.Add(p.SpentAmount)
			dashboard.RemainingAmount = dashboard.RemainingAmount.Add(p.RemainingAmount())
		}

		filter := portsrepo.PaymentFilter{Limit: pagination.MaxLimit}
		for {
			page, next, err := tx.Payments().ListPayments(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list payments: %w", err)
			}
			for _, p := range page {
				dashboard.PaymentsByStatus[p.Status]++
				if p.Status == domain.PaymentCompleted {
					dashboard.CompletedPayments = dashboard.CompletedPayments.Add(p.Amount)
				}
			}
			if next == nil {
				return nil
			}
			filter.NextToken = next
		}
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to build dashboard")
		return nil, err
	}
	return dashboard, nil
}
