package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type allocationRepository struct {
	tx pgx.Tx
}

var _ portsrepo.AllocationRepository = (*allocationRepository)(nil)

const allocationColumns = `allocation_id, pool_id, request_id, payment_id, amount, status, allocated_by,
	reason, reserved_at, confirmed_at, paid_at, cancelled_at, refunded_at, version,
	created_at, created_by, last_updated_at, last_updated_by`

func scanAllocation(row pgx.Row) (models.Allocation, error) {
	var m models.Allocation
	err := row.Scan(
		&m.AllocationID, &m.PoolID, &m.RequestID, &m.PaymentID, &m.Amount, &m.Status, &m.AllocatedBy,
		&m.Reason, &m.ReservedAt, &m.ConfirmedAt, &m.PaidAt, &m.CancelledAt, &m.RefundedAt, &m.Version,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func (r *allocationRepository) SaveAllocation(ctx context.Context, allocation domain.Allocation) error {
	m := mapping.ToModelAllocation(allocation)
	query := `INSERT INTO allocations (` + allocationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	return execInsert(ctx, r.tx, "allocation", m.AllocationID, query,
		m.AllocationID, m.PoolID, m.RequestID, m.PaymentID, m.Amount, m.Status, m.AllocatedBy,
		m.Reason, m.ReservedAt, m.ConfirmedAt, m.PaidAt, m.CancelledAt, m.RefundedAt, m.Version,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
}

func (r *allocationRepository) UpdateAllocation(ctx context.Context, allocation *domain.Allocation) error {
	m := mapping.ToModelAllocation(*allocation)
	query := `UPDATE allocations SET
			payment_id = $2, status = $3, reason = $4, confirmed_at = $5, paid_at = $6,
			cancelled_at = $7, refunded_at = $8, last_updated_at = $9, last_updated_by = $10,
			version = version + 1
		WHERE allocation_id = $1 AND version = $11`
	err := execCAS(ctx, r.tx, "allocation", m.AllocationID, query,
		m.AllocationID, m.PaymentID, m.Status, m.Reason, m.ConfirmedAt, m.PaidAt,
		m.CancelledAt, m.RefundedAt, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return err
	}
	allocation.Version++
	return nil
}

func (r *allocationRepository) FindAllocationByID(ctx context.Context, allocationID string) (*domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE allocation_id = $1`
	m, err := scanAllocation(r.tx.QueryRow(ctx, query, allocationID))
	if err := scanOne(err, "allocation", allocationID); err != nil {
		return nil, err
	}
	a := mapping.ToDomainAllocation(m)
	return &a, nil
}

func (r *allocationRepository) FindActiveAllocation(ctx context.Context, requestID, poolID string) (*domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations
		WHERE request_id = $1 AND pool_id = $2 AND status IN ('reserved', 'confirmed', 'paid')`
	m, err := scanAllocation(r.tx.QueryRow(ctx, query, requestID, poolID))
	if err := scanOne(err, "active allocation for request", requestID); err != nil {
		return nil, err
	}
	a := mapping.ToDomainAllocation(m)
	return &a, nil
}

func (r *allocationRepository) ListAllocationsByPool(ctx context.Context, poolID string) ([]domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE pool_id = $1 ORDER BY reserved_at, allocation_id`
	rows, err := r.tx.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations of pool %s: %w", poolID, err)
	}
	defer rows.Close()

	allocations := []domain.Allocation{}
	for rows.Next() {
		m, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, mapping.ToDomainAllocation(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocations: %w", err)
	}
	return allocations, nil
}
