package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type poolRepository struct {
	tx pgx.Tx
}

var _ portsrepo.BudgetPoolRepository = (*poolRepository)(nil)

const poolColumns = `pool_id, name, department, fiscal_year, currency, total_amount, allocated_amount,
	reserved_amount, spent_amount, period_start, period_end, status, version,
	created_at, created_by, last_updated_at, last_updated_by`

func scanPool(row pgx.Row) (models.BudgetPool, error) {
	var m models.BudgetPool
	err := row.Scan(
		&m.PoolID, &m.Name, &m.Department, &m.FiscalYear, &m.Currency,
		&m.TotalAmount, &m.AllocatedAmount, &m.ReservedAmount, &m.SpentAmount,
		&m.PeriodStart, &m.PeriodEnd, &m.Status, &m.Version,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func (r *poolRepository) findPool(ctx context.Context, poolID, suffix string) (*domain.BudgetPool, error) {
	query := `SELECT ` + poolColumns + ` FROM budget_pools WHERE pool_id = $1` + suffix
	m, err := scanPool(r.tx.QueryRow(ctx, query, poolID))
	if err := scanOne(err, "budget pool", poolID); err != nil {
		return nil, err
	}
	pool := mapping.ToDomainBudgetPool(m)
	return &pool, nil
}

func (r *poolRepository) FindPoolByID(ctx context.Context, poolID string) (*domain.BudgetPool, error) {
	return r.findPool(ctx, poolID, "")
}

// FindPoolForUpdate row-locks the pool until the transaction ends.
func (r *poolRepository) FindPoolForUpdate(ctx context.Context, poolID string) (*domain.BudgetPool, error) {
	return r.findPool(ctx, poolID, " FOR UPDATE")
}

func (r *poolRepository) ListPools(ctx context.Context, filter portsrepo.PoolFilter) ([]domain.BudgetPool, error) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conds = append(conds, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.FiscalYear != 0 {
		args = append(args, filter.FiscalYear)
		conds = append(conds, fmt.Sprintf("fiscal_year = $%d", len(args)))
	}
	query := `SELECT ` + poolColumns + ` FROM budget_pools`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, pool_id"

	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget pools: %w", err)
	}
	defer rows.Close()

	pools := []domain.BudgetPool{}
	for rows.Next() {
		m, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget pool: %w", err)
		}
		pools = append(pools, mapping.ToDomainBudgetPool(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget pools: %w", err)
	}
	return pools, nil
}

func (r *poolRepository) SavePool(ctx context.Context, pool domain.BudgetPool) error {
	m := mapping.ToModelBudgetPool(pool)
	query := `INSERT INTO budget_pools (` + poolColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	return execInsert(ctx, r.tx, "budget pool", m.PoolID, query,
		m.PoolID, m.Name, m.Department, m.FiscalYear, m.Currency,
		m.TotalAmount, m.AllocatedAmount, m.ReservedAmount, m.SpentAmount,
		m.PeriodStart, m.PeriodEnd, m.Status, m.Version,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
}

func (r *poolRepository) UpdatePool(ctx context.Context, pool *domain.BudgetPool) error {
	m := mapping.ToModelBudgetPool(*pool)
	query := `UPDATE budget_pools SET
			name = $2, department = $3, fiscal_year = $4, currency = $5,
			total_amount = $6, allocated_amount = $7, reserved_amount = $8, spent_amount = $9,
			period_start = $10, period_end = $11, status = $12,
			last_updated_at = $13, last_updated_by = $14, version = version + 1
		WHERE pool_id = $1 AND version = $15`
	err := execCAS(ctx, r.tx, "budget pool", m.PoolID, query,
		m.PoolID, m.Name, m.Department, m.FiscalYear, m.Currency,
		m.TotalAmount, m.AllocatedAmount, m.ReservedAmount, m.SpentAmount,
		m.PeriodStart, m.PeriodEnd, m.Status,
		m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return err
	}
	pool.Version++
	return nil
}
