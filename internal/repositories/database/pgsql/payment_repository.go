package pgsql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/mapping"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type paymentRepository struct {
	tx pgx.Tx
}

var _ portsrepo.PaymentRepository = (*paymentRepository)(nil)

const paymentColumns = `payment_id, request_id, pool_id, allocation_id, amount, currency, method, details,
	status, processing_fee, bank_fee, total_fees, fee_schedule_version, error_code, error_message,
	retry_count, last_failed_at, scheduled_date, transaction_id, completed_at, cancelled_at,
	cancellation_reason, hold_reason, version, created_at, created_by, last_updated_at, last_updated_by`

func scanPayment(row pgx.Row) (models.Payment, error) {
	var m models.Payment
	var details []byte
	err := row.Scan(
		&m.PaymentID, &m.RequestID, &m.PoolID, &m.AllocationID, &m.Amount, &m.Currency, &m.Method, &details,
		&m.Status, &m.ProcessingFee, &m.BankFee, &m.TotalFees, &m.FeeScheduleVersion, &m.ErrorCode, &m.ErrorMessage,
		&m.RetryCount, &m.LastFailedAt, &m.ScheduledDate, &m.TransactionID, &m.CompletedAt, &m.CancelledAt,
		&m.CancellationReason, &m.HoldReason, &m.Version, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return m, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &m.Details); err != nil {
			return m, fmt.Errorf("failed to decode details of payment %s: %w", m.PaymentID, err)
		}
	}
	return m, nil
}

func (r *paymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	details, err := json.Marshal(m.Details)
	if err != nil {
		return fmt.Errorf("failed to encode details of payment %s: %w", m.PaymentID, err)
	}
	query := `INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28)`
	return execInsert(ctx, r.tx, "payment", m.PaymentID, query,
		m.PaymentID, m.RequestID, m.PoolID, m.AllocationID, m.Amount, m.Currency, m.Method, details,
		m.Status, m.ProcessingFee, m.BankFee, m.TotalFees, m.FeeScheduleVersion, m.ErrorCode, m.ErrorMessage,
		m.RetryCount, m.LastFailedAt, m.ScheduledDate, m.TransactionID, m.CompletedAt, m.CancelledAt,
		m.CancellationReason, m.HoldReason, m.Version, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
}

func (r *paymentRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	m := mapping.ToModelPayment(*payment)
	details, err := json.Marshal(m.Details)
	if err != nil {
		return fmt.Errorf("failed to encode details of payment %s: %w", m.PaymentID, err)
	}
	query := `UPDATE payments SET
			allocation_id = $2, details = $3, status = $4, error_code = $5, error_message = $6,
			retry_count = $7, last_failed_at = $8, scheduled_date = $9, transaction_id = $10,
			completed_at = $11, cancelled_at = $12, cancellation_reason = $13, hold_reason = $14,
			last_updated_at = $15, last_updated_by = $16, version = version + 1
		WHERE payment_id = $1 AND version = $17`
	err = execCAS(ctx, r.tx, "payment", m.PaymentID, query,
		m.PaymentID, m.AllocationID, details, m.Status, m.ErrorCode, m.ErrorMessage,
		m.RetryCount, m.LastFailedAt, m.ScheduledDate, m.TransactionID,
		m.CompletedAt, m.CancelledAt, m.CancellationReason, m.HoldReason,
		m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return err
	}
	payment.Version++
	return nil
}

func (r *paymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1`
	m, err := scanPayment(r.tx.QueryRow(ctx, query, paymentID))
	if err := scanOne(err, "payment", paymentID); err != nil {
		return nil, err
	}
	p := mapping.ToDomainPayment(m)
	return &p, nil
}

func (r *paymentRepository) ListPaymentsByRequest(ctx context.Context, requestID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE request_id = $1 ORDER BY created_at DESC, payment_id DESC`
	return r.queryPayments(ctx, query, requestID)
}

func (r *paymentRepository) SumCompletedPayments(ctx context.Context, requestID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE request_id = $1 AND status = 'completed'`
	if err := r.tx.QueryRow(ctx, query, requestID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum completed payments of request %s: %w", requestID, err)
	}
	return sum, nil
}

// ListPayments pages newest first on (created_at, payment_id).
func (r *paymentRepository) ListPayments(ctx context.Context, filter portsrepo.PaymentFilter) ([]domain.Payment, *string, error) {
	limit := pagination.ClampLimit(filter.Limit)

	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RequestID != "" {
		args = append(args, filter.RequestID)
		conds = append(conds, fmt.Sprintf("request_id = $%d", len(args)))
	}
	if filter.PoolID != "" {
		args = append(args, filter.PoolID)
		conds = append(conds, fmt.Sprintf("pool_id = $%d", len(args)))
	}
	if filter.NextToken != nil && *filter.NextToken != "" {
		cursorAt, cursorID, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, cursorAt, cursorID)
		conds = append(conds, fmt.Sprintf("(created_at, payment_id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	// one extra row tells whether another page exists
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, payment_id DESC LIMIT $%d", len(args))

	payments, err := r.queryPayments(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	if len(payments) <= limit {
		return payments, nil, nil
	}
	page := payments[:limit]
	last := page[len(page)-1]
	next := pagination.EncodeToken(last.CreatedAt, last.PaymentID)
	return page, &next, nil
}

func (r *paymentRepository) queryPayments(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		m, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, mapping.ToDomainPayment(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}
	return payments, nil
}
