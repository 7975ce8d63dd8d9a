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

type transferRepository struct {
	tx pgx.Tx
}

var _ portsrepo.TransferRepository = (*transferRepository)(nil)

const transferColumns = `transfer_id, source_pool_id, destination_pool_id, amount, reason, status,
	initiated_by, approved_by, rejection_reason, source_debited_at, destination_credited_at,
	completed_at, rejected_at, version, created_at, created_by, last_updated_at, last_updated_by`

func scanTransfer(row pgx.Row) (models.Transfer, error) {
	var m models.Transfer
	err := row.Scan(
		&m.TransferID, &m.SourcePoolID, &m.DestinationPoolID, &m.Amount, &m.Reason, &m.Status,
		&m.InitiatedBy, &m.ApprovedBy, &m.RejectionReason, &m.SourceDebitedAt, &m.DestinationCreditedAt,
		&m.CompletedAt, &m.RejectedAt, &m.Version, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func (r *transferRepository) SaveTransfer(ctx context.Context, transfer domain.Transfer) error {
	m := mapping.ToModelTransfer(transfer)
	query := `INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	return execInsert(ctx, r.tx, "transfer", m.TransferID, query,
		m.TransferID, m.SourcePoolID, m.DestinationPoolID, m.Amount, m.Reason, m.Status,
		m.InitiatedBy, m.ApprovedBy, m.RejectionReason, m.SourceDebitedAt, m.DestinationCreditedAt,
		m.CompletedAt, m.RejectedAt, m.Version, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
}

func (r *transferRepository) UpdateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	m := mapping.ToModelTransfer(*transfer)
	query := `UPDATE transfers SET
			status = $2, approved_by = $3, rejection_reason = $4, source_debited_at = $5,
			destination_credited_at = $6, completed_at = $7, rejected_at = $8,
			last_updated_at = $9, last_updated_by = $10, version = version + 1
		WHERE transfer_id = $1 AND version = $11`
	err := execCAS(ctx, r.tx, "transfer", m.TransferID, query,
		m.TransferID, m.Status, m.ApprovedBy, m.RejectionReason, m.SourceDebitedAt,
		m.DestinationCreditedAt, m.CompletedAt, m.RejectedAt,
		m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return err
	}
	transfer.Version++
	return nil
}

func (r *transferRepository) FindTransferByID(ctx context.Context, transferID string) (*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE transfer_id = $1`
	m, err := scanTransfer(r.tx.QueryRow(ctx, query, transferID))
	if err := scanOne(err, "transfer", transferID); err != nil {
		return nil, err
	}
	t := mapping.ToDomainTransfer(m)
	return &t, nil
}

func (r *transferRepository) ListTransfersByPool(ctx context.Context, poolID string) ([]domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers
		WHERE source_pool_id = $1 OR destination_pool_id = $1
		ORDER BY created_at, transfer_id`
	return r.queryTransfers(ctx, query, poolID)
}

func (r *transferRepository) ListDanglingTransfers(ctx context.Context) ([]domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers
		WHERE status = 'approved' AND source_debited_at IS NOT NULL AND destination_credited_at IS NULL
		ORDER BY source_debited_at, transfer_id`
	return r.queryTransfers(ctx, query)
}

func (r *transferRepository) queryTransfers(ctx context.Context, query string, args ...any) ([]domain.Transfer, error) {
	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	transfers := []domain.Transfer{}
	for rows.Next() {
		m, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, mapping.ToDomainTransfer(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}
	return transfers, nil
}
