package pgsql

import (
	"context"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/aid_budget_ledger/internal/models"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type requestRepository struct {
	tx pgx.Tx
}

var _ portsrepo.RequestRepository = (*requestRepository)(nil)

func (r *requestRepository) SaveRequest(ctx context.Context, request domain.AidRequest) error {
	m := mapping.ToModelAidRequest(request)
	query := `INSERT INTO aid_requests (request_id, beneficiary_id, reference, requested_amount, approved_amount,
			paid_amount, status, version, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	return execInsert(ctx, r.tx, "aid request", m.RequestID, query,
		m.RequestID, m.BeneficiaryID, m.Reference, m.RequestedAmount, m.ApprovedAmount,
		m.PaidAmount, m.Status, m.Version, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
}

func (r *requestRepository) UpdateRequest(ctx context.Context, request *domain.AidRequest) error {
	m := mapping.ToModelAidRequest(*request)
	query := `UPDATE aid_requests SET
			beneficiary_id = $2, reference = $3, requested_amount = $4, approved_amount = $5,
			paid_amount = $6, status = $7, last_updated_at = $8, last_updated_by = $9, version = version + 1
		WHERE request_id = $1 AND version = $10`
	err := execCAS(ctx, r.tx, "aid request", m.RequestID, query,
		m.RequestID, m.BeneficiaryID, m.Reference, m.RequestedAmount, m.ApprovedAmount,
		m.PaidAmount, m.Status, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return err
	}
	request.Version++
	return nil
}

func (r *requestRepository) FindRequestByID(ctx context.Context, requestID string) (*domain.AidRequest, error) {
	query := `SELECT request_id, beneficiary_id, reference, requested_amount, approved_amount, paid_amount,
			status, version, created_at, created_by, last_updated_at, last_updated_by
		FROM aid_requests WHERE request_id = $1`
	var m models.AidRequest
	err := r.tx.QueryRow(ctx, query, requestID).Scan(
		&m.RequestID, &m.BeneficiaryID, &m.Reference, &m.RequestedAmount, &m.ApprovedAmount, &m.PaidAmount,
		&m.Status, &m.Version, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err := scanOne(err, "aid request", requestID); err != nil {
		return nil, err
	}
	req := mapping.ToDomainAidRequest(m)
	return &req, nil
}
