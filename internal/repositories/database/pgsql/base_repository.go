package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres error codes the ledger maps to domain errors.
const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

const activeAllocationIndex = "uq_allocations_active_request_pool"

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		if mapped := translatePgError(err); mapped != err {
			return mapped
		}
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// translatePgError maps constraint and serialization failures to ledger errors.
// Anything else is returned unchanged.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == activeAllocationIndex {
			// a racing reservation committed first; the retry sees it as a duplicate
			return fmt.Errorf("active allocation committed concurrently: %w", apperrors.ErrConcurrentModification)
		}
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicate, pgErr.Detail)
	case pgCheckViolation:
		return &apperrors.InvariantViolationError{Detail: fmt.Sprintf("constraint %s rejected the write", pgErr.ConstraintName)}
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%s: %w", pgErr.Message, apperrors.ErrConcurrentModification)
	}
	return err
}

// execCAS runs a versioned UPDATE and reports a conflict when no row matched.
func execCAS(ctx context.Context, tx pgx.Tx, kind, id string, query string, args ...any) error {
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if mapped := translatePgError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to update %s %s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s changed since it was read: %w", kind, id, apperrors.ErrConcurrentModification)
	}
	return nil
}

// execInsert runs an INSERT and maps unique violations.
func execInsert(ctx context.Context, tx pgx.Tx, kind, id string, query string, args ...any) error {
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		if mapped := translatePgError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to save %s %s: %w", kind, id, err)
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, apperrors.ErrNotFound)
}

// scanOne wraps pgx.ErrNoRows as ErrNotFound.
func scanOne(err error, kind, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(kind, id)
	}
	return fmt.Errorf("failed to find %s %s: %w", kind, id, err)
}
