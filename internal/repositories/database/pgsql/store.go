package pgsql

import (
	"context"
	"log/slog"

	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/aid_budget_ledger/internal/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the PostgreSQL LedgerStore. Each WithinTx call is one database
// transaction at READ COMMITTED; versioned updates detect lost races.
type Store struct {
	txm portsrepo.TransactionManager
}

// NewStore creates a store on an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return NewStoreWithTransactionManager(&BaseRepository{Pool: pool})
}

// NewStoreWithTransactionManager creates a store whose transactions are
// started and finished by txm.
func NewStoreWithTransactionManager(txm portsrepo.TransactionManager) *Store {
	return &Store{txm: txm}
}

var (
	_ portsrepo.LedgerStore        = (*Store)(nil)
	_ portsrepo.TransactionManager = (*BaseRepository)(nil)
)

// WithinTx commits when fn succeeds and rolls back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := s.txm.Rollback(ctx, tx); rbErr != nil {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to roll back ledger transaction", slog.String("error", rbErr.Error()))
		}
	}()

	if err := fn(ctx, &ledgerTx{tx: tx}); err != nil {
		return err
	}
	return s.txm.Commit(ctx, tx)
}

type ledgerTx struct {
	tx pgx.Tx
}

func (t *ledgerTx) Pools() portsrepo.BudgetPoolRepository       { return &poolRepository{tx: t.tx} }
func (t *ledgerTx) Allocations() portsrepo.AllocationRepository { return &allocationRepository{tx: t.tx} }
func (t *ledgerTx) Payments() portsrepo.PaymentRepository       { return &paymentRepository{tx: t.tx} }
func (t *ledgerTx) Requests() portsrepo.RequestRepository       { return &requestRepository{tx: t.tx} }
func (t *ledgerTx) Transfers() portsrepo.TransferRepository     { return &transferRepository{tx: t.tx} }
func (t *ledgerTx) Outbox() portsrepo.OutboxRepository          { return &outboxRepository{tx: t.tx} }
