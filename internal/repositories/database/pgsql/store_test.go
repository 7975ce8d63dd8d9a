package pgsql_test

import (
	"context"
	"errors"
	"testing"

	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/aid_budget_ledger/internal/repositories/database/pgsql"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTransactionManager is a mock implementation of portsrepo.TransactionManager
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *MockTransactionManager) Commit(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionManager) Rollback(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

var _ portsrepo.TransactionManager = (*MockTransactionManager)(nil)

// stubTx stands in for an open transaction; the mock manager never touches it.
type stubTx struct {
	pgx.Tx
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	tx := &stubTx{}
	txm := new(MockTransactionManager)
	txm.On("Begin", ctx).Return(tx, nil).Once()
	txm.On("Commit", ctx, tx).Return(nil).Once()
	txm.On("Rollback", ctx, tx).Return(nil).Once()
	store := pgsql.NewStoreWithTransactionManager(txm)

	ran := false
	err := store.WithinTx(ctx, func(ctx context.Context, ledger portsrepo.LedgerTx) error {
		ran = true
		assert.NotNil(t, ledger.Pools())
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	txm.AssertExpectations(t)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	tx := &stubTx{}
	txm := new(MockTransactionManager)
	txm.On("Begin", ctx).Return(tx, nil).Once()
	txm.On("Rollback", ctx, tx).Return(nil).Once()
	store := pgsql.NewStoreWithTransactionManager(txm)
	failure := errors.New("insufficient funds")

	err := store.WithinTx(ctx, func(ctx context.Context, _ portsrepo.LedgerTx) error {
		return failure
	})

	assert.ErrorIs(t, err, failure)
	txm.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
	txm.AssertExpectations(t)
}

func TestWithinTx_BeginFailureSkipsWork(t *testing.T) {
	ctx := context.Background()
	txm := new(MockTransactionManager)
	beginErr := errors.New("pool closed")
	txm.On("Begin", ctx).Return(nil, beginErr).Once()
	store := pgsql.NewStoreWithTransactionManager(txm)

	err := store.WithinTx(ctx, func(ctx context.Context, _ portsrepo.LedgerTx) error {
		t.Fatal("work must not run without a transaction")
		return nil
	})

	assert.ErrorIs(t, err, beginErr)
	txm.AssertExpectations(t)
}
