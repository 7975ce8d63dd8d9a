package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/accounting"
)

// persistPool is the only write path for pool amounts: it refreshes the
// depleted flag, checks conservation and writes with a version check.
func persistPool(ctx context.Context, tx portsrepo.LedgerTx, pool *domain.BudgetPool) error {
	pool.RefreshDepletion()
	if err := accounting.CheckPoolInvariant(*pool); err != nil {
		return err
	}
	return tx.Pools().UpdatePool(ctx, pool)
}

// logFailure logs business rejections at warn level and everything else at error level.
func (s *BaseService) logFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	if apperrors.KindOf(err) == apperrors.KindInternal || apperrors.KindOf(err) == apperrors.KindInvariantViolation {
		s.LogError(ctx, err, msg, keyvals...)
		return
	}
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()), slog.String("kind", string(apperrors.KindOf(err))))
	args = append(args, keyvals...)
	s.LogWarn(ctx, msg, args...)
}

// readOnly runs fn in its own transaction without any locking. Reads are
// snapshots and never authorise a mutation.
func readOnly(ctx context.Context, store portsrepo.LedgerStore, fn TxFunc) error {
	return store.WithinTx(ctx, fn)
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}

func optionalID(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
