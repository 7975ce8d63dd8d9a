package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// poolService implements the PoolSvcFacade interface
type poolService struct {
	BaseService
	store           portsrepo.LedgerStore
	strategy        ConcurrencyStrategy
	defaultCurrency string
}

// NewPoolService creates a budget pool service.
func NewPoolService(store portsrepo.LedgerStore, strategy ConcurrencyStrategy, defaultCurrency string, options ...ServiceOption) portssvc.PoolSvcFacade {
	if defaultCurrency == "" {
		defaultCurrency = DefaultCurrency
	}
	return &poolService{
		BaseService:     newBaseService(options...),
		store:           store,
		strategy:        strategy,
		defaultCurrency: strings.ToUpper(defaultCurrency),
	}
}

var _ portssvc.PoolSvcFacade = (*poolService)(nil)

func (s *poolService) CreatePool(ctx context.Context, cmd domain.CreatePoolCommand) (*domain.BudgetPool, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}

	now := s.Now()
	currency := strings.ToUpper(cmd.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}
	pool := domain.BudgetPool{
		PoolID:          uuid.NewString(),
		Name:            cmd.Name,
		Department:      cmd.Department,
		FiscalYear:      cmd.FiscalYear,
		Currency:        currency,
		TotalAmount:     cmd.TotalAmount,
		AllocatedAmount: decimal.Zero,
		ReservedAmount:  decimal.Zero,
		SpentAmount:     decimal.Zero,
		PeriodStart:     cmd.PeriodStart.UTC(),
		PeriodEnd:       cmd.PeriodEnd.UTC(),
		Status:          domain.PoolDraft,
		AuditFields:     domain.NewAuditFields(cmd.Actor, now),
	}

	err := s.strategy.Execute(ctx, staticKeys(poolKey(pool.PoolID)), func(ctx context.Context, tx portsrepo.LedgerTx) error {
		return tx.Pools().SavePool(ctx, pool)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to create budget pool", slog.String("name", cmd.Name))
		return nil, err
	}

	s.LogInfo(ctx, "Budget pool created",
		slog.String("pool_id", pool.PoolID),
		slog.String("department", pool.Department),
		slog.String("total_amount", pool.TotalAmount.String()))
	return &pool, nil
}

// changeStatus moves a pool to next after check accepts the current pool.
func (s *poolService) changeStatus(ctx context.Context, poolID, actor string, next domain.PoolStatus, check func(*domain.BudgetPool) error) (*domain.BudgetPool, error) {
	if poolID == "" || actor == "" {
		return nil, apperrors.NewValidationError("poolID", "pool id and actor are required")
	}

	var result *domain.BudgetPool
	err := s.strategy.Execute(ctx, staticKeys(poolKey(poolID)), func(ctx context.Context, tx portsrepo.LedgerTx) error {
		pool, err := tx.Pools().FindPoolForUpdate(ctx, poolID)
		if err != nil {
			return err
		}
		if !pool.Status.CanTransitionTo(next) {
			return &apperrors.InvalidStateTransitionError{
				Entity: "pool", ID: pool.PoolID, From: string(pool.Status), To: string(next),
			}
		}
		if check != nil {
			if err := check(pool); err != nil {
				return err
			}
		}

		pool.Status = next
		pool.Touch(actor, s.Now())
		if err := persistPool(ctx, tx, pool); err != nil {
			return err
		}
		if next == domain.PoolExpired {
			event := s.newEvent(domain.EventPoolExpired, pool.PoolID, pool.RemainingAmount(), actor)
			event.PoolID = pool.PoolID
			if err := tx.Outbox().AppendEvents(ctx, event); err != nil {
				return err
			}
		}
		result = pool
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to change budget pool status",
			slog.String("pool_id", poolID),
			slog.String("to", string(next)))
		return nil, err
	}

	s.LogInfo(ctx, "Budget pool status changed",
		slog.String("pool_id", poolID),
		slog.String("status", string(result.Status)))
	return result, nil
}

func (s *poolService) ActivatePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error) {
	return s.changeStatus(ctx, poolID, actor, domain.PoolActive, func(p *domain.BudgetPool) error {
		if p.Status == domain.PoolDepleted {
			return &apperrors.InvalidStateTransitionError{
				Entity: "pool", ID: p.PoolID, From: string(p.Status), To: string(domain.PoolActive),
			}
		}
		if p.IsPastPeriod(s.Now()) {
			return &apperrors.PoolExpiredError{PoolID: p.PoolID}
		}
		return nil
	})
}

func (s *poolService) FreezePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error) {
	return s.changeStatus(ctx, poolID, actor, domain.PoolFrozen, nil)
}

func (s *poolService) UnfreezePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error) {
	return s.changeStatus(ctx, poolID, actor, domain.PoolActive, func(p *domain.BudgetPool) error {
		if p.Status != domain.PoolFrozen {
			return &apperrors.InvalidStateTransitionError{
				Entity: "pool", ID: p.PoolID, From: string(p.Status), To: string(domain.PoolActive),
			}
		}
		return nil
	})
}

func (s *poolService) CancelPool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error) {
	return s.changeStatus(ctx, poolID, actor, domain.PoolCancelled, func(p *domain.BudgetPool) error {
		if p.ReservedAmount.IsPositive() || p.AllocatedAmount.IsPositive() {
			return &apperrors.InvalidStateTransitionError{
				Entity: "pool", ID: p.PoolID, From: string(p.Status) + " with open reservations", To: string(domain.PoolCancelled),
			}
		}
		return nil
	})
}

func (s *poolService) ExpirePool(ctx context.Context, poolID, actor string) (*domain.BudgetPool, error) {
	return s.changeStatus(ctx, poolID, actor, domain.PoolExpired, func(p *domain.BudgetPool) error {
		if !p.IsPastPeriod(s.Now()) {
			return &apperrors.InvalidStateTransitionError{
				Entity: "pool", ID: p.PoolID, From: string(p.Status) + " before period end", To: string(domain.PoolExpired),
			}
		}
		return nil
	})
}

func (s *poolService) TopUpPool(ctx context.Context, cmd domain.TopUpPoolCommand) (*domain.BudgetPool, error) {
	if err := domain.ValidateCommand(cmd); err != nil {
		return nil, err
	}

	var result *domain.BudgetPool
	err := s.strategy.Execute(ctx, staticKeys(poolKey(cmd.PoolID)), func(ctx context.Context, tx portsrepo.LedgerTx) error {
		pool, err := tx.Pools().FindPoolForUpdate(ctx, cmd.PoolID)
		if err != nil {
			return err
		}
		if pool.Status.IsTerminal() {
			return &apperrors.PoolNotActiveError{PoolID: pool.PoolID, Status: string(pool.Status)}
		}
		pool.TotalAmount = pool.TotalAmount.Add(cmd.Amount)
		pool.Touch(cmd.Actor, s.Now())
		if err := persistPool(ctx, tx, pool); err != nil {
			return err
		}
		result = pool
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to top up budget pool", slog.String("pool_id", cmd.PoolID))
		return nil, err
	}

	s.LogInfo(ctx, "Budget pool topped up",
		slog.String("pool_id", result.PoolID),
		slog.String("amount", cmd.Amount.String()),
		slog.String("total_amount", result.TotalAmount.String()))
	return result, nil
}

func (s *poolService) GetPool(ctx context.Context, poolID string) (*domain.BudgetPool, error) {
	var result *domain.BudgetPool
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		p, err := tx.Pools().FindPoolByID(ctx, poolID)
		result = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *poolService) ListPools(ctx context.Context, filter portsrepo.PoolFilter) ([]domain.BudgetPool, error) {
	var result []domain.BudgetPool
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		list, err := tx.Pools().ListPools(ctx, filter)
		result = list
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list budget pools")
		return nil, err
	}
	return result, nil
}
