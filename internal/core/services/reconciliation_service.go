package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/middleware"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/accounting"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// SystemActor is recorded on mutations made by the reconciliation sweep.
const SystemActor = "system:reconciliation"

const defaultRelayBatchSize = 100

// reconciliationService implements the ReconciliationSvc interface
type reconciliationService struct {
	BaseService
	store     portsrepo.LedgerStore
	pools     portssvc.PoolSvcFacade
	transfers portssvc.TransferSvcFacade
	publisher portssvc.EventPublisher
	batchSize int
}

// NewReconciliationService creates the periodic sweep. A nil publisher leaves
// outbox events pending.
func NewReconciliationService(store portsrepo.LedgerStore, pools portssvc.PoolSvcFacade, transfers portssvc.TransferSvcFacade, publisher portssvc.EventPublisher, options ...ServiceOption) portssvc.ReconciliationSvc {
	return &reconciliationService{
		BaseService: newBaseService(options...),
		store:       store,
		pools:       pools,
		transfers:   transfers,
		publisher:   publisher,
		batchSize:   defaultRelayBatchSize,
	}
}

var _ portssvc.ReconciliationSvc = (*reconciliationService)(nil)

// Sweep expires pools, finishes interrupted transfers, audits every pool and
// relays the outbox. A failing step is logged and the others still run.
func (s *reconciliationService) Sweep(ctx context.Context) (*domain.SweepReport, error) {
	report := &domain.SweepReport{
		ExpiredPools:      []string{},
		RepairedTransfers: []string{},
		Drifts:            []domain.PoolDrift{},
	}

	var errs []error
	if err := s.expirePools(ctx, report); err != nil {
		errs = append(errs, fmt.Errorf("expire pools: %w", err))
	}
	if err := s.repairTransfers(ctx, report); err != nil {
		errs = append(errs, fmt.Errorf("repair transfers: %w", err))
	}
	if err := s.auditPools(ctx, report); err != nil {
		errs = append(errs, fmt.Errorf("audit pools: %w", err))
	}
	if err := s.relayOutbox(ctx, report); err != nil {
		errs = append(errs, fmt.Errorf("relay outbox: %w", err))
	}

	s.LogInfo(ctx, "Reconciliation sweep finished",
		slog.Int("expired_pools", len(report.ExpiredPools)),
		slog.Int("repaired_transfers", len(report.RepairedTransfers)),
		slog.Int("drifts", len(report.Drifts)),
		slog.Int("published_events", report.PublishedEvents))
	return report, errors.Join(errs...)
}

func (s *reconciliationService) expirePools(ctx context.Context, report *domain.SweepReport) error {
	pools, err := s.pools.ListPools(ctx, portsrepo.PoolFilter{})
	if err != nil {
		return err
	}
	now := s.Now()
	for _, pool := range pools {
		if pool.Status == domain.PoolDraft || pool.Status.IsTerminal() || !pool.IsPastPeriod(now) {
			continue
		}
		if _, err := s.pools.ExpirePool(ctx, pool.PoolID, SystemActor); err != nil {
			s.LogError(ctx, err, "Failed to expire budget pool", slog.String("pool_id", pool.PoolID))
			continue
		}
		report.ExpiredPools = append(report.ExpiredPools, pool.PoolID)
	}
	return nil
}

func (s *reconciliationService) repairTransfers(ctx context.Context, report *domain.SweepReport) error {
	var dangling []domain.Transfer
	err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		list, err := tx.Transfers().ListDanglingTransfers(ctx)
		dangling = list
		return err
	})
	if err != nil {
		return err
	}
	for _, t := range dangling {
		if _, err := s.transfers.RepairDangling(ctx, t.TransferID); err != nil {
			s.LogError(ctx, err, "Failed to repair dangling transfer", slog.String("transfer_id", t.TransferID))
			continue
		}
		report.RepairedTransfers = append(report.RepairedTransfers, t.TransferID)
	}
	return nil
}

// auditPools compares each pool's counters with its allocations, and its
// completed payments with the allocations they settled. Drift is reported,
// never corrected.
func (s *reconciliationService) auditPools(ctx context.Context, report *domain.SweepReport) error {
	return readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		pools, err := tx.Pools().ListPools(ctx, portsrepo.PoolFilter{})
		if err != nil {
			return err
		}
		for _, pool := range pools {
			allocations, err := tx.Allocations().ListAllocationsByPool(ctx, pool.PoolID)
			if err != nil {
				return err
			}
			drifts := poolDrifts(pool, allocations)
			completed, err := completedPaymentsOnPool(ctx, tx, pool.PoolID)
			if err != nil {
				return err
			}
			if d, ok := settlementDrift(pool.PoolID, completed, allocations); ok {
				drifts = append(drifts, d)
			}
			for _, d := range drifts {
				s.GetLogger(ctx).Error("Budget pool drift detected",
					slog.String("pool_id", d.PoolID),
					slog.String("field", d.Field),
					slog.String("recorded", d.Recorded.String()),
					slog.String("from_allocations", d.FromAllocations.String()),
					slog.Bool("invariant_violated", d.InvariantViolated))
			}
			report.Drifts = append(report.Drifts, drifts...)
		}
		return nil
	})
}

func poolDrifts(pool domain.BudgetPool, allocations []domain.Allocation) []domain.PoolDrift {
	var drifts []domain.PoolDrift
	if err := accounting.CheckPoolInvariant(pool); err != nil {
		drifts = append(drifts, domain.PoolDrift{
			PoolID:            pool.PoolID,
			Field:             "conservation",
			Recorded:          pool.TotalAmount,
			FromAllocations:   pool.AllocatedAmount.Add(pool.ReservedAmount).Add(pool.SpentAmount),
			InvariantViolated: true,
		})
	}

	reserved, spent := decimal.Zero, decimal.Zero
	for _, a := range allocations {
		switch {
		case a.Status.HoldsReservation():
			reserved = reserved.Add(a.Amount)
		case a.Status == domain.AllocationPaid:
			spent = spent.Add(a.Amount)
		}
	}
	if !reserved.Equal(pool.ReservedAmount) {
		drifts = append(drifts, domain.PoolDrift{
			PoolID: pool.PoolID, Field: "reservedAmount", Recorded: pool.ReservedAmount, FromAllocations: reserved,
		})
	}
	if !spent.Equal(pool.SpentAmount) {
		drifts = append(drifts, domain.PoolDrift{
			PoolID: pool.PoolID, Field: "spentAmount", Recorded: pool.SpentAmount, FromAllocations: spent,
		})
	}
	return drifts
}

// completedPaymentsOnPool sums the completed payments drawn on a pool.
func completedPaymentsOnPool(ctx context.Context, tx portsrepo.LedgerTx, poolID string) (decimal.Decimal, error) {
	total := decimal.Zero
	filter := portsrepo.PaymentFilter{PoolID: poolID, Status: domain.PaymentCompleted, Limit: pagination.MaxLimit}
	for {
		page, next, err := tx.Payments().ListPayments(ctx, filter)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to list completed payments: %w", err)
		}
		for _, p := range page {
			total = total.Add(p.Amount)
		}
		if next == nil {
			return total, nil
		}
		filter.NextToken = next
	}
}

// settlementDrift compares completed payments on a pool with the paid
// allocations those payments own.
func settlementDrift(poolID string, completed decimal.Decimal, allocations []domain.Allocation) (domain.PoolDrift, bool) {
	settled := decimal.Zero
	for _, a := range allocations {
		if a.PaymentID != nil && a.Status == domain.AllocationPaid {
			settled = settled.Add(a.Amount)
		}
	}
	if settled.Equal(completed) {
		return domain.PoolDrift{}, false
	}
	return domain.PoolDrift{
		PoolID: poolID, Field: "completedPayments", Recorded: completed, FromAllocations: settled,
	}, true
}

// relayOutbox publishes pending events in batches and marks each batch
// published in its own transaction.
func (s *reconciliationService) relayOutbox(ctx context.Context, report *domain.SweepReport) error {
	if s.publisher == nil {
		return nil
	}
	for {
		var pending []domain.DomainEvent
		err := readOnly(ctx, s.store, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			list, err := tx.Outbox().ListPendingEvents(ctx, s.batchSize)
			pending = list
			return err
		})
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		published := make([]string, 0, len(pending))
		var publishErr error
		for _, event := range pending {
			if err := s.publisher.Publish(ctx, event); err != nil {
				publishErr = fmt.Errorf("publish event %s: %w", event.EventID, err)
				break
			}
			published = append(published, event.EventID)
		}

		if len(published) > 0 {
			err := s.store.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
				return tx.Outbox().MarkEventsPublished(ctx, published)
			})
			if err != nil {
				return err
			}
			report.PublishedEvents += len(published)
		}
		if publishErr != nil {
			return publishErr
		}
		if len(pending) < s.batchSize {
			return nil
		}
	}
}

// ReconciliationScheduler runs the sweep on a fixed interval.
type ReconciliationScheduler struct {
	svc      portssvc.ReconciliationSvc
	interval time.Duration
	logger   *slog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReconciliationScheduler creates a stopped scheduler.
func NewReconciliationScheduler(svc portssvc.ReconciliationSvc, interval time.Duration, logger *slog.Logger) *ReconciliationScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationScheduler{svc: svc, interval: interval, logger: logger}
}

// Start runs one sweep immediately and then one per interval until Stop.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		return
	}
	rs.ticker = time.NewTicker(rs.interval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)
	go rs.run(rs.ticker, rs.stop)

	rs.logger.Info("Reconciliation scheduler started", slog.Duration("interval", rs.interval))
}

// Stop halts the ticker and waits for a running sweep to finish.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil
	rs.logger.Info("Reconciliation scheduler stopped")
}

func (rs *ReconciliationScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	rs.sweep(stop)
	for {
		select {
		case <-ticker.C:
			rs.sweep(stop)
		case <-stop:
			return
		}
	}
}

func (rs *ReconciliationScheduler) sweep(stop <-chan struct{}) {
	ctx, cancel := context.WithCancel(middleware.WithLogger(context.Background(), rs.logger))
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := rs.svc.Sweep(ctx); err != nil {
		rs.logger.Error("Reconciliation sweep failed", slog.String("error", err.Error()))
	}
}
