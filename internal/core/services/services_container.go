package services

import (
	"fmt"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// The locker is only required for the pessimistic strategy; the publisher may be nil.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, locker Locker, publisher portssvc.EventPublisher, options ...ServiceOption) (*portssvc.ServiceContainer, error) {
	strategy, err := NewConcurrencyStrategy(cfg.ConcurrencyStrategy, repos.Store, locker, cfg.OptimisticMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to build concurrency strategy: %w", err)
	}

	container := &portssvc.ServiceContainer{}
	container.Pool = NewPoolService(repos.Store, strategy, cfg.DefaultCurrency, options...)
	container.Request = NewRequestService(repos.Store, strategy, options...)
	container.Allocation = NewAllocationService(repos.Store, strategy, options...)
	container.Payment = NewPaymentService(repos.Store, strategy, cfg.DefaultCurrency, options...)
	container.Transfer = NewTransferService(repos.Store, strategy, domain.TransferMode(cfg.TransferMode), options...)
	container.Reporting = NewReportingService(repos.Store, options...)

	// The sweep drives pools and transfers through their services so it
	// shares their locking and logging.
	container.Reconciliation = NewReconciliationService(repos.Store, container.Pool, container.Transfer, publisher, options...)
	container.Dispatcher = NewLedgerDispatcher(container)

	return container, nil
}
