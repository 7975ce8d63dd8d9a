// Package memory is an in-process LedgerStore. Transactions stage their writes
// and validate entity versions when committing, which gives the same
// optimistic-concurrency behaviour as the PostgreSQL store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
)

const insertMarker int64 = -1

// Store keeps committed ledger state in maps guarded by one RWMutex.
type Store struct {
	mu          sync.RWMutex
	pools       map[string]domain.BudgetPool
	allocations map[string]domain.Allocation
	payments    map[string]domain.Payment
	requests    map[string]domain.AidRequest
	transfers   map[string]domain.Transfer
	events      []domain.DomainEvent

	beforeCommit func()
}

// Option configures a Store.
type Option func(*Store)

// WithBeforeCommit installs a hook that runs before each commit is validated.
// Tests use it to interleave a competing writer.
func WithBeforeCommit(hook func()) Option {
	return func(s *Store) {
		s.beforeCommit = hook
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		pools:       make(map[string]domain.BudgetPool),
		allocations: make(map[string]domain.Allocation),
		payments:    make(map[string]domain.Payment),
		requests:    make(map[string]domain.AidRequest),
		transfers:   make(map[string]domain.Transfer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portsrepo.LedgerStore = (*Store)(nil)

// NewRepositoryProvider wraps a fresh store for the service container.
func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{Store: NewStore()}
}

// WithinTx runs fn against a staging transaction and commits it if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(s)
	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.beforeCommit != nil {
		s.beforeCommit()
	}
	return s.commit(t)
}

type stagedWrite[T any] struct {
	value    T
	expected int64
}

type stage[T any] map[string]stagedWrite[T]

func (st stage[T]) put(id string, value T, expected int64) {
	if prev, ok := st[id]; ok {
		expected = prev.expected
	}
	st[id] = stagedWrite[T]{value: value, expected: expected}
}

func validateStage[T any](kind string, st stage[T], committed map[string]T, version func(T) int64) error {
	for id, w := range st {
		current, exists := committed[id]
		if w.expected == insertMarker {
			if exists {
				return fmt.Errorf("%s %s: %w", kind, id, apperrors.ErrDuplicate)
			}
			continue
		}
		if !exists || version(current) != w.expected {
			return fmt.Errorf("%s %s changed since it was read: %w", kind, id, apperrors.ErrConcurrentModification)
		}
	}
	return nil
}

func applyStage[T any](st stage[T], committed map[string]T) {
	for id, w := range st {
		committed[id] = w.value
	}
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checks := []error{
		validateStage("pool", t.pools, s.pools, func(p domain.BudgetPool) int64 { return p.Version }),
		validateStage("allocation", t.allocations, s.allocations, func(a domain.Allocation) int64 { return a.Version }),
		validateStage("payment", t.payments, s.payments, func(p domain.Payment) int64 { return p.Version }),
		validateStage("request", t.requests, s.requests, func(r domain.AidRequest) int64 { return r.Version }),
		validateStage("transfer", t.transfers, s.transfers, func(tr domain.Transfer) int64 { return tr.Version }),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if err := s.checkActiveAllocationUniqueness(t); err != nil {
		return err
	}

	applyStage(t.pools, s.pools)
	applyStage(t.allocations, s.allocations)
	applyStage(t.payments, s.payments)
	applyStage(t.requests, s.requests)
	applyStage(t.transfers, s.transfers)
	s.events = append(s.events, t.events...)
	for i := range s.events {
		if at, ok := t.published[s.events[i].EventID]; ok && s.events[i].PublishedAt == nil {
			s.events[i].PublishedAt = domain.TimePtr(at)
		}
	}
	return nil
}

// checkActiveAllocationUniqueness mirrors the partial unique index of the SQL
// schema: one active allocation per (request, pool).
func (s *Store) checkActiveAllocationUniqueness(t *tx) error {
	for id, w := range t.allocations {
		a := w.value
		if !a.Status.IsActive() {
			continue
		}
		for otherID, other := range s.allocations {
			if otherID == id || !other.Status.IsActive() {
				continue
			}
			if other.RequestID != a.RequestID || other.PoolID != a.PoolID {
				continue
			}
			if staged, ok := t.allocations[otherID]; ok && !staged.value.Status.IsActive() {
				continue
			}
			return fmt.Errorf("active allocation for request %s in pool %s committed concurrently: %w",
				a.RequestID, a.PoolID, apperrors.ErrConcurrentModification)
		}
	}
	return nil
}
