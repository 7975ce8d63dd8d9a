package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/cenkalti/backoff/v4"
)

// Strategy names accepted by NewConcurrencyStrategy.
const (
	StrategyOptimistic  = "optimistic"
	StrategyPessimistic = "pessimistic"
)

// DefaultOptimisticAttempts bounds how many times a conflicting operation is re-run.
const DefaultOptimisticAttempts = 3

// Locker acquires a set of keys. Implementations must take keys in a stable
// global order and release them all on every exit path.
type Locker interface {
	Acquire(ctx context.Context, keys []string) (release func(), err error)
}

// KeyResolver computes the lock keys of an operation. It runs before the
// transaction against a lock-free snapshot.
type KeyResolver func(ctx context.Context) ([]string, error)

// TxFunc is one logical ledger transaction.
type TxFunc func(ctx context.Context, tx portsrepo.LedgerTx) error

// ConcurrencyStrategy serializes ledger transactions touching the same pool.
type ConcurrencyStrategy interface {
	Execute(ctx context.Context, resolve KeyResolver, fn TxFunc) error
	Name() string
}

func poolKey(id string) string     { return "pool:" + id }
func requestKey(id string) string  { return "request:" + id }
func paymentKey(id string) string  { return "payment:" + id }
func transferKey(id string) string { return "transfer:" + id }

// staticKeys is a KeyResolver for keys known up front.
func staticKeys(keys ...string) KeyResolver {
	return func(context.Context) ([]string, error) { return keys, nil }
}

type optimisticStrategy struct {
	store           portsrepo.LedgerStore
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
}

// OptimisticOption configures the optimistic strategy.
type OptimisticOption func(*optimisticStrategy)

// WithMaxAttempts sets the total number of attempts, first run included.
func WithMaxAttempts(n int) OptimisticOption {
	return func(s *optimisticStrategy) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryInterval sets the initial and maximum backoff between attempts.
func WithRetryInterval(initial, maxInterval time.Duration) OptimisticOption {
	return func(s *optimisticStrategy) {
		s.initialInterval = initial
		s.maxInterval = maxInterval
	}
}

// NewOptimisticStrategy re-runs a transaction whose commit lost a version
// race, with exponential backoff, and gives up after maxAttempts.
func NewOptimisticStrategy(store portsrepo.LedgerStore, opts ...OptimisticOption) ConcurrencyStrategy {
	s := &optimisticStrategy{
		store:           store,
		maxAttempts:     DefaultOptimisticAttempts,
		initialInterval: 5 * time.Millisecond,
		maxInterval:     100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *optimisticStrategy) Name() string { return StrategyOptimistic }

func (s *optimisticStrategy) Execute(ctx context.Context, _ KeyResolver, fn TxFunc) error {
	attempts := 0
	operation := func() error {
		attempts++
		err := s.store.WithinTx(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, apperrors.ErrConcurrentModification) {
			slog.Default().Debug("ledger transaction conflicted, retrying",
				slog.Int("attempt", attempts), slog.String("error", err.Error()))
			return err
		}
		return backoff.Permanent(err)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.initialInterval
	expo.MaxInterval = s.maxInterval
	expo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(s.maxAttempts-1)), ctx)

	err := backoff.Retry(operation, policy)
	return asConcurrentModification(err, attempts)
}

type pessimisticStrategy struct {
	store  portsrepo.LedgerStore
	locker Locker
}

// NewPessimisticStrategy holds every key of an operation for the whole transaction.
func NewPessimisticStrategy(store portsrepo.LedgerStore, locker Locker) ConcurrencyStrategy {
	return &pessimisticStrategy{store: store, locker: locker}
}

func (s *pessimisticStrategy) Name() string { return StrategyPessimistic }

func (s *pessimisticStrategy) Execute(ctx context.Context, resolve KeyResolver, fn TxFunc) error {
	keys, err := resolve(ctx)
	if err != nil {
		return err
	}
	release, err := s.locker.Acquire(ctx, keys)
	if err != nil {
		return fmt.Errorf("failed to acquire ledger locks: %w", err)
	}
	defer release()

	return asConcurrentModification(s.store.WithinTx(ctx, fn), 1)
}

// NewConcurrencyStrategy builds the named strategy. The locker is only used
// by the pessimistic strategy.
func NewConcurrencyStrategy(name string, store portsrepo.LedgerStore, locker Locker, maxAttempts int) (ConcurrencyStrategy, error) {
	switch name {
	case "", StrategyOptimistic:
		return NewOptimisticStrategy(store, WithMaxAttempts(maxAttempts)), nil
	case StrategyPessimistic:
		if locker == nil {
			return nil, fmt.Errorf("pessimistic strategy requires a locker")
		}
		return NewPessimisticStrategy(store, locker), nil
	}
	return nil, fmt.Errorf("unknown concurrency strategy %q", name)
}

func asConcurrentModification(err error, attempts int) error {
	if err == nil || !errors.Is(err, apperrors.ErrConcurrentModification) {
		return err
	}
	var typed *apperrors.ConcurrentModificationError
	if errors.As(err, &typed) {
		return err
	}
	return &apperrors.ConcurrentModificationError{Attempts: attempts, Err: err}
}
