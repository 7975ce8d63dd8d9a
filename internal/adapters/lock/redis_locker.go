package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// RedisOptions tunes the RedLock mutexes.
type RedisOptions struct {
	// Prefix is prepended to every key, e.g. "ledger:lock:".
	Prefix string
	// Expiry bounds how long a crashed holder can block others.
	Expiry      time.Duration
	Tries       int
	RetryDelay  time.Duration
	DriftFactor float64
}

// DefaultRedisOptions returns defaults sized for short ledger transactions.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Prefix:      "ledger:lock:",
		Expiry:      10 * time.Second,
		Tries:       64,
		RetryDelay:  50 * time.Millisecond,
		DriftFactor: 0.01,
	}
}

// RedisLocker is a distributed locker using the RedLock algorithm, so several
// API replicas can share the pessimistic strategy.
type RedisLocker struct {
	rs     *redsync.Redsync
	opts   RedisOptions
	logger *slog.Logger
}

// NewRedisLocker builds a locker over an existing go-redis client.
func NewRedisLocker(client redis.UniversalClient, opts RedisOptions) *RedisLocker {
	if opts.Tries <= 0 {
		opts.Tries = DefaultRedisOptions().Tries
	}
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultRedisOptions().Expiry
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRedisOptions().RetryDelay
	}
	if opts.DriftFactor <= 0 {
		opts.DriftFactor = DefaultRedisOptions().DriftFactor
	}
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: slog.Default(),
	}
}

// Acquire takes one RedLock mutex per key in sorted order.
func (l *RedisLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	ordered := normalizeKeys(keys)
	if len(ordered) == 0 {
		return nil, ErrNoKeys
	}

	mutexes := make([]*redsync.Mutex, 0, len(ordered))
	release := func() {
		// unlock must not depend on the caller's context, which may already be done
		unlockCtx, cancel := context.WithTimeout(context.Background(), l.opts.Expiry)
		defer cancel()
		for i := len(mutexes) - 1; i >= 0; i-- {
			if ok, err := mutexes[i].UnlockContext(unlockCtx); !ok || err != nil {
				l.logger.Error("failed to release lock",
					slog.String("lock_key", mutexes[i].Name()),
					slog.Bool("unlock_ok", ok),
					slog.Any("error", err))
			}
		}
	}

	for _, key := range ordered {
		m := l.rs.NewMutex(l.opts.Prefix+key,
			redsync.WithExpiry(l.opts.Expiry),
			redsync.WithTries(l.opts.Tries),
			redsync.WithRetryDelay(l.opts.RetryDelay),
			redsync.WithDriftFactor(l.opts.DriftFactor),
		)
		if err := m.LockContext(ctx); err != nil {
			release()
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		mutexes = append(mutexes, m)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
