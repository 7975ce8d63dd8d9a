package lock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/adapters/lock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type locker interface {
	Acquire(ctx context.Context, keys []string) (func(), error)
}

func newRedisLocker(t *testing.T) *lock.RedisLocker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	opts := lock.DefaultRedisOptions()
	opts.RetryDelay = 5 * time.Millisecond
	opts.Tries = 400
	return lock.NewRedisLocker(client, opts)
}

func lockers(t *testing.T) map[string]locker {
	return map[string]locker{
		"keyed mutex": lock.NewKeyedMutexLocker(),
		"redis":       newRedisLocker(t),
	}
}

func TestLocker_MutualExclusion(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			var inside int32
			var maxInside int32
			var wg sync.WaitGroup

			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					release, err := l.Acquire(context.Background(), []string{"pool:p1"})
					if !assert.NoError(t, err) {
						return
					}
					defer release()

					n := atomic.AddInt32(&inside, 1)
					for {
						m := atomic.LoadInt32(&maxInside)
						if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
							break
						}
					}
					time.Sleep(2 * time.Millisecond)
					atomic.AddInt32(&inside, -1)
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), maxInside)
		})
	}
}

func TestLocker_DifferentKeysDoNotBlock(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			releaseA, err := l.Acquire(context.Background(), []string{"pool:a"})
			require.NoError(t, err)
			defer releaseA()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			releaseB, err := l.Acquire(ctx, []string{"pool:b"})
			require.NoError(t, err)
			releaseB()
		})
	}
}

func TestLocker_ReleaseIsIdempotent(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			release, err := l.Acquire(context.Background(), []string{"pool:p1", "request:r1"})
			require.NoError(t, err)
			release()
			release()

			again, err := l.Acquire(context.Background(), []string{"request:r1", "pool:p1"})
			require.NoError(t, err)
			again()
		})
	}
}

func TestLocker_NoKeys(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := l.Acquire(context.Background(), nil)
			assert.ErrorIs(t, err, lock.ErrNoKeys)
		})
	}
}

func TestKeyedMutexLocker_ContextCancelReleasesPartialSet(t *testing.T) {
	l := lock.NewKeyedMutexLocker()

	holdB, err := l.Acquire(context.Background(), []string{"pool:b"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, []string{"pool:a", "pool:b"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// pool:a must not have stayed locked by the failed attempt
	quick, cancelQuick := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelQuick()
	releaseA, err := l.Acquire(quick, []string{"pool:a"})
	require.NoError(t, err)
	releaseA()
	holdB()
}

func TestLocker_OppositeOrderDoesNotDeadlock(t *testing.T) {
	l := lock.NewKeyedMutexLocker()
	var wg sync.WaitGroup
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, []string{"pool:a", "pool:b"})
			if assert.NoError(t, err) {
				release()
			}
		}()
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, []string{"pool:b", "pool:a"})
			if assert.NoError(t, err) {
				release()
			}
		}()
	}
	wg.Wait()
}
