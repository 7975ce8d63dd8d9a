package lock

import (
	"context"
	"sync"
)

type keyEntry struct {
	ch   chan struct{} // buffered(1); holding the token means holding the lock
	refs int
}

// KeyedMutexLocker is an in-process locker. Each key is an independent
// mutex, so callers on different pools never wait for each other.
type KeyedMutexLocker struct {
	mu      sync.Mutex
	entries map[string]*keyEntry
}

// NewKeyedMutexLocker creates an empty locker.
func NewKeyedMutexLocker() *KeyedMutexLocker {
	return &KeyedMutexLocker{entries: make(map[string]*keyEntry)}
}

func (l *KeyedMutexLocker) ref(key string) *keyEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *KeyedMutexLocker) unref(key string, e *keyEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Acquire locks every key in sorted order, blocking until all are held or
// ctx is done. On failure nothing stays locked.
func (l *KeyedMutexLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	ordered := normalizeKeys(keys)
	if len(ordered) == 0 {
		return nil, ErrNoKeys
	}

	held := make([]string, 0, len(ordered))
	entries := make([]*keyEntry, 0, len(ordered))
	releaseHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-entries[i].ch
			l.unref(held[i], entries[i])
		}
	}

	for _, key := range ordered {
		e := l.ref(key)
		select {
		case e.ch <- struct{}{}:
			held = append(held, key)
			entries = append(entries, e)
		case <-ctx.Done():
			l.unref(key, e)
			releaseHeld()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(releaseHeld) }, nil
}
