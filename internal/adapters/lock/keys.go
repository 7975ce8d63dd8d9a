// Package lock provides the key-based lockers used by the pessimistic
// concurrency strategy.
package lock

import (
	"errors"
	"sort"
)

// ErrNoKeys is returned when Acquire is called without any key.
var ErrNoKeys = errors.New("lock: no keys to acquire")

// normalizeKeys sorts and de-duplicates keys so every caller acquires them
// in the same global order.
func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
