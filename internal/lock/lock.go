// Package lock provides per-key mutual exclusion for serializing
// roster mutations on a single campaign.
package lock

import "context"

// ReleaseFunc releases a held lock. It is safe to call exactly once,
// typically via defer.
type ReleaseFunc func()

// Locker acquires a mutual-exclusion lock for a key. Implementations
// must scope locks per key so unrelated campaigns never contend.
type Locker interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}
