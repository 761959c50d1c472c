// Package cache holds the coordinator sitting between read handlers and the
// balance/dashboard computations. Implementations share one contract: a
// read-through lookup with per-key single-flight, point invalidation and
// prefix invalidation. Key semantics belong to callers; the coordinator
// treats keys as opaque strings.
package cache

import (
	"context"
	"errors"
	"time"
)

// ComputeFunc produces the serialized value for a missing key. It is invoked
// at most once per key across concurrent callers.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Store is the cache coordinator contract.
type Store interface {
	// GetOrCompute returns the cached value for key, or runs compute once,
	// stores the result with the TTL and returns it. Backend outages degrade
	// to a direct compute; compute errors are returned as-is.
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error)

	// Invalidate removes one entry. Missing keys are not an error.
	Invalidate(ctx context.Context, key string) error

	// InvalidatePattern removes every entry whose key starts with prefix.
	// Safe to call concurrently with GetOrCompute; an in-flight compute that
	// finishes afterwards may still populate a superseded value, which the
	// TTL or the next invalidation clears.
	InvalidatePattern(ctx context.Context, prefix string) error
}

// ErrUnavailable marks a cache backend outage. Implementations absorb it
// internally by degrading to direct computation; it is exported so tests and
// logs can recognize the condition.
var ErrUnavailable = errors.New("cache backend unavailable")
