// Package invalidation clears cache entries made stale by ledger writes.
// Hooks run after the owning transaction commits; a failed invalidation is
// logged and absorbed so the write it follows always stands. Stale entries
// left behind by a failure age out with the TTL.
package invalidation

import (
	"context"
	"fmt"

	"github.com/diallo-dev/coffrefort-backend/pkg/cache"
	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
	"github.com/diallo-dev/coffrefort-backend/pkg/metrics"
	"github.com/google/uuid"
)

// Hook invalidates the cached views of one safe after a mutation.
type Hook struct {
	store   cache.Store
	logg    *logger.Logger
	metrics *metrics.CacheMetrics
}

// NewHook wires an invalidation hook. cacheMetrics may be nil.
func NewHook(store cache.Store, logg *logger.Logger, cacheMetrics *metrics.CacheMetrics) (*Hook, error) {
	if store == nil {
		return nil, fmt.Errorf("invalidation cache store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("invalidation logger required")
	}
	return &Hook{store: store, logg: logg, metrics: cacheMetrics}, nil
}

// SafeMutated clears the safe's cached balance and every member's dashboard
// entries. Movements, inventories and safe lifecycle changes all funnel
// through here.
func (h *Hook) SafeMutated(ctx context.Context, safeID uuid.UUID, memberIDs []uuid.UUID) {
	key := cache.BalanceKey(safeID)
	if err := h.store.Invalidate(ctx, key); err != nil {
		h.logg.Error(h.logg.WithCacheKey(ctx, key), "balance invalidation failed", err)
	} else {
		h.metrics.IncInvalidation(key)
	}

	for _, userID := range memberIDs {
		prefix := cache.DashboardPrefix(userID)
		if err := h.store.InvalidatePattern(ctx, prefix); err != nil {
			h.logg.Error(h.logg.WithCacheKey(ctx, prefix), "dashboard invalidation failed", err)
			continue
		}
		h.metrics.IncInvalidation(prefix)
	}
}
