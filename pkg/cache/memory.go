package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/diallo-dev/coffrefort-backend/pkg/metrics"
)

// Memory is the in-process Store. Lookups evict expired entries lazily; an
// optional sweeper reclaims entries nobody reads again. One instance per
// process means a multi-instance deployment only converges via TTL. Use the
// Redis store when that matters.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	flight  singleflight.Group
	metrics *metrics.CacheMetrics

	now func() time.Time

	sweepOnce sync.Once
	sweeping  atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemory builds an empty in-process cache. cacheMetrics may be nil.
func NewMemory(cacheMetrics *metrics.CacheMetrics) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		metrics: cacheMetrics,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (m *Memory) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	if value, ok := m.lookup(key); ok {
		m.metrics.IncHit(key)
		return value, nil
	}

	m.metrics.IncMiss(key)
	result, err, _ := m.flight.Do(key, func() (any, error) {
		// A racing caller may have populated the key while this one waited
		// on the flight group.
		if value, ok := m.lookup(key); ok {
			return value, nil
		}

		start := m.now()
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		m.metrics.ObserveCompute(key, m.now().Sub(start))

		m.store(key, value, ttl)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	m.metrics.IncInvalidation(key)
	return nil
}

func (m *Memory) InvalidatePattern(_ context.Context, prefix string) error {
	m.mu.Lock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
	m.metrics.IncInvalidation(prefix)
	return nil
}

// StartSweeper launches the periodic cleanup of expired entries. Stop it
// with Close. Calling it more than once is a no-op.
func (m *Memory) StartSweeper(interval time.Duration) {
	m.sweepOnce.Do(func() {
		m.sweeping.Store(true)
		go m.sweep(interval)
	})
}

// Close stops the sweeper, if one was started, and waits for it to exit.
func (m *Memory) Close() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	if m.sweeping.Load() {
		<-m.done
	}
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) sweep(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictExpired()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) evictExpired() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
			evicted++
		}
	}
	return evicted
}

func (m *Memory) lookup(key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if entry.expired(m.now()) {
		m.mu.Lock()
		if current, still := m.entries[key]; still && current.expired(m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (m *Memory) store(key string, value []byte, ttl time.Duration) {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
}
