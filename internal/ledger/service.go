package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diallo-dev/coffrefort-backend/pkg/cache"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Service exposes balance reconstruction for single safes and aggregates.
type Service interface {
	// Balance returns the balance of one safe. Current balances (asOf nil)
	// are served through the cache; historical ones always recompute.
	Balance(ctx context.Context, safeID uuid.UUID, asOf *time.Time) (BalanceInfo, error)

	// BalanceUncached recomputes from the database, bypassing the cache.
	BalanceUncached(ctx context.Context, safeID uuid.UUID, asOf *time.Time) (BalanceInfo, error)

	// AggregateBalance sums the balances of several safes. Any safe that
	// cannot be computed fails the whole call with a
	// PartialComputationError naming it.
	AggregateBalance(ctx context.Context, safeIDs []uuid.UUID, asOf *time.Time) (int64, error)
}

type service struct {
	repo  Repository
	cache cache.Store
	ttl   time.Duration
}

// NewService wires a ledger service. store may be nil to disable caching.
func NewService(repo Repository, store cache.Store, ttl time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, cache: store, ttl: ttl}, nil
}

func (s *service) Balance(ctx context.Context, safeID uuid.UUID, asOf *time.Time) (BalanceInfo, error) {
	if safeID == uuid.Nil {
		return BalanceInfo{}, fmt.Errorf("safe id is required")
	}
	if asOf != nil || s.cache == nil {
		return s.BalanceUncached(ctx, safeID, asOf)
	}

	payload, err := s.cache.GetOrCompute(ctx, cache.BalanceKey(safeID), s.ttl, func(ctx context.Context) ([]byte, error) {
		info, err := s.BalanceUncached(ctx, safeID, nil)
		if err != nil {
			return nil, err
		}
		return json.Marshal(info)
	})
	if err != nil {
		return BalanceInfo{}, err
	}

	var info BalanceInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return BalanceInfo{}, fmt.Errorf("decode cached balance: %w", err)
	}
	return info, nil
}

func (s *service) BalanceUncached(ctx context.Context, safeID uuid.UUID, asOf *time.Time) (BalanceInfo, error) {
	if safeID == uuid.Nil {
		return BalanceInfo{}, fmt.Errorf("safe id is required")
	}

	exists, err := s.repo.SafeExists(ctx, safeID)
	if err != nil {
		return BalanceInfo{}, err
	}
	if !exists {
		return BalanceInfo{}, ErrSafeNotFound
	}

	checkpoint, err := s.repo.LatestInventory(ctx, safeID, asOf)
	if err != nil {
		return BalanceInfo{}, err
	}

	var inventories []models.Inventory
	var from *time.Time
	if checkpoint != nil {
		inventories = []models.Inventory{*checkpoint}
		from = &checkpoint.CountedAt
	}

	movements, err := s.repo.ListMovements(ctx, safeID, from, asOf, false)
	if err != nil {
		return BalanceInfo{}, err
	}

	return Reconstruct(inventories, movements, asOf), nil
}

func (s *service) AggregateBalance(ctx context.Context, safeIDs []uuid.UUID, asOf *time.Time) (int64, error) {
	var total int64
	for _, safeID := range safeIDs {
		info, err := s.Balance(ctx, safeID, asOf)
		if err != nil {
			return 0, &PartialComputationError{SafeID: safeID, Err: err}
		}
		total += info.AmountCents
	}
	return total, nil
}
