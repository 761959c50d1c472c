package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diallo-dev/coffrefort-backend/internal/ledger"
	"github.com/diallo-dev/coffrefort-backend/internal/memberships"
	"github.com/diallo-dev/coffrefort-backend/pkg/cache"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
	pkgerrors "github.com/diallo-dev/coffrefort-backend/pkg/errors"
	"github.com/diallo-dev/coffrefort-backend/pkg/metrics"
	"github.com/google/uuid"
)

const (
	histogramMonths   = 12
	distributionDays  = 30
	topUsersWindow    = 30
	topUsersLimit     = 5
	balanceSeriesBack = 5 // years
)

// SafeBalance pairs one safe with its reconstructed balance.
type SafeBalance struct {
	SafeID       uuid.UUID `json:"safe_id"`
	BalanceCents int64     `json:"balance_cents"`
}

// View is the cached dashboard payload for one user and safe selection.
type View struct {
	GeneratedAt       time.Time           `json:"generated_at"`
	SafeIDs           []uuid.UUID         `json:"safe_ids"`
	TotalBalanceCents int64               `json:"total_balance_cents"`
	Balances          []SafeBalance       `json:"balances"`
	CurrentMonth      Totals              `json:"current_month"`
	Activity          []ActivityBucket    `json:"activity"`
	Denominations     []DenominationSlice `json:"denominations"`
	BalanceSeries     []BalancePoint      `json:"balance_series"`
	TopUsers          []UserActivity      `json:"top_users"`
}

// Service composes the aggregation functions into cached dashboard reads.
type Service interface {
	// Stats returns the dashboard for one user. safeID narrows the view to
	// one safe; uuid.Nil means every safe the user belongs to.
	Stats(ctx context.Context, userID, safeID uuid.UUID) (*View, error)
}

type service struct {
	reads   ledger.Repository
	members memberships.Repository
	cache   cache.Store
	ttl     time.Duration
	metrics *metrics.CacheMetrics
	now     func() time.Time
}

// NewService wires a dashboard service. store may be nil to disable caching;
// cacheMetrics may be nil.
func NewService(reads ledger.Repository, members memberships.Repository, store cache.Store, ttl time.Duration, cacheMetrics *metrics.CacheMetrics) (Service, error) {
	if reads == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if members == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	return &service{
		reads:   reads,
		members: members,
		cache:   store,
		ttl:     ttl,
		metrics: cacheMetrics,
		now:     time.Now,
	}, nil
}

func (s *service) Stats(ctx context.Context, userID, safeID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	variant := ""
	if safeID != uuid.Nil {
		variant = safeID.String()
	}

	if s.cache == nil {
		return s.compute(ctx, userID, safeID)
	}

	key := cache.DashboardKey(userID, variant)
	payload, err := s.cache.GetOrCompute(ctx, key, s.ttl, func(ctx context.Context) ([]byte, error) {
		started := s.now()
		view, err := s.compute(ctx, userID, safeID)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveCompute(key, s.now().Sub(started))
		return json.Marshal(view)
	})
	if err != nil {
		return nil, err
	}

	var view View
	if err := json.Unmarshal(payload, &view); err != nil {
		return nil, fmt.Errorf("decode cached dashboard: %w", err)
	}
	return &view, nil
}

func (s *service) compute(ctx context.Context, userID, safeID uuid.UUID) (*View, error) {
	safeIDs, err := s.resolveSafeIDs(ctx, userID, safeID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	view := &View{
		GeneratedAt:   now,
		SafeIDs:       safeIDs,
		Balances:      make([]SafeBalance, 0, len(safeIDs)),
		Activity:      MonthlyActivityHistogram(nil, now, histogramMonths),
		Denominations: DenominationDistribution(nil, nil, now, distributionDays),
	}
	if len(safeIDs) == 0 {
		return view, nil
	}

	collections := make([]SafeCollections, 0, len(safeIDs))
	var allMovements [][]models.Movement
	for _, id := range safeIDs {
		movements, err := s.reads.ListMovements(ctx, id, nil, nil, false)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
		}
		inventories, err := s.reads.ListInventories(ctx, id, nil, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventories")
		}
		collections = append(collections, SafeCollections{SafeID: id, Movements: movements, Inventories: inventories})
		allMovements = append(allMovements, movements)

		info := ledger.Reconstruct(inventories, movements, nil)
		view.Balances = append(view.Balances, SafeBalance{SafeID: id, BalanceCents: info.AmountCents})
		view.TotalBalanceCents += info.AmountCents
	}

	merged := mergeMovements(allMovements)
	mergedInventories := mergeInventories(collections)

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	view.CurrentMonth = MonthlyTotals(merged, monthStart, monthEnd)
	view.Activity = MonthlyActivityHistogram(merged, now, histogramMonths)
	view.Denominations = DenominationDistribution(merged, mergedInventories, now, distributionDays)
	view.BalanceSeries = CombinedBalanceSeries(collections, now.AddDate(-balanceSeriesBack, 0, 0), now)
	view.TopUsers = TopActiveUsers(merged, now.AddDate(0, 0, -topUsersWindow), now, topUsersLimit)
	return view, nil
}

func (s *service) resolveSafeIDs(ctx context.Context, userID, safeID uuid.UUID) ([]uuid.UUID, error) {
	if safeID == uuid.Nil {
		ids, err := s.members.ListUserSafeIDs(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user safes")
		}
		return ids, nil
	}

	member, err := s.members.UserHasRole(ctx, userID, safeID,
		enums.MemberRoleOwner, enums.MemberRoleManager, enums.MemberRoleViewer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !member {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "membership required")
	}
	return []uuid.UUID{safeID}, nil
}

func mergeMovements(groups [][]models.Movement) []models.Movement {
	var total int
	for _, g := range groups {
		total += len(g)
	}
	merged := make([]models.Movement, 0, total)
	for _, g := range groups {
		merged = append(merged, g...)
	}
	return merged
}

func mergeInventories(collections []SafeCollections) []models.Inventory {
	var total int
	for _, c := range collections {
		total += len(c.Inventories)
	}
	merged := make([]models.Inventory, 0, total)
	for _, c := range collections {
		merged = append(merged, c.Inventories...)
	}
	return merged
}
