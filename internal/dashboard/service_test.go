package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/diallo-dev/coffrefort-backend/internal/ledger"
	"github.com/diallo-dev/coffrefort-backend/internal/memberships"
	"github.com/diallo-dev/coffrefort-backend/pkg/cache"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
	pkgerrors "github.com/diallo-dev/coffrefort-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubReads struct {
	movements   map[uuid.UUID][]models.Movement
	inventories map[uuid.UUID][]models.Inventory
	listCalls   int
}

func newStubReads() *stubReads {
	return &stubReads{
		movements:   make(map[uuid.UUID][]models.Movement),
		inventories: make(map[uuid.UUID][]models.Inventory),
	}
}

func (s *stubReads) WithTx(tx *gorm.DB) ledger.Repository { return s }

func (s *stubReads) SafeExists(ctx context.Context, safeID uuid.UUID) (bool, error) {
	return true, nil
}

func (s *stubReads) LatestInventory(ctx context.Context, safeID uuid.UUID, asOf *time.Time) (*models.Inventory, error) {
	return ledger.SelectCheckpoint(s.inventories[safeID], asOf), nil
}

func (s *stubReads) ListInventories(ctx context.Context, safeID uuid.UUID, from, to *time.Time) ([]models.Inventory, error) {
	return s.inventories[safeID], nil
}

func (s *stubReads) ListMovements(ctx context.Context, safeID uuid.UUID, from, to *time.Time, includeDeleted bool) ([]models.Movement, error) {
	s.listCalls++
	return s.movements[safeID], nil
}

type stubMembers struct {
	safesByUser map[uuid.UUID][]uuid.UUID
}

func (s *stubMembers) WithTx(tx *gorm.DB) memberships.Repository { return s }

func (s *stubMembers) Create(ctx context.Context, safeID, userID uuid.UUID, role enums.MemberRole) (*models.SafeMembership, error) {
	return nil, nil
}

func (s *stubMembers) Get(ctx context.Context, userID, safeID uuid.UUID) (*models.SafeMembership, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMembers) UserHasRole(ctx context.Context, userID, safeID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	for _, id := range s.safesByUser[userID] {
		if id == safeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubMembers) ListUserSafeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.safesByUser[userID], nil
}

func (s *stubMembers) ListMemberUserIDs(ctx context.Context, safeID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *stubMembers) DeleteBySafe(ctx context.Context, safeID uuid.UUID) error { return nil }

func TestService_Stats(t *testing.T) {
	reads := newStubReads()
	members := &stubMembers{safesByUser: make(map[uuid.UUID][]uuid.UUID)}

	user := uuid.New()
	safeA := uuid.New()
	safeB := uuid.New()
	members.safesByUser[user] = []uuid.UUID{safeA, safeB}

	now := time.Now().UTC()
	reads.inventories[safeA] = []models.Inventory{
		{ID: uuid.New(), Seq: 1, SafeID: safeA, TotalCents: 100000, CountedAt: now.AddDate(0, 0, -10)},
	}
	reads.movements[safeA] = []models.Movement{
		{ID: uuid.New(), SafeID: safeA, UserID: user, Type: enums.MovementTypeEntry, AmountCents: 5000, HappenedAt: now.AddDate(0, 0, -3)},
	}
	reads.movements[safeB] = []models.Movement{
		{ID: uuid.New(), SafeID: safeB, UserID: user, Type: enums.MovementTypeEntry, AmountCents: 2000, HappenedAt: now.AddDate(0, 0, -2)},
		{ID: uuid.New(), SafeID: safeB, UserID: user, Type: enums.MovementTypeExit, AmountCents: 500, HappenedAt: now.AddDate(0, 0, -1)},
	}

	svc, err := NewService(reads, members, nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.Stats(context.Background(), user, uuid.Nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.TotalBalanceCents != 106500 {
		t.Fatalf("expected total 106500, got %d", view.TotalBalanceCents)
	}
	if len(view.Balances) != 2 {
		t.Fatalf("expected 2 per-safe balances, got %d", len(view.Balances))
	}
	if len(view.Activity) != 12 {
		t.Fatalf("expected 12 activity buckets, got %d", len(view.Activity))
	}
	if len(view.Denominations) != 7 {
		t.Fatalf("expected 7 denomination slices, got %d", len(view.Denominations))
	}
	if len(view.TopUsers) != 1 || view.TopUsers[0].Count != 3 {
		t.Fatalf("unexpected top users %+v", view.TopUsers)
	}
	if len(view.BalanceSeries) == 0 {
		t.Fatal("expected a balance series")
	}
	last := view.BalanceSeries[len(view.BalanceSeries)-1]
	if last.BalanceCents != view.TotalBalanceCents {
		t.Fatalf("series must end at the current total, got %d", last.BalanceCents)
	}
}

func TestService_Stats_EmptyUser(t *testing.T) {
	svc, err := NewService(newStubReads(), &stubMembers{safesByUser: make(map[uuid.UUID][]uuid.UUID)}, nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.Stats(context.Background(), uuid.New(), uuid.Nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.TotalBalanceCents != 0 || len(view.Balances) != 0 {
		t.Fatalf("expected empty view, got %+v", view)
	}
	if len(view.Activity) != 12 || len(view.Denominations) != 7 {
		t.Fatal("empty view must still carry zero-filled chart series")
	}
}

func TestService_Stats_ForbiddenSafe(t *testing.T) {
	svc, err := NewService(newStubReads(), &stubMembers{safesByUser: make(map[uuid.UUID][]uuid.UUID)}, nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Stats(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_Stats_Cached(t *testing.T) {
	reads := newStubReads()
	members := &stubMembers{safesByUser: make(map[uuid.UUID][]uuid.UUID)}
	user := uuid.New()
	safeID := uuid.New()
	members.safesByUser[user] = []uuid.UUID{safeID}
	reads.movements[safeID] = []models.Movement{
		{ID: uuid.New(), SafeID: safeID, UserID: user, Type: enums.MovementTypeEntry, AmountCents: 700, HappenedAt: time.Now().UTC()},
	}

	store := cache.NewMemory(nil)
	svc, err := NewService(reads, members, store, time.Minute, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		view, err := svc.Stats(ctx, user, uuid.Nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.TotalBalanceCents != 700 {
			t.Fatalf("expected 700, got %d", view.TotalBalanceCents)
		}
	}
	if reads.listCalls != 1 {
		t.Fatalf("expected one repository read, got %d", reads.listCalls)
	}

	// A prefix invalidation forces a recompute, the all-safes and the
	// narrowed variant alike.
	if err := store.InvalidatePattern(ctx, cache.DashboardPrefix(user)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Stats(ctx, user, uuid.Nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reads.listCalls != 2 {
		t.Fatalf("expected recompute after invalidation, got %d reads", reads.listCalls)
	}
}
