package inventories

import (
	"context"
	"testing"
	"time"

	"github.com/diallo-dev/coffrefort-backend/internal/audit"
	"github.com/diallo-dev/coffrefort-backend/internal/denominations"
	"github.com/diallo-dev/coffrefort-backend/internal/memberships"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
	pkgerrors "github.com/diallo-dev/coffrefort-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubInventoriesRepo struct {
	inventories map[uuid.UUID]*models.Inventory
}

func newStubInventoriesRepo() *stubInventoriesRepo {
	return &stubInventoriesRepo{inventories: make(map[uuid.UUID]*models.Inventory)}
}

func (s *stubInventoriesRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubInventoriesRepo) Create(ctx context.Context, inventory *models.Inventory) error {
	s.inventories[inventory.ID] = inventory
	return nil
}

func (s *stubInventoriesRepo) Get(ctx context.Context, id uuid.UUID) (*models.Inventory, error) {
	inventory, ok := s.inventories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *inventory
	return &copied, nil
}

func (s *stubInventoriesRepo) List(ctx context.Context, safeID uuid.UUID, from, to *time.Time) ([]models.Inventory, error) {
	var out []models.Inventory
	for _, inventory := range s.inventories {
		if inventory.SafeID == safeID {
			out = append(out, *inventory)
		}
	}
	return out, nil
}

type stubMemberships struct {
	roles   map[uuid.UUID]map[uuid.UUID]enums.MemberRole
	members map[uuid.UUID][]uuid.UUID
}

func newStubMemberships() *stubMemberships {
	return &stubMemberships{
		roles:   make(map[uuid.UUID]map[uuid.UUID]enums.MemberRole),
		members: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *stubMemberships) grant(safeID, userID uuid.UUID, role enums.MemberRole) {
	if s.roles[safeID] == nil {
		s.roles[safeID] = make(map[uuid.UUID]enums.MemberRole)
	}
	s.roles[safeID][userID] = role
	s.members[safeID] = append(s.members[safeID], userID)
}

func (s *stubMemberships) WithTx(tx *gorm.DB) memberships.Repository { return s }

func (s *stubMemberships) Create(ctx context.Context, safeID, userID uuid.UUID, role enums.MemberRole) (*models.SafeMembership, error) {
	return &models.SafeMembership{SafeID: safeID, UserID: userID, Role: role}, nil
}

func (s *stubMemberships) Get(ctx context.Context, userID, safeID uuid.UUID) (*models.SafeMembership, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMemberships) UserHasRole(ctx context.Context, userID, safeID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	held, ok := s.roles[safeID][userID]
	if !ok {
		return false, nil
	}
	for _, role := range roles {
		if role == held {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubMemberships) ListUserSafeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *stubMemberships) ListMemberUserIDs(ctx context.Context, safeID uuid.UUID) ([]uuid.UUID, error) {
	return s.members[safeID], nil
}

func (s *stubMemberships) DeleteBySafe(ctx context.Context, safeID uuid.UUID) error { return nil }

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	return fn(ctx, nil)
}

type stubHook struct {
	calls int
}

func (s *stubHook) SafeMutated(ctx context.Context, safeID uuid.UUID, memberIDs []uuid.UUID) {
	s.calls++
}

type stubAudit struct {
	entries []audit.Entry
}

func (s *stubAudit) Record(ctx context.Context, entry audit.Entry) {
	s.entries = append(s.entries, entry)
}

func newTestService(t *testing.T) (Service, *stubInventoriesRepo, *stubMemberships, *stubHook, *stubAudit) {
	t.Helper()
	repo := newStubInventoriesRepo()
	members := newStubMemberships()
	hook := &stubHook{}
	recorder := &stubAudit{}
	svc, err := NewService(repo, members, stubTx{}, hook, recorder)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo, members, hook, recorder
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s", code, typed.Code())
	}
}

func TestService_Create(t *testing.T) {
	svc, _, members, hook, recorder := newTestService(t)
	safeID := uuid.New()
	actor := uuid.New()
	members.grant(safeID, actor, enums.MemberRoleManager)

	inventory, err := svc.Create(context.Background(), CreateInput{
		SafeID:      safeID,
		ActorUserID: actor,
		CountedAt:   time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC),
		Details: []denominations.Detail{
			{DenominationCents: 50000, Quantity: 2},
			{DenominationCents: 1000, Quantity: 10},
			{DenominationCents: 500, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inventory.TotalCents != 110500 {
		t.Fatalf("expected derived total 110500, got %d", inventory.TotalCents)
	}
	if inventory.CountedByUserID != actor {
		t.Fatalf("unexpected counter %s", inventory.CountedByUserID)
	}

	if hook.calls != 1 {
		t.Fatalf("expected one invalidation, got %d", hook.calls)
	}
	if len(recorder.entries) != 1 || recorder.entries[0].Action != enums.AuditActionInventoryCreated {
		t.Fatalf("unexpected audit entries %+v", recorder.entries)
	}
}

func TestService_Create_DeclaredTotalMismatch(t *testing.T) {
	svc, _, members, hook, _ := newTestService(t)
	safeID := uuid.New()
	actor := uuid.New()
	members.grant(safeID, actor, enums.MemberRoleOwner)

	declared := int64(99999)
	_, err := svc.Create(context.Background(), CreateInput{
		SafeID:             safeID,
		ActorUserID:        actor,
		Details:            []denominations.Detail{{DenominationCents: 1000, Quantity: 5}},
		DeclaredTotalCents: &declared,
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	if hook.calls != 0 {
		t.Fatal("no invalidation on a rejected count")
	}
}

func TestService_Create_ViewerForbidden(t *testing.T) {
	svc, _, members, _, _ := newTestService(t)
	safeID := uuid.New()
	viewer := uuid.New()
	members.grant(safeID, viewer, enums.MemberRoleViewer)

	_, err := svc.Create(context.Background(), CreateInput{
		SafeID:      safeID,
		ActorUserID: viewer,
		Details:     []denominations.Detail{{DenominationCents: 1000, Quantity: 1}},
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestService_List_RequiresMembership(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.List(context.Background(), ListInput{
		SafeID:      uuid.New(),
		ActorUserID: uuid.New(),
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}
