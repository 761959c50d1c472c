package inventories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diallo-dev/coffrefort-backend/internal/audit"
	"github.com/diallo-dev/coffrefort-backend/internal/denominations"
	"github.com/diallo-dev/coffrefort-backend/internal/memberships"
	"github.com/diallo-dev/coffrefort-backend/pkg/db"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
	pkgerrors "github.com/diallo-dev/coffrefort-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error
}

type invalidator interface {
	SafeMutated(ctx context.Context, safeID uuid.UUID, memberIDs []uuid.UUID)
}

// Service defines inventory write and read operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Inventory, error)
	Get(ctx context.Context, inventoryID, actorUserID uuid.UUID) (*models.Inventory, error)
	List(ctx context.Context, input ListInput) ([]models.Inventory, error)
}

type service struct {
	repo    Repository
	members memberships.Repository
	tx      txRunner
	hook    invalidator
	audit   audit.Recorder
	now     func() time.Time
}

// CreateInput carries a full physical count. TotalCents is derived from the
// lines; DeclaredTotalCents, when set, must match it or the count is
// rejected as a miscount.
type CreateInput struct {
	SafeID             uuid.UUID
	ActorUserID        uuid.UUID
	CountedAt          time.Time
	Details            []denominations.Detail
	DeclaredTotalCents *int64
}

// ListInput filters a safe's count history.
type ListInput struct {
	SafeID      uuid.UUID
	ActorUserID uuid.UUID
	From        *time.Time
	To          *time.Time
}

// NewService wires an inventory service.
func NewService(repo Repository, members memberships.Repository, tx txRunner, hook invalidator, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventories repository required")
	}
	if members == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if hook == nil {
		return nil, fmt.Errorf("invalidation hook required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:    repo,
		members: members,
		tx:      tx,
		hook:    hook,
		audit:   recorder,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Inventory, error) {
	if input.SafeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "safe id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Details) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one denomination line required")
	}

	total, err := denominations.SumDetails(input.Details)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid denomination lines")
	}
	if input.DeclaredTotalCents != nil {
		if err := denominations.CheckTotal(input.Details, *input.DeclaredTotalCents); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "declared total does not match lines")
		}
	}

	allowed, err := s.members.UserHasRole(ctx, input.ActorUserID, input.SafeID, enums.MemberRoleOwner, enums.MemberRoleManager)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "write access to safe required")
	}

	countedAt := input.CountedAt
	if countedAt.IsZero() {
		countedAt = s.now().UTC()
	}

	inventory := &models.Inventory{
		ID:              uuid.New(),
		SafeID:          input.SafeID,
		CountedByUserID: input.ActorUserID,
		TotalCents:      total,
		CountedAt:       countedAt,
		Details:         toModelDetails(input.Details),
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, inventory); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory")
		}
		memberIDs, err := s.members.WithTx(tx).ListMemberUserIDs(ctx, input.SafeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
		}

		db.AfterCommit(ctx, func(ctx context.Context) {
			s.hook.SafeMutated(ctx, input.SafeID, memberIDs)
			s.audit.Record(ctx, audit.Entry{
				ActorUserID: input.ActorUserID,
				Action:      enums.AuditActionInventoryCreated,
				Entity:      "inventory",
				EntityID:    inventory.ID,
				Detail:      inventoryDetail(inventory),
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inventory, nil
}

func (s *service) Get(ctx context.Context, inventoryID, actorUserID uuid.UUID) (*models.Inventory, error) {
	if inventoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory id required")
	}

	inventory, err := s.repo.Get(ctx, inventoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	if err := s.requireMember(ctx, actorUserID, inventory.SafeID); err != nil {
		return nil, err
	}
	return inventory, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.Inventory, error) {
	if input.SafeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "safe id required")
	}
	if err := s.requireMember(ctx, input.ActorUserID, input.SafeID); err != nil {
		return nil, err
	}
	inventories, err := s.repo.List(ctx, input.SafeID, input.From, input.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventories")
	}
	return inventories, nil
}

func (s *service) requireMember(ctx context.Context, userID, safeID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	member, err := s.members.UserHasRole(ctx, userID, safeID,
		enums.MemberRoleOwner, enums.MemberRoleManager, enums.MemberRoleViewer)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !member {
		return pkgerrors.New(pkgerrors.CodeForbidden, "membership required")
	}
	return nil
}

func toModelDetails(details []denominations.Detail) []models.InventoryDetail {
	out := make([]models.InventoryDetail, 0, len(details))
	for _, d := range details {
		out = append(out, models.InventoryDetail{
			DenominationCents: d.DenominationCents,
			Quantity:          d.Quantity,
		})
	}
	return out
}

func inventoryDetail(inv *models.Inventory) json.RawMessage {
	raw, err := json.Marshal(map[string]any{
		"safe_id":     inv.SafeID,
		"total_cents": inv.TotalCents,
		"counted_at":  inv.CountedAt,
	})
	if err != nil {
		return nil
	}
	return raw
}
