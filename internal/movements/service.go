package movements

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

// Service defines movement write and read operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Movement, error)
	Update(ctx context.Context, input UpdateInput) (*models.Movement, error)
	SoftDelete(ctx context.Context, movementID, actorUserID uuid.UUID) error
	Get(ctx context.Context, movementID, actorUserID uuid.UUID) (*models.Movement, error)
	List(ctx context.Context, input ListInput) ([]models.Movement, error)
}

type service struct {
	repo    Repository
	members memberships.Repository
	tx      txRunner
	hook    invalidator
	audit   audit.Recorder
	now     func() time.Time
}

// CreateInput carries a new cash movement. AmountCents is derived from the
// denomination lines, never taken from the caller.
type CreateInput struct {
	SafeID      uuid.UUID
	ActorUserID uuid.UUID
	Type        enums.MovementType
	HappenedAt  time.Time
	Details     []denominations.Detail
}

// UpdateInput rewrites a movement's type, instant and denomination lines.
type UpdateInput struct {
	MovementID  uuid.UUID
	ActorUserID uuid.UUID
	Type        enums.MovementType
	HappenedAt  time.Time
	Details     []denominations.Detail
}

// ListInput filters a safe's movement history. Limit caps the number of
// rows returned; zero means no cap.
type ListInput struct {
	SafeID         uuid.UUID
	ActorUserID    uuid.UUID
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
	Limit          int
}

// NewService wires a movement service.
func NewService(repo Repository, members memberships.Repository, tx txRunner, hook invalidator, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movements repository required")
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

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Movement, error) {
	if input.SafeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "safe id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", input.Type))
	}
	amount, err := validateDetails(input.Details)
	if err != nil {
		return nil, err
	}

	if err := s.requireWrite(ctx, input.ActorUserID, input.SafeID); err != nil {
		return nil, err
	}

	happenedAt := input.HappenedAt
	if happenedAt.IsZero() {
		happenedAt = s.now().UTC()
	}

	movement := &models.Movement{
		ID:          uuid.New(),
		SafeID:      input.SafeID,
		UserID:      input.ActorUserID,
		Type:        input.Type,
		AmountCents: amount,
		HappenedAt:  happenedAt,
		Details:     toModelDetails(input.Details),
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create movement")
		}
		memberIDs, err := s.members.WithTx(tx).ListMemberUserIDs(ctx, input.SafeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
		}

		db.AfterCommit(ctx, func(ctx context.Context) {
			s.hook.SafeMutated(ctx, input.SafeID, memberIDs)
			s.audit.Record(ctx, audit.Entry{
				ActorUserID: input.ActorUserID,
				Action:      enums.AuditActionMovementCreated,
				Entity:      "movement",
				EntityID:    movement.ID,
				Detail:      movementDetail(movement),
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Movement, error) {
	if input.MovementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", input.Type))
	}
	amount, err := validateDetails(input.Details)
	if err != nil {
		return nil, err
	}

	var updated *models.Movement
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		movement, err := repo.Get(ctx, input.MovementID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "movement not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement")
		}
		if movement.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "movement is deleted")
		}

		if err := s.requireWrite(ctx, input.ActorUserID, movement.SafeID); err != nil {
			return err
		}

		movement.Type = input.Type
		movement.AmountCents = amount
		if !input.HappenedAt.IsZero() {
			movement.HappenedAt = input.HappenedAt
		}
		if err := repo.Update(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update movement")
		}
		movement.Details = toModelDetails(input.Details)
		if err := repo.ReplaceDetails(ctx, movement.ID, movement.Details); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace details")
		}
		updated = movement

		memberIDs, err := s.members.WithTx(tx).ListMemberUserIDs(ctx, movement.SafeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
		}

		db.AfterCommit(ctx, func(ctx context.Context) {
			s.hook.SafeMutated(ctx, movement.SafeID, memberIDs)
			s.audit.Record(ctx, audit.Entry{
				ActorUserID: input.ActorUserID,
				Action:      enums.AuditActionMovementUpdated,
				Entity:      "movement",
				EntityID:    movement.ID,
				Detail:      movementDetail(movement),
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDelete tombstones a movement. Deleting an already deleted movement is
// a no-op, so retries are safe.
func (s *service) SoftDelete(ctx context.Context, movementID, actorUserID uuid.UUID) error {
	if movementID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement id required")
	}
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		movement, err := repo.Get(ctx, movementID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "movement not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement")
		}

		if err := s.requireWrite(ctx, actorUserID, movement.SafeID); err != nil {
			return err
		}
		if movement.IsDeleted() {
			return nil
		}

		if err := repo.SoftDelete(ctx, movementID, s.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "soft delete movement")
		}

		memberIDs, err := s.members.WithTx(tx).ListMemberUserIDs(ctx, movement.SafeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
		}

		db.AfterCommit(ctx, func(ctx context.Context) {
			s.hook.SafeMutated(ctx, movement.SafeID, memberIDs)
			s.audit.Record(ctx, audit.Entry{
				ActorUserID: actorUserID,
				Action:      enums.AuditActionMovementSoftDeleted,
				Entity:      "movement",
				EntityID:    movementID,
			})
		})
		return nil
	})
}

func (s *service) Get(ctx context.Context, movementID, actorUserID uuid.UUID) (*models.Movement, error) {
	if movementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement id required")
	}

	movement, err := s.repo.Get(ctx, movementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "movement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement")
	}

	if err := s.requireMember(ctx, actorUserID, movement.SafeID); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.Movement, error) {
	if input.SafeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "safe id required")
	}
	if err := s.requireMember(ctx, input.ActorUserID, input.SafeID); err != nil {
		return nil, err
	}
	movements, err := s.repo.List(ctx, input.SafeID, input.From, input.To, input.IncludeDeleted, input.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return movements, nil
}

func (s *service) requireWrite(ctx context.Context, userID, safeID uuid.UUID) error {
	allowed, err := s.members.UserHasRole(ctx, userID, safeID, enums.MemberRoleOwner, enums.MemberRoleManager)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeForbidden, "write access to safe required")
	}
	return nil
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

func validateDetails(details []denominations.Detail) (int64, error) {
	if len(details) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "at least one denomination line required")
	}
	amount, err := denominations.SumDetails(details)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid denomination lines")
	}
	if amount <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "movement amount must be positive")
	}
	return amount, nil
}

func toModelDetails(details []denominations.Detail) []models.MovementDetail {
	out := make([]models.MovementDetail, 0, len(details))
	for _, d := range details {
		out = append(out, models.MovementDetail{
			DenominationCents: d.DenominationCents,
			Quantity:          d.Quantity,
		})
	}
	return out
}

func movementDetail(m *models.Movement) json.RawMessage {
	raw, err := json.Marshal(map[string]any{
		"safe_id":      m.SafeID,
		"type":         m.Type,
		"amount_cents": m.AmountCents,
		"happened_at":  m.HappenedAt,
	})
	if err != nil {
		return nil
	}
	return raw
}
