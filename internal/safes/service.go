package safes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diallo-dev/coffrefort-backend/internal/audit"
	"github.com/diallo-dev/coffrefort-backend/internal/ledger"
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

type balanceReader interface {
	BalanceUncached(ctx context.Context, safeID uuid.UUID, asOf *time.Time) (ledger.BalanceInfo, error)
}

// Service defines safe lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Safe, error)
	Update(ctx context.Context, input UpdateInput) (*models.Safe, error)
	Delete(ctx context.Context, safeID, actorUserID uuid.UUID) error
	Get(ctx context.Context, safeID, actorUserID uuid.UUID) (*models.Safe, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Safe, error)
}

type service struct {
	repo    Repository
	members memberships.Repository
	tx      txRunner
	hook    invalidator
	balance balanceReader
	audit   audit.Recorder
}

// CreateInput carries the data a new safe requires. The acting user becomes
// its owner.
type CreateInput struct {
	Name        string
	ActorUserID uuid.UUID
}

// UpdateInput renames a safe or toggles its active flag.
type UpdateInput struct {
	SafeID      uuid.UUID
	Name        string
	Active      bool
	ActorUserID uuid.UUID
}

// NewService wires a safe service.
func NewService(repo Repository, members memberships.Repository, tx txRunner, hook invalidator, balance balanceReader, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("safes repository required")
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
	if balance == nil {
		return nil, fmt.Errorf("balance reader required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, members: members, tx: tx, hook: hook, balance: balance, audit: recorder}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Safe, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "safe name required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	safe := &models.Safe{ID: uuid.New(), Name: input.Name, Active: true}
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, safe); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create safe")
		}
		if _, err := s.members.WithTx(tx).Create(ctx, safe.ID, input.ActorUserID, enums.MemberRoleOwner); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create owner membership")
		}

		db.AfterCommit(ctx, func(ctx context.Context) {
			s.hook.SafeMutated(ctx, safe.ID, []uuid.UUID{input.ActorUserID})
			s.audit.Record(ctx, audit.Entry{
				ActorUserID: input.ActorUserID,
				Action:      enums.AuditActionSafeCreated,
				Entity:      "safe",
				EntityID:    safe.ID,
				Detail:      mustDetail(map[string]any{"name": safe.Name}),
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return safe, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Safe, error) {
	if input.SafeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "safe id required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "safe name required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	allowed, err := s.members.UserHasRole(ctx, input.ActorUserID, input.SafeID, enums.MemberRoleOwner, enums.MemberRoleManager)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "write access to safe required")
	}

	var updated *models.Safe
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		safe, err := repo.Get(ctx, input.SafeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "safe not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load safe")
		}

		safe.Name = input.Name
		safe.Active = input.Active
		if err := repo.Update(ctx, safe); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update safe")
		}
		updated = safe

		memberIDs, err := s.members.WithTx(tx).ListMemberUserIDs(ctx, safe.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
		}

		db.AfterCommit(ctx, func(ctx context.Context) {
			s.hook.SafeMutated(ctx, safe.ID, memberIDs)
			s.audit.Record(ctx, audit.Entry{
				ActorUserID: input.ActorUserID,
				Action:      enums.AuditActionSafeUpdated,
				Entity:      "safe",
				EntityID:    safe.ID,
				Detail:      mustDetail(map[string]any{"name": safe.Name, "active": safe.Active}),
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a safe and its ledger history. Only an empty safe can go:
// the balance is recomputed from the database, never trusted from cache.
func (s *service) Delete(ctx context.Context, safeID, actorUserID uuid.UUID) error {
	if safeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "safe id required")
	}
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	allowed, err := s.members.UserHasRole(ctx, actorUserID, safeID, enums.MemberRoleOwner)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner may delete a safe")
	}

	info, err := s.balance.BalanceUncached(ctx, safeID, nil)
	if err != nil {
		if errors.Is(err, ledger.ErrSafeNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "safe not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute balance")
	}
	if info.AmountCents != 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "safe still holds money")
	}

	return s.tx.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		memberIDs, err := s.members.WithTx(tx).ListMemberUserIDs(ctx, safeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
		}

		if err := repo.DeleteLedgerData(ctx, safeID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete ledger data")
		}
		if err := s.members.WithTx(tx).DeleteBySafe(ctx, safeID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete memberships")
		}
		if err := repo.Delete(ctx, safeID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete safe")
		}

		db.AfterCommit(ctx, func(ctx context.Context) {
			s.hook.SafeMutated(ctx, safeID, memberIDs)
			s.audit.Record(ctx, audit.Entry{
				ActorUserID: actorUserID,
				Action:      enums.AuditActionSafeDeleted,
				Entity:      "safe",
				EntityID:    safeID,
			})
		})
		return nil
	})
}

func (s *service) Get(ctx context.Context, safeID, actorUserID uuid.UUID) (*models.Safe, error) {
	if safeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "safe id required")
	}

	member, err := s.members.UserHasRole(ctx, actorUserID, safeID,
		enums.MemberRoleOwner, enums.MemberRoleManager, enums.MemberRoleViewer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !member {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "membership required")
	}

	safe, err := s.repo.Get(ctx, safeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "safe not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load safe")
	}
	return safe, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Safe, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	ids, err := s.members.ListUserSafeIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user safes")
	}
	safes, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load safes")
	}
	return safes, nil
}

func mustDetail(v map[string]any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
