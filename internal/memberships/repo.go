// Package memberships answers who may see or mutate which safe. Every read
// and write path in the API goes through one of these checks before touching
// ledger data.
package memberships

import (
	"context"
	"fmt"

	"github.com/diallo-dev/coffrefort-backend/internal/repo"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes membership persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, safeID, userID uuid.UUID, role enums.MemberRole) (*models.SafeMembership, error)
	Get(ctx context.Context, userID, safeID uuid.UUID) (*models.SafeMembership, error)
	UserHasRole(ctx context.Context, userID, safeID uuid.UUID, roles ...enums.MemberRole) (bool, error)
	ListUserSafeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListMemberUserIDs(ctx context.Context, safeID uuid.UUID) ([]uuid.UUID, error)
	DeleteBySafe(ctx context.Context, safeID uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// Create persists a new membership record.
func (r *repository) Create(ctx context.Context, safeID, userID uuid.UUID, role enums.MemberRole) (*models.SafeMembership, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid member role %q", role)
	}

	membership := &models.SafeMembership{
		SafeID: safeID,
		UserID: userID,
		Role:   role,
	}
	if err := r.DB(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// Get retrieves a membership by user and safe.
func (r *repository) Get(ctx context.Context, userID, safeID uuid.UUID) (*models.SafeMembership, error) {
	var membership models.SafeMembership
	err := r.DB(ctx).
		Where("user_id = ? AND safe_id = ?", userID, safeID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// UserHasRole reports whether the user holds one of the provided roles for
// the safe.
func (r *repository) UserHasRole(ctx context.Context, userID, safeID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	var count int64
	err := r.DB(ctx).
		Model(&models.SafeMembership{}).
		Where("user_id = ? AND safe_id = ? AND role IN ?", userID, safeID, roles).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListUserSafeIDs returns the ids of every safe the user belongs to.
func (r *repository) ListUserSafeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.SafeMembership{}).
		Where("user_id = ?", userID).
		Order("created_at").
		Pluck("safe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListMemberUserIDs returns the ids of every user belonging to the safe.
// Invalidation hooks use this to clear each member's dashboard entries.
func (r *repository) ListMemberUserIDs(ctx context.Context, safeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.SafeMembership{}).
		Where("safe_id = ?", safeID).
		Order("created_at").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteBySafe removes every membership of the safe. Runs inside the safe
// deletion transaction.
func (r *repository) DeleteBySafe(ctx context.Context, safeID uuid.UUID) error {
	return r.DB(ctx).
		Where("safe_id = ?", safeID).
		Delete(&models.SafeMembership{}).Error
}
