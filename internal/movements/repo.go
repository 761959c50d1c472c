// Package movements records the signed cash deltas of a safe. A movement's
// amount is never accepted from the caller; it is derived from the counted
// denomination lines. Deletion is a tombstone so history stays auditable.
package movements

import (
	"context"
	"time"

	"github.com/diallo-dev/coffrefort-backend/internal/repo"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages movement persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, movement *models.Movement) error
	Get(ctx context.Context, id uuid.UUID) (*models.Movement, error)
	Update(ctx context.Context, movement *models.Movement) error
	ReplaceDetails(ctx context.Context, movementID uuid.UUID, details []models.MovementDetail) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, safeID uuid.UUID, from, to *time.Time, includeDeleted bool, limit int) ([]models.Movement, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a movement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, movement *models.Movement) error {
	return r.DB(ctx).Create(movement).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Movement, error) {
	var movement models.Movement
	err := r.DB(ctx).
		Preload("Details").
		Where("id = ?", id).
		First(&movement).Error
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) Update(ctx context.Context, movement *models.Movement) error {
	return r.DB(ctx).
		Model(&models.Movement{}).
		Where("id = ?", movement.ID).
		Updates(map[string]any{
			"type":         movement.Type,
			"amount_cents": movement.AmountCents,
			"happened_at":  movement.HappenedAt,
		}).Error
}

// ReplaceDetails swaps the movement's denomination lines atomically with the
// surrounding transaction.
func (r *repository) ReplaceDetails(ctx context.Context, movementID uuid.UUID, details []models.MovementDetail) error {
	db := r.DB(ctx)
	if err := db.Where("movement_id = ?", movementID).Delete(&models.MovementDetail{}).Error; err != nil {
		return err
	}
	if len(details) == 0 {
		return nil
	}
	for i := range details {
		details[i].MovementID = movementID
	}
	return db.Create(&details).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.Movement{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", at).Error
}

func (r *repository) List(ctx context.Context, safeID uuid.UUID, from, to *time.Time, includeDeleted bool, limit int) ([]models.Movement, error) {
	query := r.DB(ctx).
		Preload("Details").
		Where("safe_id = ?", safeID).
		Order("happened_at DESC")
	if from != nil {
		query = query.Where("happened_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("happened_at <= ?", *to)
	}
	if !includeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var movements []models.Movement
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
