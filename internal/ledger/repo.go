package ledger

import (
	"context"
	"time"

	"github.com/diallo-dev/coffrefort-backend/internal/repo"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads the event streams a balance is rebuilt from.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	SafeExists(ctx context.Context, safeID uuid.UUID) (bool, error)
	LatestInventory(ctx context.Context, safeID uuid.UUID, asOf *time.Time) (*models.Inventory, error)
	ListInventories(ctx context.Context, safeID uuid.UUID, from, to *time.Time) ([]models.Inventory, error)
	ListMovements(ctx context.Context, safeID uuid.UUID, from, to *time.Time, includeDeleted bool) ([]models.Movement, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) SafeExists(ctx context.Context, safeID uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB(ctx).
		Model(&models.Safe{}).
		Where("id = ?", safeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LatestInventory returns the checkpoint inventory for asOf, or nil when the
// safe has never been counted. Ties on counted_at resolve to the row
// inserted last.
func (r *repository) LatestInventory(ctx context.Context, safeID uuid.UUID, asOf *time.Time) (*models.Inventory, error) {
	query := r.DB(ctx).
		Where("safe_id = ?", safeID).
		Order("counted_at DESC, seq DESC")
	if asOf != nil {
		query = query.Where("counted_at <= ?", *asOf)
	}

	var inventories []models.Inventory
	if err := query.Limit(1).Find(&inventories).Error; err != nil {
		return nil, err
	}
	if len(inventories) == 0 {
		return nil, nil
	}
	return &inventories[0], nil
}

func (r *repository) ListInventories(ctx context.Context, safeID uuid.UUID, from, to *time.Time) ([]models.Inventory, error) {
	query := r.DB(ctx).
		Preload("Details").
		Where("safe_id = ?", safeID).
		Order("counted_at ASC, seq ASC")
	if from != nil {
		query = query.Where("counted_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("counted_at <= ?", *to)
	}

	var inventories []models.Inventory
	if err := query.Find(&inventories).Error; err != nil {
		return nil, err
	}
	return inventories, nil
}

func (r *repository) ListMovements(ctx context.Context, safeID uuid.UUID, from, to *time.Time, includeDeleted bool) ([]models.Movement, error) {
	query := r.DB(ctx).
		Preload("Details").
		Where("safe_id = ?", safeID).
		Order("happened_at ASC")
	if from != nil {
		query = query.Where("happened_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("happened_at <= ?", *to)
	}
	if !includeDeleted {
		query = query.Where("deleted_at IS NULL")
	}

	var movements []models.Movement
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
