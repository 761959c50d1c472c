// Package inventories records full physical counts. Each count becomes the
// checkpoint later balance reads start from, so rows are immutable once
// written.
package inventories

import (
	"context"
	"time"

	"github.com/diallo-dev/coffrefort-backend/internal/repo"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages inventory persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, inventory *models.Inventory) error
	Get(ctx context.Context, id uuid.UUID) (*models.Inventory, error)
	List(ctx context.Context, safeID uuid.UUID, from, to *time.Time) ([]models.Inventory, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, inventory *models.Inventory) error {
	return r.DB(ctx).Create(inventory).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Inventory, error) {
	var inventory models.Inventory
	err := r.DB(ctx).
		Preload("Details").
		Where("id = ?", id).
		First(&inventory).Error
	if err != nil {
		return nil, err
	}
	return &inventory, nil
}

func (r *repository) List(ctx context.Context, safeID uuid.UUID, from, to *time.Time) ([]models.Inventory, error) {
	query := r.DB(ctx).
		Preload("Details").
		Where("safe_id = ?", safeID).
		Order("counted_at DESC, seq DESC")
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
