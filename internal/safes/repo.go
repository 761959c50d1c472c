// Package safes owns the lifecycle of the cash containers everything else
// hangs off: creation with an initial owner, renames, and the guarded
// deletion that refuses to drop a safe still holding money.
package safes

import (
	"context"

	"github.com/diallo-dev/coffrefort-backend/internal/repo"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages safe persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, safe *models.Safe) error
	Get(ctx context.Context, id uuid.UUID) (*models.Safe, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Safe, error)
	Update(ctx context.Context, safe *models.Safe) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteLedgerData(ctx context.Context, safeID uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a safe repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, safe *models.Safe) error {
	return r.DB(ctx).Create(safe).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Safe, error) {
	var safe models.Safe
	if err := r.DB(ctx).Where("id = ?", id).First(&safe).Error; err != nil {
		return nil, err
	}
	return &safe, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Safe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var safes []models.Safe
	if err := r.DB(ctx).
		Where("id IN ?", ids).
		Order("name").
		Find(&safes).Error; err != nil {
		return nil, err
	}
	return safes, nil
}

func (r *repository) Update(ctx context.Context, safe *models.Safe) error {
	return r.DB(ctx).
		Model(&models.Safe{}).
		Where("id = ?", safe.ID).
		Updates(map[string]any{
			"name":   safe.Name,
			"active": safe.Active,
		}).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Safe{}).Error
}

// DeleteLedgerData removes the safe's movements and inventories along with
// their detail lines. Runs inside the safe deletion transaction.
func (r *repository) DeleteLedgerData(ctx context.Context, safeID uuid.UUID) error {
	db := r.DB(ctx)

	if err := db.Exec(
		"DELETE FROM movement_details WHERE movement_id IN (SELECT id FROM movements WHERE safe_id = ?)",
		safeID,
	).Error; err != nil {
		return err
	}
	if err := db.Where("safe_id = ?", safeID).Delete(&models.Movement{}).Error; err != nil {
		return err
	}
	if err := db.Exec(
		"DELETE FROM inventory_details WHERE inventory_id IN (SELECT id FROM inventories WHERE safe_id = ?)",
		safeID,
	).Error; err != nil {
		return err
	}
	return db.Where("safe_id = ?", safeID).Delete(&models.Inventory{}).Error
}
