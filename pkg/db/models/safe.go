package models

import (
	"time"

	"github.com/google/uuid"
)

// Safe is a named cash container whose balance is reconstructed from
// inventories (checkpoints) and movements (deltas).
type Safe struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
