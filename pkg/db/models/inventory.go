package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory is a physical count checkpoint fixing the safe balance at an
// instant. Immutable once created; removed only by safe cascade.
//
// Seq is a monotonically increasing insert sequence. When two inventories
// share the same CountedAt instant, the one with the highest Seq wins as
// checkpoint, keeping reconstruction deterministic.
type Inventory struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Seq             int64             `gorm:"column:seq;autoIncrement;uniqueIndex;not null"`
	SafeID          uuid.UUID         `gorm:"column:safe_id;type:uuid;not null;index"`
	CountedByUserID uuid.UUID         `gorm:"column:counted_by_user_id;type:uuid;not null"`
	TotalCents      int64             `gorm:"column:total_cents;not null"`
	CountedAt       time.Time         `gorm:"column:counted_at;not null;index"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	Details         []InventoryDetail `gorm:"foreignKey:InventoryID;constraint:OnDelete:CASCADE"`
}

// InventoryDetail is one counted (denomination, quantity) line. The weighted
// sum of a checkpoint's lines must equal its TotalCents.
type InventoryDetail struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InventoryID       uuid.UUID `gorm:"column:inventory_id;type:uuid;not null;index"`
	DenominationCents int64     `gorm:"column:denomination_cents;not null"`
	Quantity          int64     `gorm:"column:quantity;not null"`
}
