package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
)

// Movement is a signed cash delta on a safe. AmountCents is always stored
// non-negative; the sign is implied by Type. Soft deletion sets DeletedAt
// (tombstone) so history survives while the balance forgets the movement.
type Movement struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SafeID      uuid.UUID          `gorm:"column:safe_id;type:uuid;not null;index"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	Type        enums.MovementType `gorm:"column:type;type:movement_type_enum;not null"`
	AmountCents int64              `gorm:"column:amount_cents;not null"`
	HappenedAt  time.Time          `gorm:"column:happened_at;not null;index"`
	DeletedAt   *time.Time         `gorm:"column:deleted_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
	Details     []MovementDetail   `gorm:"foreignKey:MovementID;constraint:OnDelete:CASCADE"`
}

// IsDeleted reports whether the movement carries a tombstone.
func (m Movement) IsDeleted() bool {
	return m.DeletedAt != nil
}

// SignedAmountCents returns the movement's contribution to a balance.
func (m Movement) SignedAmountCents() int64 {
	return m.Type.Sign() * m.AmountCents
}

// MovementDetail is one (denomination, quantity) line. The weighted sum of a
// movement's lines must equal its AmountCents.
type MovementDetail struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MovementID        uuid.UUID `gorm:"column:movement_id;type:uuid;not null;index"`
	DenominationCents int64     `gorm:"column:denomination_cents;not null"`
	Quantity          int64     `gorm:"column:quantity;not null"`
}
