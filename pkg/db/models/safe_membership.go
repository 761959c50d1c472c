package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
)

// SafeMembership links a user with a safe and captures their role.
// Membership gates read/write access to the safe's ledger.
type SafeMembership struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SafeID    uuid.UUID        `gorm:"column:safe_id;type:uuid;not null"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Role      enums.MemberRole `gorm:"column:role;type:member_role;not null"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}
