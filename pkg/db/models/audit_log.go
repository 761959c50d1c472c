package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
)

// AuditLog records who did what to which entity. Written fire-and-forget
// after commit; never blocks or rolls back the business write.
type AuditLog struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorUserID uuid.UUID         `gorm:"column:actor_user_id;type:uuid;not null"`
	Action      enums.AuditAction `gorm:"column:action;type:audit_action;not null"`
	Entity      string            `gorm:"column:entity;not null"`
	EntityID    uuid.UUID         `gorm:"column:entity_id;type:uuid;not null"`
	Detail      json.RawMessage   `gorm:"column:detail;type:jsonb"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
