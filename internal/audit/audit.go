// Package audit records who changed which ledger entity. Entries are written
// after the business transaction commits; a failed write is logged and
// dropped, never surfaced to the caller.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/diallo-dev/coffrefort-backend/internal/repo"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry captures one audit record before persistence.
type Entry struct {
	ActorUserID uuid.UUID
	Action      enums.AuditAction
	Entity      string
	EntityID    uuid.UUID
	Detail      json.RawMessage
}

// Recorder persists audit entries.
type Recorder interface {
	// Record writes the entry, absorbing any failure.
	Record(ctx context.Context, entry Entry)
}

type recorder struct {
	base repo.Base
	logg *logger.Logger
}

// NewRecorder wires an audit recorder backed by the provided database.
func NewRecorder(db *gorm.DB, logg *logger.Logger) (Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("audit database required")
	}
	if logg == nil {
		return nil, fmt.Errorf("audit logger required")
	}
	return &recorder{base: repo.NewBase(db), logg: logg}, nil
}

func (r *recorder) Record(ctx context.Context, entry Entry) {
	if !entry.Action.IsValid() {
		r.logg.Warn(r.logg.WithField(ctx, "audit_action", string(entry.Action)), "dropping audit entry with invalid action")
		return
	}

	row := &models.AuditLog{
		ActorUserID: entry.ActorUserID,
		Action:      entry.Action,
		Entity:      entry.Entity,
		EntityID:    entry.EntityID,
		Detail:      entry.Detail,
	}
	if err := r.base.DB(ctx).Create(row).Error; err != nil {
		ctx = r.logg.WithFields(ctx, map[string]any{
			"audit_action": string(entry.Action),
			"entity":       entry.Entity,
			"entity_id":    entry.EntityID.String(),
		})
		r.logg.Error(ctx, "audit entry dropped", err)
	}
}
