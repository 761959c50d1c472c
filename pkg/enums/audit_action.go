package enums

import "fmt"

// AuditAction maps to the audit_action enum in Postgres.
type AuditAction string

const (
	AuditActionMovementCreated     AuditAction = "movement_created"
	AuditActionMovementUpdated     AuditAction = "movement_updated"
	AuditActionMovementSoftDeleted AuditAction = "movement_soft_deleted"
	AuditActionInventoryCreated    AuditAction = "inventory_created"
	AuditActionSafeCreated         AuditAction = "safe_created"
	AuditActionSafeUpdated         AuditAction = "safe_updated"
	AuditActionSafeDeleted         AuditAction = "safe_deleted"
)

var validAuditActions = []AuditAction{
	AuditActionMovementCreated,
	AuditActionMovementUpdated,
	AuditActionMovementSoftDeleted,
	AuditActionInventoryCreated,
	AuditActionSafeCreated,
	AuditActionSafeUpdated,
	AuditActionSafeDeleted,
}

// IsValid reports whether the value matches the canonical audit action enum.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
