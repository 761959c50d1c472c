package cache

import "github.com/google/uuid"

// Key layout: scope:scopeId:variant. The writers' mutation hook and the read
// services must agree on these exact shapes, so they live in one place.

// BalanceKey is the cached current balance of one safe.
func BalanceKey(safeID uuid.UUID) string {
	return "coffre-balance:" + safeID.String()
}

// DashboardKey is a user's dashboard view, optionally narrowed to one safe.
// variant is the safe id or empty for the all-safes view.
func DashboardKey(userID uuid.UUID, safeVariant string) string {
	return "dashboard:" + userID.String() + ":" + safeVariant
}

// DashboardPrefix matches every dashboard variant of one user.
func DashboardPrefix(userID uuid.UUID) string {
	return "dashboard:" + userID.String()
}
