package enums

import "fmt"

// MovementType maps to the movement_type_enum enum in Postgres.
type MovementType string

const (
	MovementTypeEntry MovementType = "entry"
	MovementTypeExit  MovementType = "exit"
)

var validMovementTypes = []MovementType{
	MovementTypeEntry,
	MovementTypeExit,
}

// IsValid reports whether the value matches the canonical movement type enum.
func (t MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Sign returns +1 for entries and -1 for exits.
func (t MovementType) Sign() int64 {
	if t == MovementTypeExit {
		return -1
	}
	return 1
}

// ParseMovementType converts raw input into MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
