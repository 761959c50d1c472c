package enums

import "fmt"

// MemberRole maps to the member_role enum in Postgres.
type MemberRole string

const (
	MemberRoleOwner   MemberRole = "owner"
	MemberRoleManager MemberRole = "manager"
	MemberRoleViewer  MemberRole = "viewer"
)

var validMemberRoles = []MemberRole{
	MemberRoleOwner,
	MemberRoleManager,
	MemberRoleViewer,
}

// IsValid reports whether the value matches the canonical member role enum.
func (r MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanWrite reports whether the role may create or mutate safe data.
func (r MemberRole) CanWrite() bool {
	return r == MemberRoleOwner || r == MemberRoleManager
}

// ParseMemberRole converts raw input into MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
