// Package identity describes who the current portal session belongs to.
// The zero Identity means there is no session.
package identity

import "strings"

// Role is the portal role attached to an identity.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleAssociate Role = "associate"
)

// Identity is supplied by the auth collaborator when a session starts.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// New builds an identity, normalizing the role name.
func New(id string, role Role) Identity {
	return Identity{ID: strings.TrimSpace(id), Role: Role(strings.ToLower(strings.TrimSpace(string(role))))}
}

// IsZero reports whether there is no session.
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// IsAdmin reports whether the identity has administrative privilege.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Equal compares id and role.
func (i Identity) Equal(other Identity) bool {
	return i.ID == other.ID && i.Role == other.Role
}

func (i Identity) String() string {
	if i.IsZero() {
		return "<none>"
	}
	return string(i.Role) + ":" + i.ID
}
