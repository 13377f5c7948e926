package rooms

import (
	"github.com/dmitrymomot/livenotify/pkg/identity"
)

const (
	userPrefix = "user:"
	rolePrefix = "role:"
)

// ForUser returns the personal room of a user.
func ForUser(id string) string {
	return userPrefix + id
}

// ForRole returns the shared room of a role.
func ForRole(role identity.Role) string {
	return rolePrefix + string(role)
}

// Target returns the rooms id should be a member of: its user room, plus the
// admin role room for administrators.
func Target(id identity.Identity) []string {
	if id.IsZero() {
		return nil
	}
	target := []string{ForUser(id.ID)}
	if id.IsAdmin() {
		target = append(target, ForRole(identity.RoleAdmin))
	}
	return target
}
