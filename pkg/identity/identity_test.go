package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/livenotify/pkg/identity"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name    string
		id      identity.Identity
		zero    bool
		admin   bool
		display string
	}{
		{"none", identity.Identity{}, true, false, "<none>"},
		{"admin", identity.New("u1", identity.RoleAdmin), false, true, "admin:u1"},
		{"normalized admin", identity.New(" u1 ", " ADMIN "), false, true, "admin:u1"},
		{"associate", identity.New("u2", identity.RoleAssociate), false, false, "associate:u2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.zero, tt.id.IsZero())
			assert.Equal(t, tt.admin, tt.id.IsAdmin())
			assert.Equal(t, tt.display, tt.id.String())
		})
	}
}

func TestIdentity_Equal(t *testing.T) {
	a := identity.New("u1", identity.RoleAdmin)
	assert.True(t, a.Equal(identity.New("u1", identity.RoleAdmin)))
	assert.False(t, a.Equal(identity.New("u1", identity.RoleAssociate)))
	assert.False(t, a.Equal(identity.New("u2", identity.RoleAdmin)))
}
