package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type is the closed set of portal notification kinds.
type Type string

const (
	TypeNewLead                  Type = "new_lead"
	TypeLeadAssigned             Type = "lead_assigned"
	TypeNewAssociateRegistration Type = "new_associate_registration"
	TypePackageCreated           Type = "package_created"
	TypeAdminApproval            Type = "admin_approval"
	TypeCommissionPaid           Type = "commission_paid"
	TypeTripComplete             Type = "trip_complete"
	TypeUnknown                  Type = "unknown"
)

var knownTypes = map[string]Type{}

func init() {
	for _, t := range []Type{
		TypeNewLead,
		TypeLeadAssigned,
		TypeNewAssociateRegistration,
		TypePackageCreated,
		TypeAdminApproval,
		TypeCommissionPaid,
		TypeTripComplete,
	} {
		knownTypes[normalizeType(string(t))] = t
	}
}

func normalizeType(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// ParseType maps a wire value to a Type, ignoring case and separators, so
// "NEW_LEAD", "newLead" and "new-lead" are all TypeNewLead. Anything else is
// TypeUnknown.
func ParseType(s string) Type {
	if t, ok := knownTypes[normalizeType(s)]; ok {
		return t
	}
	return TypeUnknown
}

// Valid reports whether t is one of the known kinds.
func (t Type) Valid() bool {
	return t != TypeUnknown && ParseType(string(t)) == t
}

func (t Type) String() string {
	if !t.Valid() {
		return string(TypeUnknown)
	}
	return string(t)
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	*t = ParseType(string(b))
	return nil
}

// ID is an opaque notification identifier. Servers may send it as a JSON
// string or number; it is always encoded as a string.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("notifications: id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Notification is one portal notification.
type Notification struct {
	ID        ID         `json:"id"`
	Type      Type       `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	IsRead    bool       `json:"is_read"`
	UserID    string     `json:"user_id,omitempty"`
	Role      string     `json:"role,omitempty"` // set when addressed to a role room
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// MarkAsRead marks the notification as read now. Already read notifications
// keep their original ReadAt.
func (n *Notification) MarkAsRead() {
	if n.IsRead && n.ReadAt != nil {
		return
	}
	n.IsRead = true
	now := time.Now()
	n.ReadAt = &now
}
