package rooms

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/livenotify/pkg/identity"
)

// ErrNoIdentity is returned when syncing rooms for the zero identity.
var ErrNoIdentity = errors.New("rooms: no identity")

// StaleIdentityError is returned by SyncRooms when the identity being synced
// is no longer the live one.
type StaleIdentityError struct {
	Requested identity.Identity
	Live      identity.Identity
}

func (e *StaleIdentityError) Error() string {
	return fmt.Sprintf("rooms: identity %s is stale, live identity is %s", e.Requested, e.Live)
}

func IsStaleIdentityError(err error) bool {
	var e *StaleIdentityError
	return errors.As(err, &e)
}
