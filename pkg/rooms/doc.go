// Package rooms maps a session identity to the push rooms it belongs in and
// reconciles a client's membership with that set.
//
// Every identity is in its personal room "user:<id>". Administrators are
// also in "role:admin". When the identity changes, SyncRooms leaves what is
// no longer needed and joins what is missing, so an administrator demoted to
// associate stops receiving admin pushes.
package rooms
