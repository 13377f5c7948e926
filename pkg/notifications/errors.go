package notifications

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification is not found.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrMissingID is returned when storing a notification without an id.
	ErrMissingID = errors.New("notification ID is required")
	// ErrMissingUserID is returned when storing a notification without a recipient.
	ErrMissingUserID = errors.New("user ID is required")
	// ErrDuplicateID is returned when a recipient already has a notification with the same id.
	ErrDuplicateID = errors.New("notification ID already exists for user")
)
