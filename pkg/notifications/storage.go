package notifications

import (
	"context"
	"time"
)

// Storage handles notification persistence and retrieval on the server side.
// Notifications are kept per recipient; an id is unique within a recipient.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, notif Notification) error

	// Get retrieves a single notification.
	Get(ctx context.Context, userID string, id ID) (*Notification, error)

	// List returns notifications for a user, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// MarkRead marks notification(s) as read.
	MarkRead(ctx context.Context, userID string, ids ...ID) error

	// Delete removes notification(s).
	Delete(ctx context.Context, userID string, ids ...ID) error

	// CountUnread returns unread count for user.
	CountUnread(ctx context.Context, userID string) (int, error)
}

// ListOptions provides filtering and pagination options for listing notifications.
type ListOptions struct {
	Limit      int        // 0 = no limit
	Offset     int
	OnlyUnread bool
	Types      []Type     // empty = all types
	Since      *time.Time // only notifications created at or after this time
}

// Feed is the notification-fetch collaborator used by client sessions:
// paginated retrieval, the authoritative unread total and the read commands.
// Manager implements it in process and feedapi.Client over HTTP.
type Feed interface {
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID string, ids ...ID) error
	MarkAllRead(ctx context.Context, userID string) error
}
