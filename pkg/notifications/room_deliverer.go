package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/livenotify/pkg/channel"
	"github.com/dmitrymomot/livenotify/pkg/identity"
	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/rooms"
)

// Publisher pushes an event into a room. memtransport.Hub and
// redistransport.Publisher implement it.
type Publisher interface {
	Publish(ctx context.Context, room, event string, payload any) error
}

// RoomDeliverer pushes notifications as channel.EventNotification into the
// recipient's room: the role room when Role is set, the user room otherwise.
type RoomDeliverer struct {
	publisher Publisher
	logger    *slog.Logger
}

// RoomDelivererOption configures a RoomDeliverer.
type RoomDelivererOption func(*RoomDeliverer)

// WithRoomDelivererLogger sets the logger for the RoomDeliverer.
func WithRoomDelivererLogger(l *slog.Logger) RoomDelivererOption {
	return func(d *RoomDeliverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewRoomDeliverer creates a deliverer publishing through p.
func NewRoomDeliverer(p Publisher, opts ...RoomDelivererOption) *RoomDeliverer {
	d := &RoomDeliverer{publisher: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RoomFor returns the room a notification is delivered to.
func RoomFor(n Notification) string {
	if n.Role != "" {
		return rooms.ForRole(identity.Role(n.Role))
	}
	return rooms.ForUser(n.UserID)
}

func (d *RoomDeliverer) Deliver(ctx context.Context, notif Notification) error {
	room := RoomFor(notif)
	if err := d.publisher.Publish(ctx, room, channel.EventNotification, notif); err != nil {
		return fmt.Errorf("deliver %s to %s: %w", notif.ID, room, err)
	}
	d.logger.LogAttrs(ctx, slog.LevelDebug, "notification pushed",
		logger.NotificationID(notif.ID.String()),
		logger.Room(room),
	)
	return nil
}

// DeliverBatch delivers each notification; failures do not stop the batch.
func (d *RoomDeliverer) DeliverBatch(ctx context.Context, notifs []Notification) error {
	var errs []error
	for _, n := range notifs {
		if err := d.Deliver(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
