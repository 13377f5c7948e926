package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/livenotify/pkg/logger"
)

// Manager orchestrates notification storage and delivery. It is the
// server-side Feed.
type Manager struct {
	storage   Storage
	deliverer Deliverer
	logger    *slog.Logger
}

var _ Feed = (*Manager)(nil)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a new notification manager. A nil deliverer disables
// real-time delivery.
func NewManager(storage Storage, deliverer Deliverer, opts ...ManagerOption) *Manager {
	if deliverer == nil {
		deliverer = NoOpDeliverer{}
	}

	m := &Manager{
		storage:   storage,
		deliverer: deliverer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("notifications"))
	return m
}

func prepare(n *Notification) {
	if n.ID == "" {
		n.ID = ID(uuid.New().String())
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if !n.Type.Valid() {
		n.Type = TypeUnknown
	}
}

// Send stores notif for notif.UserID and pushes it to the user's room.
// Delivery is best effort: the notification stays stored when it fails.
func (m *Manager) Send(ctx context.Context, notif Notification) (Notification, error) {
	prepare(&notif)
	notif.Role = ""

	if err := m.storage.Create(ctx, notif); err != nil {
		return Notification{}, fmt.Errorf("failed to store notification: %w", err)
	}

	if err := m.deliverer.Deliver(ctx, notif); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "failed to deliver notification, but it was stored successfully",
			logger.NotificationID(notif.ID.String()),
			logger.UserID(notif.UserID),
			logger.Error(err),
		)
	}
	return notif, nil
}

// SendToUsers stores a copy of template for each user, each with its own id,
// and pushes every copy to its user's room.
func (m *Manager) SendToUsers(ctx context.Context, userIDs []string, template Notification) ([]Notification, error) {
	notifs := make([]Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notif := template
		notif.ID = ""
		notif.Role = ""
		notif.UserID = userID
		prepare(&notif)

		if err := m.storage.Create(ctx, notif); err != nil {
			return notifs, fmt.Errorf("failed to store notification for user %s: %w", userID, err)
		}
		notifs = append(notifs, notif)
	}

	m.deliverBatch(ctx, notifs)
	return notifs, nil
}

// SendToRole stores template for each recipient under one shared id and
// pushes it once to the role's room, so every member receives it a single
// time and can mark it read by that id.
func (m *Manager) SendToRole(ctx context.Context, role string, recipients []string, template Notification) (Notification, error) {
	notif := template
	notif.UserID = ""
	notif.Role = role
	prepare(&notif)

	for _, userID := range recipients {
		n := notif
		n.UserID = userID
		if err := m.storage.Create(ctx, n); err != nil {
			return Notification{}, fmt.Errorf("failed to store notification for user %s: %w", userID, err)
		}
	}

	if err := m.deliverer.Deliver(ctx, notif); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "failed to deliver role notification",
			logger.NotificationID(notif.ID.String()),
			logger.Role(role),
			logger.Error(err),
		)
	}
	return notif, nil
}

func (m *Manager) deliverBatch(ctx context.Context, notifs []Notification) {
	if len(notifs) == 0 {
		return
	}
	if err := m.deliverer.DeliverBatch(ctx, notifs); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "failed to deliver notification batch, but they were stored successfully",
			slog.Int("notification_count", len(notifs)),
			logger.Error(err),
		)
	}
}

func (m *Manager) Get(ctx context.Context, userID string, id ID) (*Notification, error) {
	return m.storage.Get(ctx, userID, id)
}

func (m *Manager) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	return m.storage.List(ctx, userID, opts)
}

func (m *Manager) MarkRead(ctx context.Context, userID string, ids ...ID) error {
	return m.storage.MarkRead(ctx, userID, ids...)
}

// MarkAllRead marks all notifications as read for a user.
func (m *Manager) MarkAllRead(ctx context.Context, userID string) error {
	unread, err := m.storage.List(ctx, userID, ListOptions{OnlyUnread: true})
	if err != nil {
		return err
	}
	if len(unread) == 0 {
		return nil
	}

	ids := make([]ID, len(unread))
	for i, n := range unread {
		ids[i] = n.ID
	}
	return m.storage.MarkRead(ctx, userID, ids...)
}

func (m *Manager) Delete(ctx context.Context, userID string, ids ...ID) error {
	return m.storage.Delete(ctx, userID, ids...)
}

func (m *Manager) CountUnread(ctx context.Context, userID string) (int, error) {
	return m.storage.CountUnread(ctx, userID)
}
