package notifications

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/livenotify/pkg/logger"
)

// Deliverer handles real-time notification delivery.
type Deliverer interface {
	// Deliver pushes a stored notification to its recipients.
	Deliver(ctx context.Context, notif Notification) error

	// DeliverBatch pushes multiple notifications.
	DeliverBatch(ctx context.Context, notifs []Notification) error
}

// MultiDeliverer combines multiple delivery channels.
type MultiDeliverer struct {
	deliverers []Deliverer
	logger     *slog.Logger
}

// MultiDelivererOption configures a MultiDeliverer.
type MultiDelivererOption func(*MultiDeliverer)

// WithMultiDelivererLogger sets the logger for the MultiDeliverer.
func WithMultiDelivererLogger(l *slog.Logger) MultiDelivererOption {
	return func(m *MultiDeliverer) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMultiDeliverer creates a deliverer that fans out to every deliverer.
func NewMultiDeliverer(deliverers []Deliverer, opts ...MultiDelivererOption) *MultiDeliverer {
	m := &MultiDeliverer{
		deliverers: deliverers,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Deliver sends notif through all configured channels. Failures are logged
// and only reported when every channel failed.
func (m *MultiDeliverer) Deliver(ctx context.Context, notif Notification) error {
	var errs []error
	for i, d := range m.deliverers {
		if err := d.Deliver(ctx, notif); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelError, "failed to deliver notification",
				logger.NotificationID(notif.ID.String()),
				logger.UserID(notif.UserID),
				slog.Int("deliverer_index", i),
				logger.Error(err),
			)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && len(errs) == len(m.deliverers) {
		return errors.Join(errs...)
	}
	return nil
}

// DeliverBatch sends multiple notifications through all channels.
func (m *MultiDeliverer) DeliverBatch(ctx context.Context, notifs []Notification) error {
	var errs []error
	for i, d := range m.deliverers {
		if err := d.DeliverBatch(ctx, notifs); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelError, "failed to deliver notification batch",
				slog.Int("notification_count", len(notifs)),
				slog.Int("deliverer_index", i),
				logger.Error(err),
			)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && len(errs) == len(m.deliverers) {
		return errors.Join(errs...)
	}
	return nil
}

// NoOpDeliverer is a deliverer that does nothing.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, Notification) error { return nil }

func (NoOpDeliverer) DeliverBatch(context.Context, []Notification) error { return nil }
