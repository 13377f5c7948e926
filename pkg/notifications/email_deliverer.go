package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/livenotify/pkg/email"
	"github.com/dmitrymomot/livenotify/pkg/logger"
)

// AddressResolver returns the email address of a user, or "" to skip them.
type AddressResolver func(ctx context.Context, userID string) (string, error)

// EmailDeliverer emails user-addressed notifications. Role notifications are
// skipped: they are stored once per recipient but pushed once per room, and
// the room push is their only delivery.
type EmailDeliverer struct {
	sender  email.EmailSender
	resolve AddressResolver
	types   []Type
	logger  *slog.Logger
}

// EmailDelivererOption configures an EmailDeliverer.
type EmailDelivererOption func(*EmailDeliverer)

// WithEmailTypes limits email to the given kinds. All kinds are emailed by default.
func WithEmailTypes(types ...Type) EmailDelivererOption {
	return func(d *EmailDeliverer) {
		d.types = types
	}
}

// WithEmailDelivererLogger sets the logger for the EmailDeliverer.
func WithEmailDelivererLogger(l *slog.Logger) EmailDelivererOption {
	return func(d *EmailDeliverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewEmailDeliverer creates a deliverer sending through sender to the
// addresses resolve returns.
func NewEmailDeliverer(sender email.EmailSender, resolve AddressResolver, opts ...EmailDelivererOption) *EmailDeliverer {
	d := &EmailDeliverer{sender: sender, resolve: resolve, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *EmailDeliverer) wants(n Notification) bool {
	if n.UserID == "" || n.Role != "" {
		return false
	}
	return len(d.types) == 0 || slices.Contains(d.types, n.Type)
}

func (d *EmailDeliverer) Deliver(ctx context.Context, notif Notification) error {
	if !d.wants(notif) {
		return nil
	}

	addr, err := d.resolve(ctx, notif.UserID)
	if err != nil {
		return fmt.Errorf("resolve email address for user %s: %w", notif.UserID, err)
	}
	if addr == "" {
		d.logger.LogAttrs(ctx, slog.LevelDebug, "no email address, skipping",
			logger.UserID(notif.UserID),
			logger.NotificationID(notif.ID.String()),
		)
		return nil
	}

	body := notif.Title
	if notif.Message != "" {
		body += "\n\n" + notif.Message
	}
	return d.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   addr,
		Subject:  notif.Title,
		BodyText: body,
		Tag:      notif.Type.String(),
	})
}

// DeliverBatch emails each notification and joins the failures.
func (d *EmailDeliverer) DeliverBatch(ctx context.Context, notifs []Notification) error {
	var errs []error
	for _, n := range notifs {
		if err := d.Deliver(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
