package session

import (
	"log/slog"

	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

// Option configures a Controller.
type Option func(*Controller)

// WithFeed sets the notification-fetch collaborator used to hydrate the
// store and to forward mark-read commands. Without it the controller works
// on pushed notifications only.
func WithFeed(feed notifications.Feed) Option {
	return func(c *Controller) {
		c.feed = feed
	}
}

// WithConfig replaces DefaultConfig. Zero fields fall back to defaults.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithStore injects the notification store, e.g. to share it with a view.
func WithStore(s *notifications.Store) Option {
	return func(c *Controller) {
		if s != nil {
			c.store = s
		}
	}
}

// WithLogger sets the logger for the Controller.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}
