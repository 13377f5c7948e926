package rooms

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/livenotify/pkg/identity"
	"github.com/dmitrymomot/livenotify/pkg/logger"
)

// Client is the part of channel.Client the manager drives.
type Client interface {
	Join(ctx context.Context, room string) error
	Leave(ctx context.Context, room string) error
	Rooms() []string
}

// IdentitySource reports the identity of the live session.
type IdentitySource func() identity.Identity

// Manager keeps a client's room membership equal to the target set of an
// identity.
type Manager struct {
	client Client
	live   IdentitySource
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithIdentitySource makes SyncRooms refuse identities other than the live one.
func WithIdentitySource(src IdentitySource) Option {
	return func(m *Manager) { m.live = src }
}

// WithLogger sets the logger for the Manager.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager for client.
func NewManager(client Client, opts ...Option) *Manager {
	m := &Manager{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("rooms"))
	return m
}

// Target returns the room set for id.
func (m *Manager) Target(id identity.Identity) []string {
	return Target(id)
}

// SyncRooms joins the rooms id needs and leaves the ones it must not be in.
// Leaves run before joins so that a demoted identity never holds both sets.
// Individual failures are joined; the remaining rooms are still processed.
func (m *Manager) SyncRooms(ctx context.Context, id identity.Identity) error {
	if id.IsZero() {
		return ErrNoIdentity
	}
	if err := m.checkLive(id); err != nil {
		return err
	}

	target := Target(id)
	current := m.client.Rooms()

	left, errs := m.leaveOutside(ctx, current, target)
	var joined []string
	for _, room := range target {
		if slices.Contains(current, room) {
			continue
		}
		if err := m.client.Join(ctx, room); err != nil {
			errs = append(errs, err)
			continue
		}
		joined = append(joined, room)
	}

	attrs := []slog.Attr{
		logger.UserID(id.ID),
		logger.Role(string(id.Role)),
		slog.Any("joined", joined),
		slog.Any("left", left),
	}
	if err := errors.Join(errs...); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "room sync incomplete", append(attrs, logger.Error(err))...)
		return err
	}
	m.logger.LogAttrs(ctx, slog.LevelDebug, "rooms synced", append(attrs, logger.Rooms(target))...)
	return nil
}

// Prune leaves every room that is not in id's target set without joining
// anything. It narrows membership to id before the session is connected.
func (m *Manager) Prune(ctx context.Context, id identity.Identity) error {
	if id.IsZero() {
		return ErrNoIdentity
	}
	if err := m.checkLive(id); err != nil {
		return err
	}

	left, errs := m.leaveOutside(ctx, m.client.Rooms(), Target(id))
	if err := errors.Join(errs...); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "room prune incomplete",
			logger.UserID(id.ID),
			slog.Any("left", left),
			logger.Error(err),
		)
		return err
	}
	if len(left) > 0 {
		m.logger.LogAttrs(ctx, slog.LevelDebug, "rooms pruned",
			logger.UserID(id.ID),
			slog.Any("left", left),
		)
	}
	return nil
}

func (m *Manager) checkLive(id identity.Identity) error {
	if m.live == nil {
		return nil
	}
	if live := m.live(); !live.Equal(id) {
		return &StaleIdentityError{Requested: id, Live: live}
	}
	return nil
}

func (m *Manager) leaveOutside(ctx context.Context, current, target []string) (left []string, errs []error) {
	for _, room := range current {
		if slices.Contains(target, room) {
			continue
		}
		if err := m.client.Leave(ctx, room); err != nil {
			errs = append(errs, err)
			continue
		}
		left = append(left, room)
	}
	return left, errs
}

// LeaveAll leaves every room the client is in.
func (m *Manager) LeaveAll(ctx context.Context) error {
	var errs []error
	for _, room := range m.client.Rooms() {
		if err := m.client.Leave(ctx, room); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
