package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/livenotify/pkg/async"
	"github.com/dmitrymomot/livenotify/pkg/broadcast"
	"github.com/dmitrymomot/livenotify/pkg/channel"
	"github.com/dmitrymomot/livenotify/pkg/identity"
	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/notifications"
	"github.com/dmitrymomot/livenotify/pkg/rooms"
)

// Controller binds a channel.Client, its room membership and a
// notification store to the lifetime of an authenticated session.
//
// The client is injected and owned by the controller for as long as a
// session is active: Start connects it and joins the identity's rooms, Stop
// leaves them and disconnects. A Controller is safe for concurrent use.
type Controller struct {
	client   *channel.Client
	rooms    *rooms.Manager
	store    *notifications.Store
	feed     notifications.Feed
	cfg      Config
	logger   *slog.Logger
	arrivals *broadcast.MemoryBroadcaster[notifications.Notification]
	panel    *Panel

	mu       sync.Mutex
	identity identity.Identity
	epoch    uint64 // bumped on every start and stop
	cancel   context.CancelFunc
	pending  *async.Future[channel.State]
	subs     []channel.Subscription
	pushSub  channel.Subscription
	closed   bool
}

// New creates a Controller driving client.
func New(client *channel.Client, opts ...Option) *Controller {
	c := &Controller{
		client: client,
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cfg = c.cfg.withDefaults()

	base := c.logger
	c.logger = base.With(logger.Component("session"))
	if c.store == nil {
		c.store = notifications.NewStore(notifications.WithCapacity(c.cfg.StoreCapacity))
	}
	c.rooms = rooms.NewManager(client, rooms.WithIdentitySource(c.Identity), rooms.WithLogger(base))
	c.arrivals = broadcast.NewMemoryBroadcaster[notifications.Notification](
		c.cfg.ArrivalBuffer,
		broadcast.WithSlowConsumerPolicy(broadcast.DropMessage),
	)
	c.panel = newPanel(c.cfg.ArrivalBuffer, c.logger)
	return c
}

// NewFromConfig creates a Controller from cfg, typically loaded with
// config.Load.
func NewFromConfig(client *channel.Client, cfg Config, opts ...Option) *Controller {
	return New(client, append([]Option{WithConfig(cfg)}, opts...)...)
}

// Start begins a session for id: it hydrates the store from the feed,
// connects the client (retrying per Config) and joins the identity's rooms.
// The returned future resolves with the resulting connection state.
//
// Starting the identity that is already live returns the current future.
// Starting a different identity cancels any in-flight start, resets the
// store and re-syncs rooms on the existing connection. From that point on,
// notifications from rooms outside the new identity's set are dropped, and
// those rooms are left before the store is hydrated. A zero identity
// stops the session and resolves with rooms.ErrNoIdentity.
func (c *Controller) Start(ctx context.Context, id identity.Identity) *async.Future[channel.State] {
	if id.IsZero() {
		err := c.Stop(ctx)
		return async.Resolved(channel.StateDisconnected, errors.Join(rooms.ErrNoIdentity, err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return async.Resolved(channel.StateDisconnected, ErrSessionEnded)
	}
	if c.identity.Equal(id) && c.pending != nil &&
		(!c.pending.IsComplete() || c.client.State() == channel.StateConnected) {
		return c.pending
	}

	if c.cancel != nil {
		c.cancel()
	}
	prevID, prev := c.identity, c.pending
	if !prevID.Equal(id) {
		c.store.Reset()
		c.panel.reset(ctx)
	}
	c.identity = id
	c.epoch++
	epoch := c.epoch

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.pending = async.Run(runCtx, func(ctx context.Context) (channel.State, error) {
		defer cancel()
		return c.run(ctx, epoch, id, prev)
	})

	if !prevID.IsZero() && !prevID.Equal(id) {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "session identity changed",
			slog.String("from", prevID.String()),
			slog.String("to", id.String()),
		)
	}
	return c.pending
}

func (c *Controller) run(ctx context.Context, epoch uint64, id identity.Identity, prev *async.Future[channel.State]) (channel.State, error) {
	if prev != nil {
		// superseded start; its context is already cancelled
		_, _ = prev.AwaitContext(ctx)
	}
	if !c.current(epoch) {
		return c.client.State(), ErrSessionEnded
	}

	c.mu.Lock()
	if !c.pushSub.Valid() {
		c.pushSub = c.client.On(channel.EventNotification, c.handlePush)
	}
	c.mu.Unlock()

	// the previous identity's rooms go before anything slow runs
	if err := c.rooms.Prune(ctx, id); err != nil {
		if rooms.IsStaleIdentityError(err) {
			return c.client.State(), err
		}
		c.logger.LogAttrs(ctx, slog.LevelWarn, "failed to leave previous rooms",
			logger.UserID(id.ID),
			logger.Error(err),
		)
	}

	c.hydrate(ctx, epoch, id)

	if err := c.connect(ctx, epoch); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "session connect failed",
			logger.UserID(id.ID),
			logger.Role(string(id.Role)),
			logger.Error(err),
		)
		return c.client.State(), err
	}

	if !c.current(epoch) {
		c.mu.Lock()
		stopped := c.identity.IsZero()
		c.mu.Unlock()
		if stopped {
			// connected after Stop tore the client down
			_ = c.client.Disconnect()
		}
		return c.client.State(), ErrSessionEnded
	}

	if err := c.rooms.SyncRooms(ctx, id); err != nil {
		if rooms.IsStaleIdentityError(err) {
			return c.client.State(), err
		}
		return c.abort(ctx, epoch, err)
	}

	c.logger.LogAttrs(ctx, slog.LevelInfo, "session started",
		logger.UserID(id.ID),
		logger.Role(string(id.Role)),
		logger.Rooms(c.client.Rooms()),
	)
	return c.client.State(), nil
}

// connect dials with the configured retry policy. A dial aborted by Stop or
// a cancelled start reports ErrSessionEnded.
func (c *Controller) connect(ctx context.Context, epoch uint64) error {
	var err error
	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		if !c.current(epoch) {
			return ErrSessionEnded
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		err = c.client.Connect(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, channel.ErrConnectAborted) || ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrSessionEnded, err)
		}

		c.logger.LogAttrs(ctx, slog.LevelWarn, "connect attempt failed",
			logger.RetryCount(attempt),
			logger.Error(err),
		)
		if attempt == c.cfg.RetryAttempts {
			break
		}

		timer := time.NewTimer(c.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrSessionEnded, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}

// abort returns the client to Disconnected with no rooms after a failed
// room sync. Disconnect drops every listener, so the controller forgets its
// registrations as well.
func (c *Controller) abort(ctx context.Context, epoch uint64, cause error) (channel.State, error) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return c.client.State(), fmt.Errorf("%w: %w", ErrSessionEnded, cause)
	}
	c.subs = nil
	c.pushSub = channel.Subscription{}
	c.mu.Unlock()

	err := errors.Join(cause, c.rooms.LeaveAll(ctx), c.client.Disconnect())
	c.logger.LogAttrs(ctx, slog.LevelWarn, "session start failed, disconnected", logger.Error(err))
	return c.client.State(), err
}

// hydrate loads the recent page and unread total. Fetch failures are logged;
// the session continues on pushed notifications.
func (c *Controller) hydrate(ctx context.Context, epoch uint64, id identity.Identity) {
	if c.feed == nil {
		return
	}

	items, err := c.feed.List(ctx, id.ID, notifications.ListOptions{Limit: c.cfg.HydrateLimit})
	var unread int
	if err == nil {
		unread, err = c.feed.CountUnread(ctx, id.ID)
	}
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "failed to hydrate notifications",
			logger.UserID(id.ID),
			logger.Error(err),
		)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == epoch {
		c.store.Hydrate(items, unread)
	}
}

// handlePush accepts notifications only from rooms of the live identity.
// Rooms of a previous identity may still deliver until they are left.
func (c *Controller) handlePush(ctx context.Context, msg channel.Message) error {
	var n notifications.Notification
	if err := msg.Decode(&n); err != nil {
		return err
	}

	c.mu.Lock()
	accepted := slices.Contains(rooms.Target(c.identity), msg.Room)
	if accepted {
		c.store.Push(n)
	}
	c.mu.Unlock()
	if !accepted {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "dropped notification outside session rooms",
			logger.Room(msg.Room),
			logger.NotificationID(n.ID.String()),
		)
		return nil
	}

	n.IsRead = false
	n.ReadAt = nil
	return c.arrivals.Broadcast(ctx, broadcast.Message[notifications.Notification]{Data: n})
}

func (c *Controller) current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch == epoch && !c.closed
}

// Stop ends the session: it cancels an in-flight start, unregisters every
// handler registered through the controller, leaves all rooms, disconnects
// and resets the store. It is safe to call repeatedly and before Start.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	was := c.identity
	c.identity = identity.Identity{}
	c.epoch++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	subs := append(c.subs, c.pushSub)
	c.subs = nil
	c.pushSub = channel.Subscription{}
	pending := c.pending
	c.mu.Unlock()

	for _, sub := range subs {
		c.client.Off(sub)
	}
	err := errors.Join(c.rooms.LeaveAll(ctx), c.client.Disconnect())

	if pending != nil {
		_, _ = pending.AwaitContext(ctx)
	}
	c.store.Reset()
	c.panel.reset(ctx)

	if !was.IsZero() {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "session stopped",
			logger.UserID(was.ID),
			logger.Role(string(was.Role)),
		)
	}
	return err
}

// Close stops the session and releases the arrivals and panel streams.
// Later calls to Start resolve with ErrSessionEnded.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return errors.Join(
		c.Stop(context.Background()),
		c.arrivals.Close(),
		c.panel.close(),
	)
}

// Subscribe registers handler for event on the client and returns its
// unsubscribe function. Stop unregisters it too; calling unsubscribe
// afterwards is harmless.
func (c *Controller) Subscribe(event string, handler channel.Handler) (unsubscribe func()) {
	sub := c.client.On(event, handler)

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.client.Off(sub)
			c.mu.Lock()
			c.subs = slices.DeleteFunc(c.subs, func(s channel.Subscription) bool { return s == sub })
			c.mu.Unlock()
		})
	}
}

// Arrivals returns a stream of pushed notifications, for toast-style
// alerts. The subscription ends with ctx or Close. Slow readers miss
// messages rather than blocking delivery.
func (c *Controller) Arrivals(ctx context.Context) broadcast.Subscriber[notifications.Notification] {
	return c.arrivals.Subscribe(ctx)
}

// Panel returns the session's notification panel command channel.
func (c *Controller) Panel() *Panel {
	return c.panel
}

// Snapshot returns the current notification list and unread count.
func (c *Controller) Snapshot() notifications.Snapshot {
	return c.store.Snapshot()
}

// State returns the connection state.
func (c *Controller) State() channel.State {
	return c.client.State()
}

// Identity returns the live identity, or the zero Identity.
func (c *Controller) Identity() identity.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// MarkRead marks id read locally, then on the server. A server failure is
// logged and returned; the local change is kept.
func (c *Controller) MarkRead(ctx context.Context, id notifications.ID) error {
	who := c.Identity()
	if who.IsZero() {
		return ErrNoSession
	}

	c.store.MarkRead(id)
	if c.feed == nil {
		return nil
	}
	if err := c.feed.MarkRead(ctx, who.ID, id); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "failed to mark notification read on server",
			logger.UserID(who.ID),
			logger.NotificationID(id.String()),
			logger.Error(err),
		)
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead marks everything read locally, then on the server. A server
// failure is logged and returned; the local change is kept.
func (c *Controller) MarkAllRead(ctx context.Context) error {
	who := c.Identity()
	if who.IsZero() {
		return ErrNoSession
	}

	c.store.MarkAllRead()
	if c.feed == nil {
		return nil
	}
	if err := c.feed.MarkAllRead(ctx, who.ID); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "failed to mark all notifications read on server",
			logger.UserID(who.ID),
			logger.Error(err),
		)
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
