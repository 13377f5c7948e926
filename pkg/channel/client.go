package channel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/statemachine"
)

// Client owns one logical connection to a push server, the set of rooms it
// has joined and the table of event handlers.
//
// Inbound messages of a connection are dispatched by a single goroutine, so
// handlers run one at a time in arrival order.
type Client struct {
	transport Transport
	logger    *slog.Logger
	observers []StateObserver
	sm        *statemachine.Machine[State, trigger]
	listeners *listenerTable

	mu         sync.Mutex
	conn       Conn
	connCancel context.CancelFunc
	rooms      map[string]struct{}
	epoch      atomic.Uint64 // bumped whenever the current connection is abandoned
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the Client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStateObserver registers a callback for connection state changes.
func WithStateObserver(o StateObserver) Option {
	return func(c *Client) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// NewClient creates a disconnected client over transport.
func NewClient(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		logger:    slog.Default(),
		listeners: newListenerTable(),
		rooms:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("channel"))
	c.sm = newConnMachine(c.logger)
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	return c.sm.Current()
}

// Connect performs the transport handshake. It is a no-op while Connecting
// or Connected. On failure the client is Disconnected and a *ConnectionError
// is returned; there is no automatic retry.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.sm.Is(StateConnected, StateConnecting) {
		c.mu.Unlock()
		return nil
	}
	change := c.fire(ctx, triggerDial)
	epoch := c.epoch.Load()
	c.mu.Unlock()
	c.notify(change)

	conn, dialErr := c.transport.Dial(ctx)

	c.mu.Lock()
	if c.epoch.Load() != epoch || c.sm.Current() != StateConnecting {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		c.logger.LogAttrs(ctx, slog.LevelInfo, "discarded connection completed after disconnect")
		return &ConnectionError{Op: "connect", Err: ErrConnectAborted}
	}

	if dialErr != nil {
		change := c.fire(ctx, triggerFailed)
		c.mu.Unlock()
		c.notify(change)
		c.logger.LogAttrs(ctx, slog.LevelWarn, "connect failed", logger.Error(dialErr))
		return &ConnectionError{Op: "dial", Err: dialErr}
	}

	connCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.connCancel = cancel
	change = c.fire(ctx, triggerEstablished)
	c.mu.Unlock()
	c.notify(change)

	go c.readLoop(connCtx, conn, epoch)

	c.logger.LogAttrs(ctx, slog.LevelInfo, "connected")
	return nil
}

// Disconnect tears down the connection and clears rooms and listeners.
// It always leaves the client Disconnected and is safe to call repeatedly,
// including while Connect is in flight.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.sm.Current() == StateDisconnected && c.conn == nil {
		clear(c.rooms)
		c.mu.Unlock()
		c.listeners.reset()
		return nil
	}

	conn, cancel := c.abandon()
	change := c.fire(context.Background(), triggerClosed)
	c.mu.Unlock()

	c.listeners.reset()

	var err error
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		if err = conn.Close(); err != nil {
			err = &ConnectionError{Op: "close", Err: err}
		}
	}
	c.notify(change)
	c.logger.LogAttrs(context.Background(), slog.LevelInfo, "disconnected")
	return err
}

// On registers handler for event. Handlers may be registered before the
// client connects. The returned Subscription is the only way to remove it.
func (c *Client) On(event string, handler Handler) Subscription {
	return c.listeners.add(event, handler)
}

// Off removes exactly the registration identified by sub. Unknown or already
// removed subscriptions are ignored.
func (c *Client) Off(sub Subscription) {
	if !sub.Valid() {
		return
	}
	c.listeners.remove(sub)
}

// Listeners returns the number of handlers registered for event.
func (c *Client) Listeners(event string) int {
	return c.listeners.count(event)
}

// OnJSON registers a handler that receives the payload decoded into T.
// Decoding failures are reported like handler errors.
func OnJSON[T any](c *Client, event string, fn func(ctx context.Context, v T) error) Subscription {
	return c.On(event, func(ctx context.Context, msg Message) error {
		var v T
		if err := msg.Decode(&v); err != nil {
			return err
		}
		return fn(ctx, v)
	})
}

// Send transmits event with a JSON-encoded payload. When not connected it
// logs and returns ErrNotConnected; callers may ignore that error.
func (c *Client) Send(ctx context.Context, event string, payload any) error {
	msg, err := NewMessage(event, "", payload)
	if err != nil {
		return err
	}
	return c.send(ctx, msg)
}

func (c *Client) send(ctx context.Context, msg Message) error {
	conn := c.liveConn()
	if conn == nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "send skipped, not connected",
			logger.Event(msg.Event),
		)
		return ErrNotConnected
	}
	if err := conn.Send(ctx, msg); err != nil {
		return fmt.Errorf("channel: send %q: %w", msg.Event, err)
	}
	return nil
}

// Join adds the connection to room. Joining a room twice is a no-op.
func (c *Client) Join(ctx context.Context, room string) error {
	c.mu.Lock()
	if c.conn == nil || c.sm.Current() != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if _, ok := c.rooms[room]; ok {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	c.mu.Unlock()

	if err := conn.Send(ctx, JoinMessage(room)); err != nil {
		return fmt.Errorf("channel: join %q: %w", room, err)
	}

	c.mu.Lock()
	if c.conn == conn {
		c.rooms[room] = struct{}{}
	}
	c.mu.Unlock()

	c.logger.LogAttrs(ctx, slog.LevelDebug, "joined room", logger.Room(room))
	return nil
}

// Leave removes the connection from room. The room is dropped locally even
// when the client is not connected or the leave message fails.
func (c *Client) Leave(ctx context.Context, room string) error {
	c.mu.Lock()
	if _, ok := c.rooms[room]; !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.rooms, room)
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Send(ctx, LeaveMessage(room)); err != nil {
		return fmt.Errorf("channel: leave %q: %w", room, err)
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "left room", logger.Room(room))
	return nil
}

// Rooms returns the joined rooms, sorted.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		rooms = append(rooms, r)
	}
	slices.Sort(rooms)
	return rooms
}

func (c *Client) liveConn() Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sm.Current() != StateConnected {
		return nil
	}
	return c.conn
}

func (c *Client) readLoop(ctx context.Context, conn Conn, epoch uint64) {
	for msg := range conn.Messages() {
		if c.epoch.Load() != epoch {
			continue
		}
		if msg.IsControl() {
			continue
		}
		c.dispatch(ctx, msg)
	}

	c.mu.Lock()
	if c.epoch.Load() != epoch || c.conn != conn {
		c.mu.Unlock()
		return
	}
	_, cancel := c.abandon()
	change := c.fire(ctx, triggerDropped)
	c.mu.Unlock()

	cancel()
	_ = conn.Close()
	c.notify(change)
	c.logger.LogAttrs(context.Background(), slog.LevelWarn, "connection lost",
		logger.Error(&ConnectionError{Op: "read", Err: ErrNotConnected}),
	)
}

// dispatch delivers msg to every handler registered for its event, in
// registration order. Failing handlers are logged and skipped.
func (c *Client) dispatch(ctx context.Context, msg Message) {
	for _, l := range c.listeners.snapshot(msg.Event) {
		if err := invoke(ctx, l, msg); err != nil {
			c.logger.LogAttrs(ctx, slog.LevelError, "listener failed",
				logger.Event(msg.Event),
				logger.SubscriptionID(l.id),
				logger.Error(err),
			)
		}
	}
}

func invoke(ctx context.Context, l listener, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ListenerError{
				Event:          msg.Event,
				SubscriptionID: l.id,
				Panicked:       true,
				Err:            fmt.Errorf("%v", r),
			}
		}
	}()

	if herr := l.handler(ctx, msg); herr != nil {
		return &ListenerError{Event: msg.Event, SubscriptionID: l.id, Err: herr}
	}
	return nil
}

// abandon detaches the current connection and forgets joined rooms.
// Must be called with c.mu held.
func (c *Client) abandon() (Conn, context.CancelFunc) {
	conn, cancel := c.conn, c.connCancel
	c.conn = nil
	c.connCancel = nil
	clear(c.rooms)
	c.epoch.Add(1)
	return conn, cancel
}

// fire applies a state trigger. Must be called with c.mu held.
func (c *Client) fire(ctx context.Context, t trigger) *stateChange {
	from := c.sm.Current()
	if err := c.sm.Fire(ctx, t); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "ignored state trigger",
			slog.String("trigger", string(t)),
			logger.ConnState(from.String()),
		)
		return nil
	}
	return &stateChange{from: from, to: c.sm.Current()}
}

func (c *Client) notify(change *stateChange) {
	if change == nil {
		return
	}
	for _, o := range c.observers {
		o(change.from, change.to)
	}
}
