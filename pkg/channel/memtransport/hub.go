package memtransport

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/livenotify/pkg/broadcast"
	"github.com/dmitrymomot/livenotify/pkg/channel"
	"github.com/dmitrymomot/livenotify/pkg/logger"
)

var (
	ErrHubClosed  = errors.New("memtransport: hub is closed")
	ErrConnClosed = errors.New("memtransport: connection is closed")
)

// InboundFunc receives non-control messages sent by clients without a room.
type InboundFunc func(ctx context.Context, connID string, msg channel.Message)

// Hub is an in-process push server. Each room is a broadcaster; a
// connection that joins a room subscribes to it.
type Hub struct {
	bufferSize int
	logger     *slog.Logger
	inbound    InboundFunc

	mu     sync.Mutex
	rooms  map[string]*broadcast.MemoryBroadcaster[channel.Message]
	conns  map[string]*Conn
	closed bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithBufferSize sets the per-connection, per-room message buffer.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithLogger sets the logger for the Hub.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithInbound sets the callback for client messages that name no room.
func WithInbound(fn InboundFunc) Option {
	return func(h *Hub) {
		h.inbound = fn
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		bufferSize: 32,
		logger:     slog.Default(),
		rooms:      make(map[string]*broadcast.MemoryBroadcaster[channel.Message]),
		conns:      make(map[string]*Conn),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("memtransport"))
	return h
}

// Dial implements channel.Transport.
func (h *Hub) Dial(ctx context.Context) (channel.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	c := newConn(h)
	h.conns[c.id] = c
	h.logger.LogAttrs(ctx, slog.LevelDebug, "connection opened", slog.String("conn_id", c.id))
	return c, nil
}

// Publish sends event with payload to every connection in room.
// Publishing to a room nobody joined is not an error.
func (h *Hub) Publish(ctx context.Context, room, event string, payload any) error {
	msg, err := channel.NewMessage(event, room, payload)
	if err != nil {
		return err
	}
	return h.publish(ctx, msg)
}

func (h *Hub) publish(ctx context.Context, msg channel.Message) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	b := h.rooms[msg.Room]
	h.mu.Unlock()

	if b == nil {
		return nil
	}
	if err := b.Broadcast(ctx, broadcast.Message[channel.Message]{Data: msg}); errors.Is(err, broadcast.ErrClosed) {
		return ErrHubClosed
	}
	return nil
}

// Members returns the number of subscriptions to room.
func (h *Hub) Members(room string) int {
	h.mu.Lock()
	b := h.rooms[room]
	h.mu.Unlock()
	if b == nil {
		return 0
	}
	return b.Len()
}

// Conns returns ids of open connections, sorted.
func (h *Hub) Conns() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Kick closes the connection with the given id, as if the server dropped it.
func (h *Hub) Kick(id string) bool {
	h.mu.Lock()
	c := h.conns[id]
	h.mu.Unlock()
	if c == nil {
		return false
	}
	_ = c.Close()
	return true
}

// Close drops every connection and room. Safe to call multiple times.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	rooms := h.rooms
	h.rooms = make(map[string]*broadcast.MemoryBroadcaster[channel.Message])
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
	for _, b := range rooms {
		_ = b.Close()
	}
	return nil
}

func (h *Hub) room(name string) (*broadcast.MemoryBroadcaster[channel.Message], error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	b, ok := h.rooms[name]
	if !ok {
		b = broadcast.NewMemoryBroadcaster[channel.Message](h.bufferSize,
			broadcast.WithSlowConsumerPolicy(broadcast.DropMessage),
		)
		h.rooms[name] = b
	}
	return b, nil
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}
