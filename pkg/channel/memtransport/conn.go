package memtransport

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/livenotify/pkg/broadcast"
	"github.com/dmitrymomot/livenotify/pkg/channel"
	"github.com/dmitrymomot/livenotify/pkg/logger"
)

// Conn is one client connection to a Hub.
type Conn struct {
	id     string
	hub    *Hub
	ctx    context.Context
	cancel context.CancelFunc
	out    chan channel.Message
	wg     sync.WaitGroup

	mu     sync.Mutex
	subs   map[string]context.CancelFunc
	closed bool
}

func newConn(h *Hub) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		id:     uuid.New().String(),
		hub:    h,
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan channel.Message, h.bufferSize),
		subs:   make(map[string]context.CancelFunc),
	}
}

// ID returns the hub-assigned connection id.
func (c *Conn) ID() string { return c.id }

// Messages implements channel.Conn.
func (c *Conn) Messages() <-chan channel.Message { return c.out }

// Send implements channel.Conn. Join and leave control messages change the
// connection's room subscriptions; other messages are published to
// msg.Room, or handed to the hub's inbound callback when no room is set.
func (c *Conn) Send(ctx context.Context, msg channel.Message) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrConnClosed
	}

	switch msg.Event {
	case channel.EventJoin:
		return c.join(msg.Room)
	case channel.EventLeave:
		c.leave(msg.Room)
		return nil
	}

	if msg.Room != "" {
		return c.hub.publish(ctx, msg)
	}
	if c.hub.inbound != nil {
		c.hub.inbound(ctx, c.id, msg)
	}
	return nil
}

// Close implements channel.Conn.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for room, cancel := range c.subs {
		cancel()
		delete(c.subs, room)
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	close(c.out)
	c.hub.remove(c.id)

	c.hub.logger.LogAttrs(context.Background(), slog.LevelDebug, "connection closed", slog.String("conn_id", c.id))
	return nil
}

func (c *Conn) join(room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if _, ok := c.subs[room]; ok {
		return nil
	}

	b, err := c.hub.room(room)
	if err != nil {
		return err
	}

	subCtx, cancel := context.WithCancel(c.ctx)
	sub := b.Subscribe(subCtx)
	c.subs[room] = cancel

	c.wg.Add(1)
	go c.forward(subCtx, sub)

	c.hub.logger.LogAttrs(subCtx, slog.LevelDebug, "room joined",
		slog.String("conn_id", c.id),
		logger.Room(room),
	)
	return nil
}

func (c *Conn) leave(room string) {
	c.mu.Lock()
	cancel, ok := c.subs[room]
	delete(c.subs, room)
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

func (c *Conn) forward(ctx context.Context, sub broadcast.Subscriber[channel.Message]) {
	defer c.wg.Done()
	defer sub.Close()

	in := sub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			select {
			case c.out <- m.Data:
			case <-ctx.Done():
				return
			}
		}
	}
}
