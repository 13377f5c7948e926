package redistransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/livenotify/pkg/channel"
	"github.com/dmitrymomot/livenotify/pkg/logger"
)

var (
	ErrNoRoom     = errors.New("redistransport: message has no room")
	ErrConnClosed = errors.New("redistransport: connection is closed")
)

const (
	// DefaultPrefix is prepended to room names to form Redis channel names.
	DefaultPrefix = "livenotify:"

	// Defaults for WithHealthCheck.
	DefaultHealthCheckInterval = 10 * time.Second
	DefaultHealthCheckFailures = 3
)

// Transport dials channel connections backed by Redis pub/sub. Each room is
// a Redis channel; joining subscribes and leaving unsubscribes.
type Transport struct {
	client     redis.UniversalClient
	prefix     string
	bufferSize int
	health     healthCheck
	logger     *slog.Logger
}

// Option configures Transport and Publisher.
type Option func(*options)

type options struct {
	prefix     string
	bufferSize int
	health     healthCheck
	logger     *slog.Logger
}

type healthCheck struct {
	interval time.Duration
	failures int
}

// WithPrefix sets the Redis channel prefix for rooms.
func WithPrefix(p string) Option {
	return func(o *options) { o.prefix = p }
}

// WithBufferSize sets the inbound message buffer of each connection.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithHealthCheck makes each connection ping Redis every interval and close
// itself after failures consecutive errors, so the channel client sees the
// outage as a dropped connection. A non-positive interval disables it.
func WithHealthCheck(interval time.Duration, failures int) Option {
	return func(o *options) {
		o.health.interval = interval
		if failures > 0 {
			o.health.failures = failures
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		prefix:     DefaultPrefix,
		bufferSize: 64,
		health:     healthCheck{interval: DefaultHealthCheckInterval, failures: DefaultHealthCheckFailures},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With(logger.Component("redistransport"))
	return o
}

// New creates a Transport over client.
func New(client redis.UniversalClient, opts ...Option) *Transport {
	o := buildOptions(opts)
	return &Transport{
		client:     client,
		prefix:     o.prefix,
		bufferSize: o.bufferSize,
		health:     o.health,
		logger:     o.logger,
	}
}

// Dial implements channel.Transport. It pings the server so that an
// unreachable Redis fails the handshake.
func (t *Transport) Dial(ctx context.Context) (channel.Conn, error) {
	if err := t.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redistransport: ping: %w", err)
	}

	c := &Conn{
		client: t.client,
		prefix: t.prefix,
		logger: t.logger,
		ps:     t.client.Subscribe(ctx),
		out:    make(chan channel.Message, t.bufferSize),
		done:   make(chan struct{}),
	}
	go c.read()
	if t.health.interval > 0 {
		go c.watch(t.health)
	}
	return c, nil
}

// Conn is a pub/sub connection.
type Conn struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
	ps     *redis.PubSub
	out    chan channel.Message
	done   chan struct{}
	once   sync.Once
}

// Messages implements channel.Conn.
func (c *Conn) Messages() <-chan channel.Message { return c.out }

// Send implements channel.Conn.
func (c *Conn) Send(ctx context.Context, msg channel.Message) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	switch msg.Event {
	case channel.EventJoin:
		return c.ps.Subscribe(ctx, c.prefix+msg.Room)
	case channel.EventLeave:
		return c.ps.Unsubscribe(ctx, c.prefix+msg.Room)
	}
	return publish(ctx, c.client, c.prefix, msg)
}

// Close implements channel.Conn.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.ps.Close()
	})
	return err
}

func (c *Conn) read() {
	defer close(c.out)

	in := c.ps.Channel()
	for {
		select {
		case <-c.done:
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			msg, err := decode(c.prefix, m)
			if err != nil {
				c.logger.LogAttrs(context.Background(), slog.LevelWarn, "dropped malformed message",
					slog.String("redis_channel", m.Channel),
					logger.Error(err),
				)
				continue
			}
			select {
			case c.out <- msg:
			case <-c.done:
				return
			}
		}
	}
}

// watch pings over the pub/sub connection. go-redis reconnects a broken
// PubSub on its own and never closes its channel, so a Redis outage only
// shows up as failing pings.
func (c *Conn) watch(hc healthCheck) {
	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), hc.interval)
		err := c.ps.Ping(ctx)
		cancel()
		if err == nil {
			failures = 0
			continue
		}

		select {
		case <-c.done:
			return
		default:
		}
		failures++
		c.logger.LogAttrs(context.Background(), slog.LevelWarn, "pubsub ping failed",
			logger.RetryCount(failures),
			logger.Error(err),
		)
		if failures >= hc.failures {
			c.logger.LogAttrs(context.Background(), slog.LevelError, "redis unreachable, closing connection",
				logger.Error(err),
			)
			_ = c.Close()
			return
		}
	}
}

func decode(prefix string, m *redis.Message) (channel.Message, error) {
	var msg channel.Message
	if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
		return channel.Message{}, err
	}
	if msg.Room == "" {
		msg.Room = strings.TrimPrefix(m.Channel, prefix)
	}
	return msg, nil
}

func publish(ctx context.Context, client redis.UniversalClient, prefix string, msg channel.Message) error {
	if msg.Room == "" {
		return ErrNoRoom
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redistransport: encode %q: %w", msg.Event, err)
	}
	if err := client.Publish(ctx, prefix+msg.Room, data).Err(); err != nil {
		return fmt.Errorf("redistransport: publish to %q: %w", msg.Room, err)
	}
	return nil
}
