package redistransport

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/livenotify/pkg/channel"
	"github.com/dmitrymomot/livenotify/pkg/logger"
)

// Publisher pushes events into rooms from the server side.
type Publisher struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewPublisher creates a Publisher. Use the same prefix as the clients'
// Transport.
func NewPublisher(client redis.UniversalClient, opts ...Option) *Publisher {
	o := buildOptions(opts)
	return &Publisher{client: client, prefix: o.prefix, logger: o.logger}
}

// Publish sends event with a JSON-encoded payload to every connection in room.
func (p *Publisher) Publish(ctx context.Context, room, event string, payload any) error {
	msg, err := channel.NewMessage(event, room, payload)
	if err != nil {
		return err
	}
	if err := publish(ctx, p.client, p.prefix, msg); err != nil {
		return err
	}
	p.logger.LogAttrs(ctx, slog.LevelDebug, "published", logger.Room(room), logger.Event(event))
	return nil
}
