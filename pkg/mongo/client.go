package mongo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/livenotify/pkg/logger"
)

// New connects to MongoDB and pings the primary, retrying up to
// cfg.RetryAttempts times.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*mongo.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if log == nil {
		log = slog.Default()
	}

	opts := options.Client().
		ApplyURI(cfg.ConnectionURL).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetRetryWrites(cfg.RetryWrites).
		SetRetryReads(cfg.RetryReads)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(cfg.MaxConnIdleTime)
	}

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := mongo.Connect(opts)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(context.WithoutCancel(ctx))
		}
		lastErr = err

		log.LogAttrs(ctx, slog.LevelWarn, "mongo not ready",
			logger.Component("mongo"),
			logger.RetryCount(attempt),
			logger.Error(err),
		)
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrFailedToConnectToMongo, ctx.Err())
		case <-timer.C:
		}
	}

	return nil, errors.Join(ErrFailedToConnectToMongo, lastErr)
}

// NewWithDatabase connects like New and returns cfg.Database.
func NewWithDatabase(ctx context.Context, cfg Config, log *slog.Logger) (*mongo.Database, error) {
	client, err := New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return client.Database(cfg.Database), nil
}
