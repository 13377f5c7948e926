package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/livenotify/pkg/logger"
)

// Connect establishes a connection to a Redis server using cfg.
// It pings up to cfg.RetryAttempts times (at least once), waiting
// cfg.RetryInterval between attempts, all bounded by cfg.ConnectTimeout.
//
// Returns ErrEmptyConnectionURL or ErrFailedToParseRedisConnString for a bad
// URL, and ErrRedisNotReady when no attempt succeeds.
func Connect(ctx context.Context, cfg Config, log *slog.Logger) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if log == nil {
		log = slog.Default()
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		log.LogAttrs(ctx, slog.LevelWarn, "redis not ready",
			logger.Component("redis"),
			logger.RetryCount(attempt),
			logger.Error(lastErr),
		)
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-timer.C:
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}
