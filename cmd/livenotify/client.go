package main

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/livenotify/pkg/channel"
	"github.com/dmitrymomot/livenotify/pkg/channel/redistransport"
	"github.com/dmitrymomot/livenotify/pkg/feedapi"
	"github.com/dmitrymomot/livenotify/pkg/identity"
	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/redis"
	"github.com/dmitrymomot/livenotify/pkg/session"
)

func runClient(ctx context.Context, cfg appConfig, redisCfg redis.Config, sessCfg session.Config, log *slog.Logger) error {
	rdb, err := redis.Connect(ctx, redisCfg, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	feed, err := feedapi.NewClient(cfg.FeedAPIURL)
	if err != nil {
		return err
	}

	transport := redistransport.New(rdb,
		redistransport.WithPrefix(redisCfg.ChannelPrefix),
		redistransport.WithLogger(log),
	)
	client := channel.NewClient(transport,
		channel.WithLogger(log),
		channel.WithStateObserver(func(from, to channel.State) {
			log.LogAttrs(context.Background(), slog.LevelInfo, "connection state",
				slog.String("from", from.String()),
				logger.ConnState(to.String()),
			)
		}),
	)

	ctrl := session.NewFromConfig(client, sessCfg,
		session.WithFeed(feed),
		session.WithLogger(log),
	)
	defer ctrl.Close()

	arrivals := ctrl.Arrivals(ctx)
	id := identity.New(cfg.UserID, identity.Role(cfg.Role))
	if _, err := ctrl.Start(ctx, id).AwaitContext(ctx); err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	log.LogAttrs(ctx, slog.LevelInfo, "session ready",
		logger.UserID(id.ID),
		logger.Role(string(id.Role)),
		slog.Int("visible", len(snap.Items)),
		slog.Int("unread", snap.UnreadCount),
	)

	for {
		select {
		case <-ctx.Done():
			return ctrl.Stop(context.WithoutCancel(ctx))
		case msg, ok := <-arrivals.Receive(ctx):
			if !ok {
				return nil
			}
			n := msg.Data
			log.LogAttrs(ctx, slog.LevelInfo, "notification arrived",
				logger.NotificationID(n.ID.String()),
				slog.String("type", n.Type.String()),
				slog.String("title", n.Title),
				slog.Int("unread", ctrl.Snapshot().UnreadCount),
			)
		}
	}
}
