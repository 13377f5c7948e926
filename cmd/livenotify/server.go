package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/livenotify/pkg/binder"
	"github.com/dmitrymomot/livenotify/pkg/channel/redistransport"
	"github.com/dmitrymomot/livenotify/pkg/config"
	"github.com/dmitrymomot/livenotify/pkg/email"
	"github.com/dmitrymomot/livenotify/pkg/feedapi"
	"github.com/dmitrymomot/livenotify/pkg/httpserver"
	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/mongo"
	"github.com/dmitrymomot/livenotify/pkg/notifications"
	"github.com/dmitrymomot/livenotify/pkg/notifications/mongostorage"
	"github.com/dmitrymomot/livenotify/pkg/notifications/pgstorage"
	"github.com/dmitrymomot/livenotify/pkg/pg"
	"github.com/dmitrymomot/livenotify/pkg/redis"
)

var errUnknownStorage = errors.New("unknown storage")

func runServer(ctx context.Context, cfg appConfig, redisCfg redis.Config, httpCfg httpserver.Config, log *slog.Logger) error {
	rdb, err := redis.Connect(ctx, redisCfg, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	checks := []httpserver.Check{{Name: "redis", Fn: redis.Healthcheck(rdb)}}

	var storage notifications.Storage
	switch strings.ToLower(cfg.Storage) {
	case "memory":
		storage = notifications.NewMemoryStorage()
	case "postgres":
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, pgCfg, log, pgstorage.Migrations); err != nil {
			return err
		}
		storage = pgstorage.New(pool)
		checks = append(checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})
	case "mongo":
		var mongoCfg mongo.Config
		if err := config.Load(&mongoCfg); err != nil {
			return err
		}
		db, err := mongo.NewWithDatabase(ctx, mongoCfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = db.Client().Disconnect(context.WithoutCancel(ctx)) }()
		ms := mongostorage.New(db)
		if err := ms.EnsureIndexes(ctx); err != nil {
			return err
		}
		storage = ms
		checks = append(checks, httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(db.Client())})
	default:
		return fmt.Errorf("%w: %q (want memory, postgres or mongo)", errUnknownStorage, cfg.Storage)
	}

	publisher := redistransport.NewPublisher(rdb,
		redistransport.WithPrefix(redisCfg.ChannelPrefix),
		redistransport.WithLogger(log),
	)
	var deliverer notifications.Deliverer = notifications.NewRoomDeliverer(publisher, notifications.WithRoomDelivererLogger(log))
	if cfg.EmailDomain != "" {
		var emailCfg email.Config
		if err := config.Load(&emailCfg); err != nil {
			return err
		}
		sender, err := email.NewSender(emailCfg)
		if err != nil {
			return err
		}
		domain := cfg.EmailDomain
		deliverer = notifications.NewMultiDeliverer([]notifications.Deliverer{
			deliverer,
			notifications.NewEmailDeliverer(sender,
				func(_ context.Context, userID string) (string, error) { return userID + "@" + domain, nil },
				notifications.WithEmailDelivererLogger(log),
			),
		}, notifications.WithMultiDelivererLogger(log))
	}

	mgr := notifications.NewManager(storage, deliverer, notifications.WithManagerLogger(log))

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthCheckHandler(log, 2*time.Second, checks...))
	r.Mount("/api", feedapi.NewRouter(mgr, feedapi.WithLogger(log)))
	r.Post("/admin/notify", sendHandler(mgr, log))

	return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log)).Run(ctx, r)
}

type sendRequest struct {
	UserIDs []string           `json:"user_ids"`
	Role    string             `json:"role"`
	Type    notifications.Type `json:"type"`
	Title   string             `json:"title"`
	Message string             `json:"message"`
}

// sendHandler creates notifications for the demo: to a role room when role
// is set (user_ids are the stored recipients), to each user otherwise.
func sendHandler(mgr *notifications.Manager, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		if err := binder.JSON()(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.UserIDs) == 0 {
			http.Error(w, "user_ids is required", http.StatusBadRequest)
			return
		}

		template := notifications.Notification{Type: req.Type, Title: req.Title, Message: req.Message}
		var err error
		if req.Role != "" {
			_, err = mgr.SendToRole(r.Context(), req.Role, req.UserIDs, template)
		} else {
			_, err = mgr.SendToUsers(r.Context(), req.UserIDs, template)
		}
		if err != nil {
			log.LogAttrs(r.Context(), slog.LevelError, "failed to send notification", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}
