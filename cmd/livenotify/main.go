// Command livenotify runs either side of the portal notification system.
//
// In server mode it serves the notification feed API and publishes pushed
// notifications into Redis rooms. In client mode it opens a session for the
// configured identity, joins its rooms and logs every arrival.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dmitrymomot/livenotify/pkg/config"
	"github.com/dmitrymomot/livenotify/pkg/feedapi"
	"github.com/dmitrymomot/livenotify/pkg/httpserver"
	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/redis"
	"github.com/dmitrymomot/livenotify/pkg/session"
)

type appConfig struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	Name       string `env:"APP_NAME" envDefault:"livenotify"`
	Mode       string `env:"LIVENOTIFY_MODE" envDefault:"client"`
	UserID     string `env:"LIVENOTIFY_USER_ID"`
	Role       string `env:"LIVENOTIFY_ROLE" envDefault:"associate"`
	FeedAPIURL string `env:"FEED_API_URL" envDefault:"http://localhost:8080/api"`
	Storage    string `env:"LIVENOTIFY_STORAGE" envDefault:"memory"` // memory, postgres or mongo

	// EmailDomain enables email delivery to <user id>@EmailDomain when set.
	EmailDomain string `env:"LIVENOTIFY_EMAIL_DOMAIN"`
}

var errUnknownMode = errors.New("unknown mode")

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(feedapi.RequestIDExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.LogAttrs(ctx, slog.LevelError, "livenotify exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return err
	}

	switch strings.ToLower(cfg.Mode) {
	case "server":
		var httpCfg httpserver.Config
		if err := config.Load(&httpCfg); err != nil {
			return err
		}
		return runServer(ctx, cfg, redisCfg, httpCfg, log)
	case "client":
		var sessCfg session.Config
		if err := config.Load(&sessCfg); err != nil {
			return err
		}
		return runClient(ctx, cfg, redisCfg, sessCfg, log)
	}
	return fmt.Errorf("%w: %q (want server or client)", errUnknownMode, cfg.Mode)
}
