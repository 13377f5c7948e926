// Package httpserver runs an http.Handler with graceful shutdown bound to a
// context, plus liveness and readiness probe handlers.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//
//	mux := chi.NewRouter()
//	mux.Get("/healthz", httpserver.HealthCheckHandler(log, 2*time.Second,
//		httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)},
//	))
//	mux.Mount("/", feedapi.NewRouter(manager))
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx, mux); err != nil {
//		return err
//	}
//
// Run returns once the server has shut down. Errors are joined with ErrStart
// or ErrShutdown so they can be checked with errors.Is.
package httpserver
