// Package redis connects to the Redis server that carries push rooms.
//
// Connect retries the initial ping using Config, which is usually populated
// from environment variables:
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Healthcheck adapts a client to the readiness probe signature used by
// httpserver:
//
//	mux.Get("/healthz", httpserver.HealthCheckHandler(log, 2*time.Second,
//		httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)},
//	))
//
// Errors are sentinel values joined with the driver error, so errors.Is
// works on either.
package redis
