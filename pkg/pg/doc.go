// Package pg connects to PostgreSQL with pgx/v5 and applies goose migrations.
//
// Connect opens a *pgxpool.Pool, retrying until the database answers a ping.
// Migrate runs goose against the same pool, either from an embedded fs.FS or
// from a directory on disk. Healthcheck adapts the pool for readiness probes.
//
//	pool, err := pg.Connect(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//	if err := pg.Migrate(ctx, pool, cfg, log, pgstorage.Migrations); err != nil {
//		return err
//	}
package pg
