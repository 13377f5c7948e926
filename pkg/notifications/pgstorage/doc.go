// Package pgstorage stores server-side notifications in PostgreSQL.
//
//	pool, err := pg.Connect(ctx, cfg, log)
//	...
//	if err := pg.Migrate(ctx, pool, cfg, log, pgstorage.Migrations); err != nil {
//		return err
//	}
//	manager := notifications.NewManager(pgstorage.New(pool), deliverer)
//
// Rows are keyed by (user_id, id), so a role notification shares one id
// across its recipients. Types are stored in their canonical lowercase form
// and parsed back with notifications.ParseType.
package pgstorage
