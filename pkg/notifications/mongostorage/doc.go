// Package mongostorage stores server-side notifications in a MongoDB
// collection, one document per recipient keyed by (user_id, id).
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, log)
//	...
//	storage := mongostorage.New(db)
//	if err := storage.EnsureIndexes(ctx); err != nil {
//		return err
//	}
//	manager := notifications.NewManager(storage, deliverer)
package mongostorage
