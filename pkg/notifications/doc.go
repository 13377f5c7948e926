// Package notifications holds the portal notification model and both sides
// of its state.
//
// # Client side
//
// Store is what the UI reads: a bounded list of the most recent
// notifications (DefaultCapacity, 10) and an unread counter that is kept
// separately, because the server's unread total can include notifications
// older than the visible window.
//
//	store := notifications.NewStore()
//	store.Hydrate(page, unreadTotal)
//	store.Push(n)              // prepends, evicts the oldest, unread+1
//	store.MarkRead(n.ID)       // at most one decrement per id
//	store.MarkAllRead()        // every visible entry read, unread = 0
//	snap := store.Snapshot()
//
// Snapshots are immutable; each mutation publishes a new one atomically.
//
// # Server side
//
// Manager stores notifications in a Storage and pushes them through a
// Deliverer. RoomDeliverer publishes channel.EventNotification messages into
// "user:<id>" or "role:<role>" rooms using any Publisher, such as
// memtransport.Hub or redistransport.Publisher.
//
//	manager := notifications.NewManager(
//		notifications.NewMemoryStorage(),
//		notifications.NewRoomDeliverer(publisher),
//	)
//	_, err := manager.Send(ctx, notifications.Notification{
//		UserID: "42",
//		Type:   notifications.TypeLeadAssigned,
//		Title:  "Lead assigned",
//	})
//
// EmailDeliverer additionally emails user-addressed notifications; combine
// it with RoomDeliverer through MultiDeliverer. Storage has in-memory,
// PostgreSQL (pgstorage) and MongoDB (mongostorage) implementations.
//
// Manager also implements Feed, the fetch interface client sessions hydrate
// from; feedapi exposes the same interface over HTTP.
//
// # Types
//
// Type is a closed enum. Wire values are snake_case ("new_lead"); parsing
// ignores case and separators and maps anything unrecognized to TypeUnknown.
// ID accepts JSON strings and numbers.
package notifications
