// Package memtransport is an in-process push server implementing
// channel.Transport. Rooms are backed by broadcast.MemoryBroadcaster, so a
// connection that falls behind loses messages instead of blocking others.
//
//	hub := memtransport.NewHub()
//	defer hub.Close()
//
//	client := channel.NewClient(hub)
//	_ = client.Connect(ctx)
//	_ = client.Join(ctx, "user:42")
//
//	_ = hub.Publish(ctx, "user:42", channel.EventNotification, n)
package memtransport
