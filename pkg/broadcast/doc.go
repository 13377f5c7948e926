// Package broadcast provides type-safe one-to-many message fan-out.
//
//	b := broadcast.NewMemoryBroadcaster[notifications.Notification](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	b.Broadcast(ctx, broadcast.Message[notifications.Notification]{Data: n})
//	for msg := range sub.Receive(ctx) {
//		show(msg.Data)
//	}
//
// Broadcast never blocks. When a subscriber's buffer is full the default
// policy drops the subscriber; WithSlowConsumerPolicy(DropMessage) keeps it
// and skips the message instead. Subscribers are removed automatically when
// their context is cancelled or the broadcaster is closed.
package broadcast
