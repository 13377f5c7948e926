// Package channel implements the client side of a persistent push
// connection: connect and disconnect, room membership and token based
// event subscriptions.
//
// A Client is built over a Transport, which dials a Conn. Two transports are
// provided in subpackages: memtransport (in process) and redistransport
// (Redis pub/sub).
//
//	c := channel.NewClient(transport, channel.WithLogger(log))
//	sub := channel.OnJSON(c, channel.EventNotification, func(ctx context.Context, n notifications.Notification) error {
//		store.Push(n)
//		return nil
//	})
//	defer c.Off(sub)
//
//	if err := c.Connect(ctx); err != nil {
//		return err
//	}
//	defer c.Disconnect()
//	_ = c.Join(ctx, "user:42")
//
// Handlers for one connection run sequentially in arrival order. A handler
// that returns an error or panics is logged as a ListenerError and the
// remaining handlers still run.
//
// A connection lost by the transport moves the client to StateDisconnected
// and forgets joined rooms but keeps registered handlers. Reconnecting is the
// caller's decision.
package channel
