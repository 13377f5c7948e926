package channel

import "context"

// Transport opens connections to a push server.
type Transport interface {
	// Dial performs the handshake. It must honor ctx cancellation.
	Dial(ctx context.Context) (Conn, error)
}

// Conn is one established transport connection.
type Conn interface {
	// Send transmits msg. Control messages (EventJoin/EventLeave) change the
	// connection's room membership on the server.
	Send(ctx context.Context, msg Message) error

	// Messages delivers inbound messages. The channel is closed when the
	// connection fails or is closed.
	Messages() <-chan Message

	// Close tears the connection down. Idempotent.
	Close() error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context) (Conn, error)

func (f TransportFunc) Dial(ctx context.Context) (Conn, error) {
	return f(ctx)
}
