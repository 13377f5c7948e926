package channel

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by operations that need a live connection.
	ErrNotConnected = errors.New("channel: not connected")

	// ErrConnectAborted is returned by Connect when Disconnect ran while the
	// handshake was in flight. The dialed connection is closed.
	ErrConnectAborted = errors.New("channel: connect aborted by disconnect")
)

// ConnectionError reports a handshake or transport failure. It is not fatal:
// the client stays Disconnected and the caller decides whether to retry.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("channel: %s failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ListenerError reports a handler that failed or panicked during dispatch.
// It is logged and never propagated to the transport.
type ListenerError struct {
	Event          string
	SubscriptionID uint64
	Panicked       bool
	Err            error
}

func (e *ListenerError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("channel: listener %d for %q panicked: %v", e.SubscriptionID, e.Event, e.Err)
	}
	return fmt.Sprintf("channel: listener %d for %q failed: %v", e.SubscriptionID, e.Event, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

func IsConnectionError(err error) bool {
	var e *ConnectionError
	return errors.As(err, &e)
}

func IsListenerError(err error) bool {
	var e *ListenerError
	return errors.As(err, &e)
}
