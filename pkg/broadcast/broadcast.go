package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on. The channel is
	// closed when the subscriber is closed.
	Receive(ctx context.Context) <-chan Message[T]

	// Close stops delivery and closes the receive channel. Idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers without blocking on
// slow consumers.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber whose lifetime is bound to ctx.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to every active subscriber.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}

// SlowConsumerPolicy decides what happens when a subscriber's buffer is full.
type SlowConsumerPolicy int

const (
	// DropSubscriber closes and removes the slow subscriber.
	DropSubscriber SlowConsumerPolicy = iota
	// DropMessage skips the message for that subscriber only.
	DropMessage
)

type subscriber[T any] struct {
	ch     chan Message[T]
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch: make(chan Message[T], bufferSize),
	}
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send reports false when the subscriber is closed or its buffer is full.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

func (s *subscriber[T]) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
