package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster is an in-process Broadcaster. All methods are safe for
// concurrent use.
type MemoryBroadcaster[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	policy      SlowConsumerPolicy
	closed      bool
	done        chan struct{}
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// Option configures a MemoryBroadcaster.
type Option func(*options)

type options struct {
	policy SlowConsumerPolicy
}

// WithSlowConsumerPolicy selects how full subscriber buffers are handled.
// The default is DropSubscriber.
func WithSlowConsumerPolicy(p SlowConsumerPolicy) Option {
	return func(o *options) { o.policy = p }
}

// NewMemoryBroadcaster creates a broadcaster whose subscribers buffer up to
// bufferSize messages (at least 1).
func NewMemoryBroadcaster[T any](bufferSize int, opts ...Option) *MemoryBroadcaster[T] {
	o := options{policy: DropSubscriber}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
		policy:      o.policy,
		done:        make(chan struct{}),
	}
}

// Subscribe creates a subscriber that is removed when ctx is cancelled.
// After Close it returns an already closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](b.bufferSize)
	if b.closed {
		_ = sub.Close()
		return sub
	}
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			select {
			case <-ctx.Done():
				b.unsubscribe(sub)
			case <-b.done:
			}
		}()
	}

	return sub
}

// Broadcast sends msg to all active subscribers without blocking. Closed
// subscribers are pruned; full ones are handled per SlowConsumerPolicy.
// It returns ErrClosed after Close.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for sub := range b.subscribers {
		if sub.send(msg) {
			continue
		}
		if b.policy == DropMessage && !sub.isClosed() {
			continue
		}
		go b.unsubscribe(sub)
	}

	return nil
}

// Len returns the number of registered subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber. Safe to call multiple times.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	b.cleanupWg.Wait()
	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
