package channel

import (
	"context"
	"sync"
)

// Handler processes one inbound message. Returning an error (or panicking)
// is reported as a ListenerError and does not affect other handlers.
type Handler func(ctx context.Context, msg Message) error

// Subscription identifies one handler registration. Off consumes it.
type Subscription struct {
	id    uint64
	event string
}

// ID returns the registration token; zero for an invalid subscription.
func (s Subscription) ID() uint64 { return s.id }

// Event returns the event name the handler is registered for.
func (s Subscription) Event() string { return s.event }

// Valid reports whether s came from a successful On call.
func (s Subscription) Valid() bool { return s.id != 0 }

type listener struct {
	id      uint64
	handler Handler
}

// listenerTable keeps handlers per event in registration order.
type listenerTable struct {
	mu      sync.RWMutex
	next    uint64
	byEvent map[string][]listener
}

func newListenerTable() *listenerTable {
	return &listenerTable{byEvent: make(map[string][]listener)}
}

func (t *listenerTable) add(event string, h Handler) Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	t.byEvent[event] = append(t.byEvent[event], listener{id: t.next, handler: h})
	return Subscription{id: t.next, event: event}
}

func (t *listenerTable) remove(sub Subscription) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := t.byEvent[sub.event]
	for i, l := range list {
		if l.id != sub.id {
			continue
		}
		// copy so that in-flight dispatch snapshots stay intact
		next := make([]listener, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(t.byEvent, sub.event)
		} else {
			t.byEvent[sub.event] = next
		}
		return true
	}
	return false
}

func (t *listenerTable) snapshot(event string) []listener {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byEvent[event]
}

func (t *listenerTable) count(event string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byEvent[event])
}

func (t *listenerTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.byEvent)
}
