package notifications

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/livenotify/pkg/cache"
)

const (
	// DefaultCapacity is the number of notifications a Store keeps visible.
	DefaultCapacity = 10
	// DefaultLedgerSize bounds how many read ids a Store remembers.
	DefaultLedgerSize = 512
)

// Snapshot is an immutable view of a Store.
type Snapshot struct {
	Items       []Notification // most recent first
	UnreadCount int
}

// Store is the client-side notification state: a bounded, most-recent-first
// list plus an unread counter tracked independently of the list, because
// the authoritative total may include notifications that never fit in it.
//
// Every mutation computes a new Snapshot from the previous one and publishes
// it atomically; readers never see a partial update. Mutations are applied
// in call order.
type Store struct {
	capacity int

	mu     sync.Mutex
	state  atomic.Pointer[Snapshot]
	ledger *cache.LRUCache[ID, struct{}] // ids already counted as read
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	capacity   int
	ledgerSize int
}

// WithCapacity sets how many notifications stay visible.
func WithCapacity(n int) StoreOption {
	return func(o *storeOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithLedgerSize sets how many read ids are remembered for MarkRead on ids
// that are no longer visible.
func WithLedgerSize(n int) StoreOption {
	return func(o *storeOptions) {
		if n > 0 {
			o.ledgerSize = n
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	o := storeOptions{capacity: DefaultCapacity, ledgerSize: DefaultLedgerSize}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		capacity: o.capacity,
		ledger:   cache.NewLRUCache[ID, struct{}](max(o.ledgerSize, o.capacity)),
	}
	s.state.Store(&Snapshot{})
	return s
}

// Capacity returns the visible list bound.
func (s *Store) Capacity() int { return s.capacity }

// Snapshot returns the current state. The returned slice is a copy.
func (s *Store) Snapshot() Snapshot {
	cur := s.state.Load()
	return Snapshot{Items: slices.Clone(cur.Items), UnreadCount: cur.UnreadCount}
}

// UnreadCount returns the current unread counter.
func (s *Store) UnreadCount() int {
	return s.state.Load().UnreadCount
}

// Hydrate replaces the state with a server page (most recent first) and the
// server's unread total. Items beyond capacity are dropped.
func (s *Store) Hydrate(recent []Notification, unreadTotal int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := slices.Clone(recent[:min(len(recent), s.capacity)])
	s.ledger.Clear()
	for _, n := range recent {
		if n.IsRead {
			s.ledger.Put(n.ID, struct{}{})
		}
	}
	s.state.Store(&Snapshot{Items: items, UnreadCount: max(unreadTotal, 0)})
}

// Push records an arrived notification. It is prepended as unread, the
// oldest entry is evicted beyond capacity and the unread counter always
// grows by one.
func (s *Store) Push(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.Load()
	n.IsRead = false
	n.ReadAt = nil
	s.ledger.Remove(n.ID)

	items := make([]Notification, 0, min(len(cur.Items)+1, s.capacity))
	items = append(items, n)
	items = append(items, cur.Items...)
	if len(items) > s.capacity {
		for _, evicted := range items[s.capacity:] {
			if evicted.IsRead {
				s.ledger.Put(evicted.ID, struct{}{})
			}
		}
		items = items[:s.capacity:s.capacity]
	}

	s.state.Store(&Snapshot{Items: items, UnreadCount: cur.UnreadCount + 1})
}

// MarkRead marks id read and reports whether it was newly counted as read.
//
// A visible unread entry is flipped and counted once. An id that is not
// visible still decrements the counter, but only the first time: ids
// already counted as read are remembered in a bounded ledger. The counter
// never drops below zero.
func (s *Store) MarkRead(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.Load()
	i := slices.IndexFunc(cur.Items, func(n Notification) bool { return n.ID == id })

	switch {
	case i >= 0 && cur.Items[i].IsRead:
		return false
	case i < 0 && s.ledger.Contains(id):
		return false
	}

	items := cur.Items
	if i >= 0 {
		items = slices.Clone(cur.Items)
		items[i].MarkAsRead()
	}
	s.ledger.Put(id, struct{}{})

	s.state.Store(&Snapshot{Items: items, UnreadCount: max(cur.UnreadCount-1, 0)})
	return true
}

// MarkAllRead marks every visible entry read and zeroes the counter.
// Unread notifications beyond the visible window are counted as read too;
// the server-side mark-all is what makes that true.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.Load()
	items := slices.Clone(cur.Items)
	now := time.Now()
	for i := range items {
		if !items[i].IsRead {
			items[i].IsRead = true
			items[i].ReadAt = &now
		}
		s.ledger.Put(items[i].ID, struct{}{})
	}
	s.state.Store(&Snapshot{Items: items, UnreadCount: 0})
}

// Reset discards all state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Clear()
	s.state.Store(&Snapshot{})
}
