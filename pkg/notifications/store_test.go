package notifications_test

import (
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

func lead(i int) notifications.Notification {
	return notifications.Notification{
		ID:        notifications.ID(strconv.Itoa(i)),
		Type:      notifications.TypeNewLead,
		Title:     fmt.Sprintf("Lead %d", i),
		CreatedAt: time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
	}
}

func ids(items []notifications.Notification) []notifications.ID {
	out := make([]notifications.ID, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

func TestStore_PushElevenThenMarkAll(t *testing.T) {
	t.Parallel()
	s := notifications.NewStore()
	require.Equal(t, 10, s.Capacity())

	for i := 1; i <= 11; i++ {
		s.Push(lead(i))
	}

	snap := s.Snapshot()
	assert.Equal(t, 11, snap.UnreadCount)
	assert.Equal(t,
		[]notifications.ID{"11", "10", "9", "8", "7", "6", "5", "4", "3", "2"},
		ids(snap.Items),
	)

	s.MarkAllRead()
	snap = s.Snapshot()
	assert.Zero(t, snap.UnreadCount)
	require.Len(t, snap.Items, 10)
	for _, n := range snap.Items {
		assert.True(t, n.IsRead, "item %s", n.ID)
		assert.NotNil(t, n.ReadAt)
	}
}

func TestStore_Push(t *testing.T) {
	t.Parallel()

	t.Run("pushed items arrive unread", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewStore()
		n := lead(1)
		n.IsRead = true
		s.Push(n)

		snap := s.Snapshot()
		assert.False(t, snap.Items[0].IsRead)
		assert.Equal(t, 1, snap.UnreadCount)
	})

	t.Run("custom capacity", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewStore(notifications.WithCapacity(3))
		for i := 1; i <= 5; i++ {
			s.Push(lead(i))
		}
		assert.Equal(t, []notifications.ID{"5", "4", "3"}, ids(s.Snapshot().Items))
		assert.Equal(t, 5, s.UnreadCount())
	})

	t.Run("length bound holds for any sequence", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewStore()
		for i := 1; i <= 100; i++ {
			s.Push(lead(i))
			snap := s.Snapshot()
			assert.LessOrEqual(t, len(snap.Items), 10)
			assert.Equal(t, notifications.ID(strconv.Itoa(i)), snap.Items[0].ID)
			if i%7 == 0 {
				s.MarkRead(lead(i - 3).ID)
			}
			assert.GreaterOrEqual(t, s.UnreadCount(), 0)
		}
	})
}

func TestStore_MarkRead(t *testing.T) {
	t.Parallel()

	t.Run("visible entry", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewStore()
		s.Push(lead(1))
		s.Push(lead(2))

		assert.True(t, s.MarkRead("1"))
		assert.False(t, s.MarkRead("1"))

		snap := s.Snapshot()
		assert.Equal(t, 1, snap.UnreadCount)
		assert.True(t, snap.Items[1].IsRead)
		assert.False(t, snap.Items[0].IsRead)
	})

	t.Run("evicted entry decrements once", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewStore(notifications.WithCapacity(2))
		s.Push(lead(1))
		s.Push(lead(2))
		s.Push(lead(3))
		require.Equal(t, 3, s.UnreadCount())

		assert.True(t, s.MarkRead("1"))
		assert.False(t, s.MarkRead("1"))
		assert.Equal(t, 2, s.UnreadCount())
	})

	t.Run("read entry evicted later is not counted again", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewStore(notifications.WithCapacity(2))
		s.Push(lead(1))
		s.MarkRead("1")
		s.Push(lead(2))
		s.Push(lead(3))

		assert.False(t, s.MarkRead("1"))
		assert.Equal(t, 2, s.UnreadCount())
	})

	t.Run("never negative", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewStore()
		s.MarkRead("ghost-1")
		s.MarkRead("ghost-2")
		assert.Zero(t, s.UnreadCount())
	})

	t.Run("does not change previous snapshots", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewStore()
		s.Push(lead(1))
		before := s.Snapshot()

		s.MarkRead("1")
		assert.False(t, before.Items[0].IsRead)
		assert.Equal(t, 1, before.UnreadCount)
	})
}

func TestStore_Hydrate(t *testing.T) {
	t.Parallel()

	s := notifications.NewStore(notifications.WithCapacity(3))
	s.Push(lead(99))

	page := []notifications.Notification{lead(5), lead(4), lead(3), lead(2)}
	page[1].IsRead = true
	page[3].IsRead = true
	s.Hydrate(page, 42)

	snap := s.Snapshot()
	assert.Equal(t, []notifications.ID{"5", "4", "3"}, ids(snap.Items))
	assert.Equal(t, 42, snap.UnreadCount)

	// hydrated read items never decrement, visible or not
	assert.False(t, s.MarkRead("4"))
	assert.False(t, s.MarkRead("2"))
	assert.True(t, s.MarkRead("5"))
	assert.Equal(t, 41, s.UnreadCount())

	s.Hydrate(nil, -3)
	assert.Zero(t, s.UnreadCount())
	assert.Empty(t, s.Snapshot().Items)
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()
	s := notifications.NewStore()
	s.Push(lead(1))
	s.MarkRead("1")
	s.Reset()

	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.UnreadCount)

	s.Push(lead(1))
	assert.True(t, s.MarkRead("1"))
}

func TestStore_ConcurrentReaders(t *testing.T) {
	t.Parallel()
	s := notifications.NewStore()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Snapshot()
				unread := 0
				for _, n := range snap.Items {
					if !n.IsRead {
						unread++
					}
				}
				// without mark-read the whole visible list is unread
				if unread != len(snap.Items) {
					t.Errorf("partial snapshot: %d unread of %d", unread, len(snap.Items))
					return
				}
			}
		}()
	}

	for i := 1; i <= 200; i++ {
		s.Push(lead(i))
	}
	close(stop)
	wg.Wait()
	assert.Equal(t, 200, s.UnreadCount())
}
