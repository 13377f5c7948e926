package notifications_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

func seed(t *testing.T, s *notifications.MemoryStorage, userID string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		notif := lead(i)
		notif.UserID = userID
		require.NoError(t, s.Create(context.Background(), notif))
	}
}

func TestMemoryStorage_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := notifications.NewMemoryStorage()

	assert.ErrorIs(t, s.Create(ctx, notifications.Notification{UserID: "u"}), notifications.ErrMissingID)
	assert.ErrorIs(t, s.Create(ctx, notifications.Notification{ID: "1"}), notifications.ErrMissingUserID)

	require.NoError(t, s.Create(ctx, notifications.Notification{ID: "1", UserID: "u"}))
	assert.ErrorIs(t, s.Create(ctx, notifications.Notification{ID: "1", UserID: "u"}), notifications.ErrDuplicateID)
	assert.NoError(t, s.Create(ctx, notifications.Notification{ID: "1", UserID: "other"}))

	got, err := s.Get(ctx, "u", "1")
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.Get(ctx, "u", "2")
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}

func TestMemoryStorage_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := notifications.NewMemoryStorage()
	seed(t, s, "u", 5)
	require.NoError(t, s.Create(ctx, notifications.Notification{
		ID: "paid", UserID: "u", Type: notifications.TypeCommissionPaid,
		CreatedAt: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.MarkRead(ctx, "u", "2", "4"))

	since := time.Date(2026, 1, 1, 0, 3, 0, 0, time.UTC)
	tests := []struct {
		name string
		opts notifications.ListOptions
		want []notifications.ID
	}{
		{"all newest first", notifications.ListOptions{}, []notifications.ID{"5", "4", "3", "2", "1", "paid"}},
		{"paginated", notifications.ListOptions{Limit: 2, Offset: 1}, []notifications.ID{"4", "3"}},
		{"offset past end", notifications.ListOptions{Offset: 10}, []notifications.ID{}},
		{"only unread", notifications.ListOptions{OnlyUnread: true}, []notifications.ID{"5", "3", "1", "paid"}},
		{"by type", notifications.ListOptions{Types: []notifications.Type{notifications.TypeCommissionPaid}}, []notifications.ID{"paid"}},
		{"since", notifications.ListOptions{Since: &since}, []notifications.ID{"5", "4", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := s.List(ctx, "u", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	got, err := s.List(ctx, "nobody", notifications.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStorage_MarkReadAndCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := notifications.NewMemoryStorage()
	seed(t, s, "u", 3)

	count, err := s.CountUnread(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, s.MarkRead(ctx, "u", "1", "missing"))
	require.NoError(t, s.MarkRead(ctx, "nobody", "1"))

	count, err = s.CountUnread(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := s.Get(ctx, "u", "1")
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.NotNil(t, got.ReadAt)
}

func TestMemoryStorage_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := notifications.NewMemoryStorage()
	seed(t, s, "u", 3)

	require.NoError(t, s.Delete(ctx, "u", "2"))
	got, err := s.List(ctx, "u", notifications.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []notifications.ID{"3", "1"}, ids(got))

	require.NoError(t, s.Delete(ctx, "u", "1", "3"))
	count, err := s.CountUnread(ctx, "u")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, s.Delete(ctx, "nobody", "1"))
}
