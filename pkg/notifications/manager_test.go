package notifications_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Create(ctx context.Context, notif notifications.Notification) error {
	return m.Called(ctx, notif).Error(0)
}

func (m *MockStorage) Get(ctx context.Context, userID string, id notifications.ID) (*notifications.Notification, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notifications.Notification), args.Error(1)
}

func (m *MockStorage) List(ctx context.Context, userID string, opts notifications.ListOptions) ([]notifications.Notification, error) {
	args := m.Called(ctx, userID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notifications.Notification), args.Error(1)
}

func (m *MockStorage) MarkRead(ctx context.Context, userID string, ids ...notifications.ID) error {
	return m.Called(ctx, userID, ids).Error(0)
}

func (m *MockStorage) Delete(ctx context.Context, userID string, ids ...notifications.ID) error {
	return m.Called(ctx, userID, ids).Error(0)
}

func (m *MockStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, notif notifications.Notification) error {
	return m.Called(ctx, notif).Error(0)
}

func (m *MockDeliverer) DeliverBatch(ctx context.Context, notifs []notifications.Notification) error {
	return m.Called(ctx, notifs).Error(0)
}

func TestManager_Send(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stores then delivers", func(t *testing.T) {
		t.Parallel()
		storage := new(MockStorage)
		deliverer := new(MockDeliverer)
		storage.On("Create", ctx, mock.MatchedBy(func(n notifications.Notification) bool {
			return n.ID != "" && !n.CreatedAt.IsZero() && n.UserID == "u1"
		})).Return(nil)
		deliverer.On("Deliver", ctx, mock.Anything).Return(nil)

		m := notifications.NewManager(storage, deliverer, notifications.WithManagerLogger(logger.Nop()))
		sent, err := m.Send(ctx, notifications.Notification{UserID: "u1", Type: notifications.TypeNewLead})
		require.NoError(t, err)
		assert.NotEmpty(t, sent.ID)

		storage.AssertExpectations(t)
		deliverer.AssertExpectations(t)
	})

	t.Run("delivery failure is not an error", func(t *testing.T) {
		t.Parallel()
		storage := new(MockStorage)
		deliverer := new(MockDeliverer)
		storage.On("Create", ctx, mock.Anything).Return(nil)
		deliverer.On("Deliver", ctx, mock.Anything).Return(errors.New("redis down"))

		m := notifications.NewManager(storage, deliverer, notifications.WithManagerLogger(logger.Nop()))
		_, err := m.Send(ctx, notifications.Notification{ID: "fixed", UserID: "u1"})
		assert.NoError(t, err)
	})

	t.Run("storage failure skips delivery", func(t *testing.T) {
		t.Parallel()
		storage := new(MockStorage)
		deliverer := new(MockDeliverer)
		storeErr := errors.New("disk full")
		storage.On("Create", ctx, mock.Anything).Return(storeErr)

		m := notifications.NewManager(storage, deliverer, notifications.WithManagerLogger(logger.Nop()))
		_, err := m.Send(ctx, notifications.Notification{UserID: "u1"})
		assert.ErrorIs(t, err, storeErr)
		deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
	})

	t.Run("unknown type is normalized", func(t *testing.T) {
		t.Parallel()
		m := notifications.NewManager(notifications.NewMemoryStorage(), nil, notifications.WithManagerLogger(logger.Nop()))
		sent, err := m.Send(ctx, notifications.Notification{UserID: "u1", Type: "party"})
		require.NoError(t, err)
		assert.Equal(t, notifications.TypeUnknown, sent.Type)
	})
}

func TestManager_SendToUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := notifications.NewMemoryStorage()
	deliverer := new(MockDeliverer)
	deliverer.On("DeliverBatch", ctx, mock.MatchedBy(func(ns []notifications.Notification) bool {
		return len(ns) == 2 && ns[0].ID != ns[1].ID
	})).Return(nil)

	m := notifications.NewManager(storage, deliverer, notifications.WithManagerLogger(logger.Nop()))
	sent, err := m.SendToUsers(ctx, []string{"a", "b"}, notifications.Notification{Title: "hi"})
	require.NoError(t, err)
	require.Len(t, sent, 2)

	for _, user := range []string{"a", "b"} {
		count, err := m.CountUnread(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	}
	deliverer.AssertExpectations(t)
}

func TestManager_SendToRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := notifications.NewMemoryStorage()
	deliverer := new(MockDeliverer)
	deliverer.On("Deliver", ctx, mock.MatchedBy(func(n notifications.Notification) bool {
		return n.Role == "admin" && n.UserID == ""
	})).Return(nil).Once()

	m := notifications.NewManager(storage, deliverer, notifications.WithManagerLogger(logger.Nop()))
	sent, err := m.SendToRole(ctx, "admin", []string{"a1", "a2"}, notifications.Notification{
		Type:  notifications.TypeNewAssociateRegistration,
		Title: "New associate",
	})
	require.NoError(t, err)

	for _, admin := range []string{"a1", "a2"} {
		got, err := m.Get(ctx, admin, sent.ID)
		require.NoError(t, err)
		assert.Equal(t, admin, got.UserID)
	}

	require.NoError(t, m.MarkRead(ctx, "a1", sent.ID))
	count, err := m.CountUnread(ctx, "a1")
	require.NoError(t, err)
	assert.Zero(t, count)
	count, err = m.CountUnread(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	deliverer.AssertExpectations(t)
}

func TestManager_MarkAllRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("marks every unread", func(t *testing.T) {
		t.Parallel()
		storage := notifications.NewMemoryStorage()
		seed(t, storage, "u", 4)
		m := notifications.NewManager(storage, nil, notifications.WithManagerLogger(logger.Nop()))

		require.NoError(t, m.MarkAllRead(ctx, "u"))
		count, err := m.CountUnread(ctx, "u")
		require.NoError(t, err)
		assert.Zero(t, count)

		require.NoError(t, m.MarkAllRead(ctx, "u"))
	})

	t.Run("list failure", func(t *testing.T) {
		t.Parallel()
		storage := new(MockStorage)
		listErr := errors.New("timeout")
		storage.On("List", ctx, "u", notifications.ListOptions{OnlyUnread: true}).Return(nil, listErr)

		m := notifications.NewManager(storage, nil, notifications.WithManagerLogger(logger.Nop()))
		assert.ErrorIs(t, m.MarkAllRead(ctx, "u"), listErr)
		storage.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := new(MockStorage)
	storage.On("Delete", ctx, "u", []notifications.ID{"1", "2"}).Return(nil)

	m := notifications.NewManager(storage, nil)
	require.NoError(t, m.Delete(ctx, "u", "1", "2"))
	storage.AssertExpectations(t)
}
