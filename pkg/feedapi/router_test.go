package feedapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livenotify/pkg/feedapi"
	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

type mockFeed struct {
	mock.Mock
}

func (m *mockFeed) List(ctx context.Context, userID string, opts notifications.ListOptions) ([]notifications.Notification, error) {
	args := m.Called(ctx, userID, opts)
	items, _ := args.Get(0).([]notifications.Notification)
	return items, args.Error(1)
}

func (m *mockFeed) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockFeed) MarkRead(ctx context.Context, userID string, ids ...notifications.ID) error {
	return m.Called(ctx, userID, ids).Error(0)
}

func (m *mockFeed) MarkAllRead(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// seededManager returns a manager holding five notifications for u1, the
// oldest ("n1") already read.
func seededManager(t *testing.T) *notifications.Manager {
	t.Helper()
	storage := notifications.NewMemoryStorage()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		typ := notifications.TypeNewLead
		if i%2 == 0 {
			typ = notifications.TypeCommissionPaid
		}
		require.NoError(t, storage.Create(context.Background(), notifications.Notification{
			ID:        notifications.ID("n" + string(rune('0'+i))),
			Type:      typ,
			Title:     "title",
			UserID:    "u1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, storage.MarkRead(context.Background(), "u1", "n1"))
	return notifications.NewManager(storage, nil, notifications.WithManagerLogger(logger.Nop()))
}

func serve(t *testing.T, h http.Handler, method, target, user, body string) (*httptest.ResponseRecorder, feedapi.JSONResponse) {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if user != "" {
		r.Header.Set(feedapi.UserHeader, user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var env feedapi.JSONResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestRouter_List(t *testing.T) {
	t.Parallel()
	h := feedapi.NewRouter(seededManager(t), feedapi.WithLogger(logger.Nop()))

	t.Run("newest first with meta", func(t *testing.T) {
		t.Parallel()
		w, env := serve(t, h, http.MethodGet, "/notifications?limit=3", "u1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

		items := env.Data.([]any)
		require.Len(t, items, 3)
		assert.Equal(t, "n5", items[0].(map[string]any)["id"])
		assert.EqualValues(t, 3, env.Meta["limit"])
		assert.EqualValues(t, 0, env.Meta["offset"])
		assert.EqualValues(t, 3, env.Meta["count"])
	})

	t.Run("filters", func(t *testing.T) {
		t.Parallel()
		w, env := serve(t, h, http.MethodGet, "/notifications?unread=true&type=NEW_LEAD", "u1", "")
		require.Equal(t, http.StatusOK, w.Code)
		items := env.Data.([]any)
		require.Len(t, items, 2)
		assert.Equal(t, "n5", items[0].(map[string]any)["id"])
		assert.Equal(t, "n3", items[1].(map[string]any)["id"])
	})

	t.Run("empty list is an array", func(t *testing.T) {
		t.Parallel()
		w, _ := serve(t, h, http.MethodGet, "/notifications", "nobody", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"data":[]`)
	})

	t.Run("limit is capped", func(t *testing.T) {
		t.Parallel()
		_, env := serve(t, h, http.MethodGet, "/notifications?limit=5000", "u1", "")
		assert.EqualValues(t, feedapi.MaxLimit, env.Meta["limit"])
	})

	t.Run("bad query", func(t *testing.T) {
		t.Parallel()
		w, env := serve(t, h, http.MethodGet, "/notifications?limit=many", "u1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "bad_request", env.Error.Code)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()
		w, env := serve(t, h, http.MethodGet, "/notifications", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "unauthorized", env.Error.Code)
	})
}

func TestRouter_Commands(t *testing.T) {
	t.Parallel()

	t.Run("unread count and mark read", func(t *testing.T) {
		t.Parallel()
		h := feedapi.NewRouter(seededManager(t), feedapi.WithLogger(logger.Nop()))

		_, env := serve(t, h, http.MethodGet, "/notifications/unread-count", "u1", "")
		assert.EqualValues(t, 4, env.Data.(map[string]any)["unread_count"])

		w, _ := serve(t, h, http.MethodPost, "/notifications/n5/read", "u1", "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w, _ = serve(t, h, http.MethodPost, "/notifications/read", "u1", `{"ids":["n4","n3"]}`)
		assert.Equal(t, http.StatusNoContent, w.Code)

		_, env = serve(t, h, http.MethodGet, "/notifications/unread-count", "u1", "")
		assert.EqualValues(t, 1, env.Data.(map[string]any)["unread_count"])

		w, _ = serve(t, h, http.MethodPost, "/notifications/read-all", "u1", "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		_, env = serve(t, h, http.MethodGet, "/notifications/unread-count", "u1", "")
		assert.EqualValues(t, 0, env.Data.(map[string]any)["unread_count"])
	})

	t.Run("bulk mark read validation", func(t *testing.T) {
		t.Parallel()
		h := feedapi.NewRouter(seededManager(t), feedapi.WithLogger(logger.Nop()))

		w, _ := serve(t, h, http.MethodPost, "/notifications/read", "u1", `{"ids":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		r := httptest.NewRequest(http.MethodPost, "/notifications/read", strings.NewReader(`{"ids":["n1"]}`))
		r.Header.Set("Content-Type", "text/plain")
		r.Header.Set(feedapi.UserHeader, "u1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestRouter_FeedErrors(t *testing.T) {
	t.Parallel()

	feed := &mockFeed{}
	feed.On("CountUnread", mock.Anything, "u1").Return(0, errors.New("db is down"))
	feed.On("MarkRead", mock.Anything, "u1", []notifications.ID{"gone"}).Return(notifications.ErrNotificationNotFound)
	h := feedapi.NewRouter(feed, feedapi.WithLogger(logger.Nop()))

	w, env := serve(t, h, http.MethodGet, "/notifications/unread-count", "u1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "internal_error", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "db is down")

	w, env = serve(t, h, http.MethodPost, "/notifications/gone/read", "u1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Error.Code)

	feed.AssertExpectations(t)
}

func TestRouter_CustomUserResolver(t *testing.T) {
	t.Parallel()

	feed := &mockFeed{}
	feed.On("CountUnread", mock.Anything, "from-cookie").Return(7, nil)
	h := feedapi.NewRouter(feed,
		feedapi.WithLogger(logger.Nop()),
		feedapi.WithUserResolver(func(r *http.Request) (string, error) {
			c, err := r.Cookie("uid")
			if err != nil {
				return "", feedapi.ErrMissingUser
			}
			return c.Value, nil
		}),
	)

	r := httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil)
	r.AddCookie(&http.Cookie{Name: "uid", Value: "from-cookie"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"unread_count":7}}`, w.Body.String())

	w2, _ := serve(t, h, http.MethodGet, "/notifications/unread-count", "header-user", "")
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
	feed.AssertExpectations(t)
}

func TestRouter_RequestID(t *testing.T) {
	t.Parallel()
	h := feedapi.NewRouter(seededManager(t), feedapi.WithLogger(logger.Nop()))

	r := httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil)
	r.Header.Set(feedapi.UserHeader, "u1")
	r.Header.Set(feedapi.RequestIDHeader, "trace-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "trace-1", w.Header().Get(feedapi.RequestIDHeader))

	r = httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil)
	r.Header.Set(feedapi.RequestIDHeader, "not a valid id!")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	generated := w.Header().Get(feedapi.RequestIDHeader)
	assert.NotEqual(t, "not a valid id!", generated)
	assert.NotEmpty(t, generated)

	var env feedapi.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, generated, env.Meta["request_id"])
}
