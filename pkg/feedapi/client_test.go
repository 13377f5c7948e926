package feedapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livenotify/pkg/feedapi"
	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

func TestNewClient(t *testing.T) {
	t.Parallel()
	_, err := feedapi.NewClient("  ")
	assert.ErrorIs(t, err, feedapi.ErrEmptyBaseURL)

	c, err := feedapi.NewClient("http://localhost:8080/api/")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestClient_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(feedapi.NewRouter(seededManager(t), feedapi.WithLogger(logger.Nop())))
	t.Cleanup(srv.Close)

	c, err := feedapi.NewClient(srv.URL, feedapi.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	items, err := c.List(ctx, "u1", notifications.ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, notifications.ID("n4"), items[0].ID)
	assert.Equal(t, notifications.TypeCommissionPaid, items[0].Type)
	assert.Equal(t, notifications.ID("n3"), items[1].ID)

	since := time.Date(2026, 3, 1, 9, 4, 0, 0, time.UTC)
	items, err = c.List(ctx, "u1", notifications.ListOptions{Since: &since, Types: []notifications.Type{notifications.TypeNewLead}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, notifications.ID("n5"), items[0].ID)

	n, err := c.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, c.MarkRead(ctx, "u1", "n5"))
	require.NoError(t, c.MarkRead(ctx, "u1", "n4", "n3"))
	require.NoError(t, c.MarkRead(ctx, "u1"))

	items, err = c.List(ctx, "u1", notifications.ListOptions{OnlyUnread: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, notifications.ID("n2"), items[0].ID)

	require.NoError(t, c.MarkAllRead(ctx, "u1"))
	n, err = c.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	feed := &mockFeed{}
	feed.On("MarkAllRead", mock.Anything, "u1").Return(notifications.ErrNotificationNotFound)
	srv := httptest.NewServer(feedapi.NewRouter(feed, feedapi.WithLogger(logger.Nop())))
	t.Cleanup(srv.Close)

	c, err := feedapi.NewClient(srv.URL)
	require.NoError(t, err)

	err = c.MarkAllRead(ctx, "u1")
	require.Error(t, err)
	assert.True(t, feedapi.IsAPIError(err))
	assert.ErrorIs(t, err, feedapi.ErrNotFound)
	assert.NotErrorIs(t, err, feedapi.ErrUnauthorized)

	_, err = c.CountUnread(ctx, "")
	assert.ErrorIs(t, err, feedapi.ErrUnauthorized)

	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(plain.Close)

	c2, err := feedapi.NewClient(plain.URL)
	require.NoError(t, err)
	_, err = c2.CountUnread(ctx, "u1")
	var apiErr *feedapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)

	feed.AssertExpectations(t)
}

func TestClient_ForwardsRequestID(t *testing.T) {
	t.Parallel()

	feed := &mockFeed{}
	feed.On("CountUnread", mock.Anything, "u1").Return(2, nil)
	router := feedapi.NewRouter(feed, feedapi.WithLogger(logger.Nop()))

	seen := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(feedapi.RequestIDHeader)
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := feedapi.NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.CountUnread(feedapi.WithRequestID(context.Background(), "req-42"), "u1")
	require.NoError(t, err)
	assert.Equal(t, "req-42", <-seen)

	_, err = c.CountUnread(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, <-seen)
}
