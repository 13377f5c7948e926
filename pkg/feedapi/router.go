package feedapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/livenotify/pkg/binder"
	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

const (
	// UserHeader is the request header the default resolver reads.
	UserHeader = "X-User-ID"

	DefaultLimit = 20
	MaxLimit     = 100
)

// UserResolver extracts the calling user's id from a request. It returns
// ErrMissingUser when there is none.
type UserResolver func(r *http.Request) (string, error)

// HeaderUserResolver resolves the user from the named header.
func HeaderUserResolver(header string) UserResolver {
	return func(r *http.Request) (string, error) {
		id := strings.TrimSpace(r.Header.Get(header))
		if id == "" {
			return "", ErrMissingUser
		}
		return id, nil
	}
}

// Option configures the router.
type Option func(*router)

// WithUserResolver replaces the X-User-ID header resolver.
func WithUserResolver(fn UserResolver) Option {
	return func(r *router) {
		if fn != nil {
			r.resolveUser = fn
		}
	}
}

// WithLogger sets the logger for request errors.
func WithLogger(l *slog.Logger) Option {
	return func(r *router) {
		if l != nil {
			r.logger = l
		}
	}
}

type router struct {
	feed        notifications.Feed
	resolveUser UserResolver
	logger      *slog.Logger
}

// NewRouter returns the notification feed API:
//
//	GET  /notifications              ?limit&offset&unread&type&since
//	GET  /notifications/unread-count
//	POST /notifications/read         {"ids": [...]}
//	POST /notifications/read-all
//	POST /notifications/{id}/read
//
// Mount it under any prefix. Responses use the JSONResponse envelope, and
// every request gets an X-Request-ID that error responses repeat in meta.
func NewRouter(feed notifications.Feed, opts ...Option) chi.Router {
	rt := &router{
		feed:        feed,
		resolveUser: HeaderUserResolver(UserHeader),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.logger = rt.logger.With(logger.Component("feedapi"))

	r := chi.NewRouter()
	r.Use(requestID)
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", rt.handle(rt.list))
		r.Get("/unread-count", rt.handle(rt.unreadCount))
		r.Post("/read", rt.handle(rt.markRead))
		r.Post("/read-all", rt.handle(rt.markAllRead))
		r.Post("/{id}/read", rt.handle(rt.markOneRead))
	})
	return r
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, userID string) error

func (rt *router) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := rt.resolveUser(r)
		if err == nil {
			err = fn(w, r, userID)
		}
		if err == nil {
			return
		}

		status, detail := errorToDetail(err)
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		rt.logger.LogAttrs(r.Context(), level, "feed request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			logger.UserID(userID),
			logger.Error(err),
		)
		body := JSONResponse{Error: detail, Meta: map[string]any{"request_id": RequestIDFromContext(r.Context())}}
		if werr := writeJSON(w, status, body); werr != nil {
			rt.logger.LogAttrs(r.Context(), slog.LevelError, "failed to write error response", logger.Error(werr))
		}
	}
}

type listQuery struct {
	Limit  int                  `query:"limit"`
	Offset int                  `query:"offset"`
	Unread bool                 `query:"unread"`
	Types  []notifications.Type `query:"type"`
	Since  *time.Time           `query:"since"`
}

func (rt *router) list(w http.ResponseWriter, r *http.Request, userID string) error {
	var q listQuery
	if err := binder.Query()(r, &q); err != nil {
		return err
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	q.Limit = min(q.Limit, MaxLimit)
	q.Offset = max(q.Offset, 0)

	items, err := rt.feed.List(r.Context(), userID, notifications.ListOptions{
		Limit:      q.Limit,
		Offset:     q.Offset,
		OnlyUnread: q.Unread,
		Types:      q.Types,
		Since:      q.Since,
	})
	if err != nil {
		return err
	}
	if items == nil {
		items = []notifications.Notification{}
	}

	return writeJSON(w, http.StatusOK, JSONResponse{
		Data: items,
		Meta: map[string]any{"limit": q.Limit, "offset": q.Offset, "count": len(items)},
	})
}

func (rt *router) unreadCount(w http.ResponseWriter, r *http.Request, userID string) error {
	n, err := rt.feed.CountUnread(r.Context(), userID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, JSONResponse{Data: UnreadCount{UnreadCount: n}})
}

func (rt *router) markOneRead(w http.ResponseWriter, r *http.Request, userID string) error {
	id := notifications.ID(chi.URLParam(r, "id"))
	if id == "" {
		return ErrBadRequest
	}
	if err := rt.feed.MarkRead(r.Context(), userID, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (rt *router) markRead(w http.ResponseWriter, r *http.Request, userID string) error {
	var req MarkReadRequest
	if err := binder.JSON()(r, &req); err != nil {
		return err
	}
	if len(req.IDs) == 0 {
		return ErrBadRequest
	}
	if err := rt.feed.MarkRead(r.Context(), userID, req.IDs...); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (rt *router) markAllRead(w http.ResponseWriter, r *http.Request, userID string) error {
	if err := rt.feed.MarkAllRead(r.Context(), userID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
