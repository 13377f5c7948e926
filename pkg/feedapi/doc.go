// Package feedapi exposes a notifications.Feed over HTTP and consumes it
// again from the client side.
//
// Server:
//
//	mgr := notifications.NewManager(storage, deliverer)
//	r := chi.NewRouter()
//	r.Mount("/api", feedapi.NewRouter(mgr, feedapi.WithLogger(log)))
//
// The calling user is taken from the X-User-ID header unless a different
// UserResolver is configured. Every JSON response is wrapped in
//
//	{"data": ..., "meta": {...}, "error": {"code": "...", "message": "..."}}
//
// and commands answer 204 No Content.
//
// Client:
//
//	feed, err := feedapi.NewClient("https://portal.example.com/api")
//	items, err := feed.List(ctx, userID, notifications.ListOptions{Limit: 10})
//
// Client implements notifications.Feed, so it plugs straight into
// session.WithFeed. Non-2xx responses come back as *APIError, which matches
// the package HTTPError values with errors.Is.
package feedapi
