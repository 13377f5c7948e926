package binder

import "net/http"

// Query returns a binder that fills struct fields tagged `query:"name"` from
// the URL query string. Untagged fields use their lowercased name; `query:"-"`
// skips a field. Slices accept repeated and comma-separated values, and
// types implementing encoding.TextUnmarshaler parse themselves.
//
//	type listQuery struct {
//		Limit  int                  `query:"limit"`
//		Unread bool                 `query:"unread"`
//		Types  []notifications.Type `query:"type"`
//	}
//	var q listQuery
//	if err := binder.Query()(r, &q); err != nil { ... }
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
