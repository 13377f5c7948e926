// Package binder decodes HTTP request data into structs.
//
// Binders share the signature func(*http.Request, any) error so handlers
// can treat them uniformly:
//
//	var q listQuery
//	if err := binder.Query()(r, &q); err != nil {
//		// errors.Is(err, binder.ErrFailedToParseQuery)
//	}
//
//	var body markReadRequest
//	if err := binder.JSON()(r, &body); err != nil {
//		// errors.Is(err, binder.ErrFailedToParseJSON) and friends
//	}
//
// Every failure wraps one of the package sentinel errors, which callers map
// to 400 or 415 responses.
package binder
