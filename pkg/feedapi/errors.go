package feedapi

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is an API error with a status code and a stable machine key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

var (
	ErrBadRequest           = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized         = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrNotFound             = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrUnsupportedMediaType = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrInternal             = HTTPError{Code: http.StatusInternalServerError, Key: "internal_error"}
)

var (
	// ErrMissingUser is returned by a UserResolver when the request carries no user.
	ErrMissingUser = errors.New("missing user identity")
	// ErrEmptyBaseURL is returned by NewClient for an empty base URL.
	ErrEmptyBaseURL = errors.New("feed API base URL is empty")
)

// APIError is returned by Client for non-2xx responses.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("feed API: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("feed API: %d %s: %s", e.Status, e.Code, e.Message)
}

// Is matches the HTTPError with the same status, so callers can write
// errors.Is(err, feedapi.ErrNotFound).
func (e *APIError) Is(target error) bool {
	var h HTTPError
	if errors.As(target, &h) {
		return h.Code == e.Status
	}
	return false
}

// IsAPIError reports whether err is or wraps an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
