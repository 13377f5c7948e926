package feedapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/livenotify/pkg/binder"
	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// UnreadCount is the payload of the unread-count endpoint.
type UnreadCount struct {
	UnreadCount int `json:"unread_count"`
}

// MarkReadRequest is the body of the bulk mark-read endpoint.
type MarkReadRequest struct {
	IDs []notifications.ID `json:"ids"`
}

func writeJSON(w http.ResponseWriter, status int, body JSONResponse) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// errorToDetail maps err to a status and an ErrorDetail. Unknown errors are
// reported as internal without leaking their message.
func errorToDetail(err error) (int, *ErrorDetail) {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)}
	case errors.Is(err, ErrMissingUser):
		return http.StatusUnauthorized, &ErrorDetail{Code: ErrUnauthorized.Key, Message: err.Error()}
	case errors.Is(err, notifications.ErrNotificationNotFound):
		return http.StatusNotFound, &ErrorDetail{Code: ErrNotFound.Key, Message: err.Error()}
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return http.StatusUnsupportedMediaType, &ErrorDetail{Code: ErrUnsupportedMediaType.Key, Message: err.Error()}
	case errors.Is(err, binder.ErrFailedToParseJSON), errors.Is(err, binder.ErrFailedToParseQuery):
		return http.StatusBadRequest, &ErrorDetail{Code: ErrBadRequest.Key, Message: err.Error()}
	}
	return http.StatusInternalServerError, &ErrorDetail{Code: ErrInternal.Key, Message: http.StatusText(http.StatusInternalServerError)}
}
