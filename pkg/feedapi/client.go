package feedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

// Client is an HTTP notifications.Feed backed by a NewRouter server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userHeader string
}

var _ notifications.Feed = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithUserHeader changes the header carrying the user id.
func WithUserHeader(name string) ClientOption {
	return func(cl *Client) {
		if name != "" {
			cl.userHeader = name
		}
	}
}

// NewClient creates a client for the API mounted at baseURL, e.g.
// "https://portal.example.com/api".
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("feed API base URL: %w", err)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userHeader: UserHeader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) List(ctx context.Context, userID string, opts notifications.ListOptions) ([]notifications.Notification, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.OnlyUnread {
		q.Set("unread", "true")
	}
	for _, t := range opts.Types {
		q.Add("type", t.String())
	}
	if opts.Since != nil {
		q.Set("since", opts.Since.Format(time.RFC3339Nano))
	}

	var items []notifications.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", q, userID, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) CountUnread(ctx context.Context, userID string) (int, error) {
	var out UnreadCount
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, userID, nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// MarkRead uses the single-id route for one id and the bulk route otherwise.
func (c *Client) MarkRead(ctx context.Context, userID string, ids ...notifications.ID) error {
	switch len(ids) {
	case 0:
		return nil
	case 1:
		return c.do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(ids[0].String())+"/read", nil, userID, nil, nil)
	}
	return c.do(ctx, http.MethodPost, "/notifications/read", nil, userID, MarkReadRequest{IDs: ids}, nil)
}

func (c *Client) MarkAllRead(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/notifications/read-all", nil, userID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, userID string, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("feed API: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("feed API: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.userHeader, userID)
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feed API: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *ErrorDetail    `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("feed API: decode response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("feed API: decode data: %w", err)
	}
	return nil
}
