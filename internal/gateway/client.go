// Package gateway is the REST client for the chat backend.
//
// A Client holds transport settings only. Authenticated calls go through a
// Session, an immutable value created per token with Client.Session, so the
// bearer token is explicit at every call site and never shared between
// sessions through mutable default headers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// ErrUnauthorized is returned when the backend rejects the session token.
var ErrUnauthorized = errors.New("gateway: unauthorized")

// APIError is a non-2xx response other than 401.
type APIError struct {
	Method string
	Route  string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Route, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Route, e.Status, e.Body)
}

// Observer receives one call per completed HTTP round trip. status is 0 when
// the request failed before a response arrived.
type Observer func(route string, status int, elapsed time.Duration)

// Client talks to the backend API rooted at baseURL + "/api".
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	observe    Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver installs a round-trip observer (metrics).
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session binds token to a new authenticated view of the API.
func (c *Client) Session(token string) *Session {
	return &Session{client: c, token: token}
}

// Session performs authenticated calls with one fixed bearer token.
type Session struct {
	client *Client
	token  string
}

func (s *Session) do(ctx context.Context, method, route, path string, query url.Values, body, out any) error {
	if s.token == "" {
		return fmt.Errorf("%s %s: %w", method, route, ErrUnauthorized)
	}
	return s.client.do(ctx, s.token, method, route, path, query, body, out)
}

// do issues one request. route is the path template used for logs and
// metrics; path is the concrete escaped path.
func (c *Client) do(ctx context.Context, token, method, route, path string, query url.Values, body, out any) error {
	u := c.baseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, route, err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, route, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(route, 0, start)
		return fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.record(route, resp.StatusCode, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, route, err)
	}
	c.logger.Debug("gateway request",
		zap.String("method", method),
		zap.String("route", route),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, route, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Route: route, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, route, err)
	}
	return nil
}

func (c *Client) record(route string, status int, start time.Time) {
	if c.observe != nil {
		c.observe(route, status, time.Since(start))
	}
}

func chatPath(chatID string, suffix ...string) string {
	p := "/Chats/" + url.PathEscape(chatID)
	for _, s := range suffix {
		p += "/" + url.PathEscape(s)
	}
	return p
}
