// Package api is the HTTP transport client for the task backend. It attaches
// the stored bearer token, retries transient failures with a fixed delay
// ladder, and reports process-wide connection status transitions.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUnauthorized is returned on a 401; the stored token has already been
// cleared and the caller must send the user back through login.
var ErrUnauthorized = errors.New("authentication required")

// Status is the process-wide connection state, emitted on transitions only.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
)

// TokenSource supplies the bearer token and clears it on auth failure.
type TokenSource interface {
	Token() string
	Clear() error
}

// APIError is a non-transient error response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

var retryDelays = []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}

// Client wraps outbound calls to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        *slog.Logger
	maxRetries int
	delays     []time.Duration
	statusFn   func(Status)

	mu           sync.Mutex
	reconnecting bool

	Auth          *AuthAPI
	Tasks         *TaskAPI
	Projects      *ProjectAPI
	Users         *UserAPI
	Comments      *CommentAPI
	Notifications *NotificationAPI
	Profile       *ProfileAPI
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. A timed-out call counts as a
// transient failure and is retried.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetries sets the number of retries after the initial attempt.
func WithRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryDelays overrides the fixed delay ladder.
func WithRetryDelays(delays []time.Duration) Option {
	return func(c *Client) {
		if len(delays) > 0 {
			c.delays = delays
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithStatusFunc registers a callback invoked exactly once per connection
// state transition, for display elsewhere.
func WithStatusFunc(fn func(Status)) Option {
	return func(c *Client) { c.statusFn = fn }
}

// OnStatusChange replaces the transition callback after construction, for
// consumers wired later than the client itself (the TUI program loop).
func (c *Client) OnStatusChange(fn func(Status)) {
	c.mu.Lock()
	c.statusFn = fn
	c.mu.Unlock()
}

// NewClient creates a client for the given base URL (including any /api
// prefix the backend mounts its routes under).
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
		log:        slog.Default(),
		maxRetries: 3,
		delays:     retryDelays,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Auth = &AuthAPI{c}
	c.Tasks = &TaskAPI{c}
	c.Projects = &ProjectAPI{c}
	c.Users = &UserAPI{c}
	c.Comments = &CommentAPI{c}
	c.Notifications = &NotificationAPI{c}
	c.Profile = &ProfileAPI{c}
	return c
}

// do sends one API request, replaying it on transient failures. The body is
// marshaled once up front so every retry sends identical bytes.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		result, err := c.send(ctx, method, target, payload, out)
		if err == nil {
			c.markConnected()
			return nil
		}
		if !result.transient {
			return err
		}

		lastErr = err
		c.markReconnecting()
		if attempt >= c.maxRetries {
			return fmt.Errorf("%s %s: %w", method, path, lastErr)
		}
		delay := c.delays[min(attempt, len(c.delays)-1)]
		c.log.Debug("retrying request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type sendResult struct {
	transient bool
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, out any) (sendResult, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return sendResult{}, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return sendResult{}, ctx.Err()
		}
		return sendResult{transient: true}, err
	}
	defer resp.Body.Close()

	return c.decode(resp, out)
}

func (c *Client) decode(resp *http.Response, out any) (sendResult, error) {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if err := c.tokens.Clear(); err != nil {
			c.log.Warn("failed to clear token", slog.String("error", err.Error()))
		}
		return sendResult{}, ErrUnauthorized
	case resp.StatusCode >= 500:
		return sendResult{transient: true}, &APIError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	case resp.StatusCode >= 400:
		return sendResult{}, &APIError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return sendResult{}, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return sendResult{}, fmt.Errorf("decode response: %w", err)
	}
	return sendResult{}, nil
}

func (c *Client) authorize(req *http.Request) {
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// readDetail extracts the backend's {"detail": "..."} error message.
func readDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) markReconnecting() {
	c.mu.Lock()
	already := c.reconnecting
	c.reconnecting = true
	fn := c.statusFn
	c.mu.Unlock()
	if already {
		return
	}
	c.log.Warn("connection to server lost, retrying")
	if fn != nil {
		fn(StatusReconnecting)
	}
}

func (c *Client) markConnected() {
	c.mu.Lock()
	wasReconnecting := c.reconnecting
	c.reconnecting = false
	fn := c.statusFn
	c.mu.Unlock()
	if !wasReconnecting {
		return
	}
	c.log.Info("connection to server restored")
	if fn != nil {
		fn(StatusConnected)
	}
}

// Health checks backend reachability and updates the connection status.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.markReconnecting()
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 500 {
		c.markReconnecting()
		return &APIError{StatusCode: resp.StatusCode}
	}
	c.markConnected()
	return nil
}

// StartConnectionMonitor polls the health endpoint until ctx is cancelled.
func (c *Client) StartConnectionMonitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Health(ctx); err != nil && ctx.Err() == nil {
					c.log.Debug("health check failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}
