// Package openrouter talks to the OpenRouter chat completion and model
// catalog endpoints.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public OpenRouter API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	appTitle     = "debatecoach"
	maxRetries   = 3
	maxErrorBody = 64 << 10
)

// APIError is a non-200 reply from the API.
type APIError struct {
	StatusCode int
	Message    string
	// RetryAfter is the server's requested wait, zero when absent.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports rate limiting and server-side failures.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// Client is an OpenRouter API client. Requests that fail with 429 or 5xx
// are retried with exponential backoff, waiting at least as long as the
// server's Retry-After.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	backoff    func(attempt int) time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewClient creates a Client for apiKey on DefaultBaseURL unless overridden.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		backoff:    defaultBackoff,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChatCompletion posts req to /chat/completions.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.call(ctx, http.MethodPost, "/chat/completions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListModels returns the model catalog.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var out ModelsResponse
	if err := c.call(ctx, http.MethodGet, "/models", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("openrouter: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		err := c.send(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Temporary() || attempt == maxRetries {
			return fmt.Errorf("openrouter: %w", err)
		}
		if err := c.sleep(ctx, c.retryDelay(attempt, apiErr)); err != nil {
			return fmt.Errorf("openrouter: %w", err)
		}
	}
}

func (c *Client) retryDelay(attempt int, apiErr *APIError) time.Duration {
	d := c.backoff(attempt)
	if apiErr.RetryAfter > d {
		d = apiErr.RetryAfter
	}
	return d
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", appTitle)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}

	var envelope ErrorResponse
	switch {
	case json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "":
		apiErr.Message = envelope.Error.Message
	case len(bytes.TrimSpace(raw)) > 0:
		apiErr.Message = string(bytes.TrimSpace(raw))
	default:
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
