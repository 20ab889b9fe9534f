// Package gemini adapts the Gemini API SDK to the debate model collaborator.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"

	maxRetries = 3
)

var (
	// ErrNoCandidates is returned when a reply carries no candidate at all.
	ErrNoCandidates = errors.New("gemini: response has no candidates")
	// ErrBlocked is returned when the API refuses the prompt.
	ErrBlocked = errors.New("gemini: prompt blocked")
)

// contentGenerator is the part of genai.Models the client calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Client. Only APIKey is required.
type Options struct {
	APIKey string
	// Model defaults to DefaultModel.
	Model string
	// BaseURL overrides the API root, e.g. for a local test server.
	BaseURL    string
	HTTPClient *http.Client
	// Temperature is passed through when set.
	Temperature *float32
}

// Client generates debate replies through the Gemini API.
type Client struct {
	models      contentGenerator
	model       string
	config      *genai.GenerateContentConfig
	backoffFunc func(attempt int) time.Duration
}

func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// NewClient creates a Client on the Gemini API backend.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	sdk, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	var genCfg *genai.GenerateContentConfig
	if opts.Temperature != nil {
		genCfg = &genai.GenerateContentConfig{Temperature: opts.Temperature}
	}
	return &Client{
		models:      sdk.Models,
		model:       model,
		config:      genCfg,
		backoffFunc: defaultBackoff,
	}, nil
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Generate sends prompt as a single user message and returns the text parts
// of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) ([]string, error) {
	resp, err := c.generateWithRetry(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, fmt.Errorf("%w: %s", ErrBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return fragments(resp.Candidates[0]), nil
}

// fragments returns the visible text parts of a candidate in order.
// Thought parts are skipped.
func fragments(c *genai.Candidate) []string {
	if c == nil || c.Content == nil {
		return nil
	}
	out := make([]string, 0, len(c.Content.Parts))
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		out = append(out, p.Text)
	}
	return out
}

func (c *Client) generateWithRetry(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoffFunc(attempt - 1)):
			}
		}

		resp, err := c.models.GenerateContent(ctx, c.model, contents, c.config)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// isRetryable reports rate limiting and server-side API errors.
func isRetryable(err error) bool {
	code, ok := statusCode(err)
	return ok && (code == http.StatusTooManyRequests || code >= 500)
}

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
