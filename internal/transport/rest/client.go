// Package rest is the single outbound chokepoint to the metering
// backend. Every call reads the credential store and, when a token is
// present, attaches it as a bearer credential. Calls are independent:
// no caching, no deduplication, exactly one attempt each.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sentinelhq/sentinel/internal/domain"
)

const defaultTimeout = 30 * time.Second

// TokenSource supplies the current bearer credential, if any.
type TokenSource interface {
	Get() (string, bool)
}

// Config holds backend connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Option customizes the client.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithLogger attaches a zap logger for per-call logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics registers per-call counters and histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.metricsReg = reg }
}

// Client performs authenticated calls against the metering backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	obs     *observer
}

// NewClient creates a backend client. tokens may be nil, in which case
// every call is dispatched unauthenticated.
func NewClient(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rest: base URL required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	obs, err := newObserver(o.logger, o.metricsReg)
	if err != nil {
		return nil, fmt.Errorf("rest: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		obs:     obs,
	}, nil
}

// RequestError is a non-2xx backend response. The status code is kept
// for callers that care, though protected views treat all failures alike.
type RequestError struct {
	StatusCode int
	Detail     string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// Unwrap maps well-known statuses onto domain sentinels so callers can
// use errors.Is without importing net/http.
func (e *RequestError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrProjectNotFound
	default:
		return nil
	}
}

// do issues one request and decodes the JSON response into out (out may
// be nil). op labels the call for metrics and logs.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(ctx, op, start, err) }()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Get(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", op, &RequestError{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(data),
		})
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, "", nil, out)
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, op, method, path, "application/json", bytes.NewReader(data), out)
}

// parseDetail extracts the backend's error message, if the body carries one.
func parseDetail(data []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Detail
}
