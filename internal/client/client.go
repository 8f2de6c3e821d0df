// Package client talks to the remote code review service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sprite-ai/reviewdesk/internal/model"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is read for "detail".
const maxErrorBody = 64 << 10

// Reviewer is the subset of Client the interactive and batch front ends use.
type Reviewer interface {
	Review(ctx context.Context, req model.ReviewRequest) (*model.ReviewResult, error)
}

// Client is an HTTP client for the review service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request, whatever http.Client is in use. Zero
// leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the service at baseURL, e.g. http://localhost:8000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// Review submits code for review. Blank code is rejected locally with
// ErrEmptyCode and no request is made.
func (c *Client) Review(ctx context.Context, req model.ReviewRequest) (*model.ReviewResult, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, ErrEmptyCode
	}

	var result model.ReviewResult
	if err := c.postJSON(ctx, "/review", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BatchReview submits several snippets in one call. Per-item failures are
// reported inside the response, not as an error.
func (c *Client) BatchReview(ctx context.Context, reqs []model.ReviewRequest) (*model.BatchResponse, error) {
	if len(reqs) == 0 {
		return &model.BatchResponse{}, nil
	}

	var resp model.BatchResponse
	if err := c.postJSON(ctx, "/batch-review", reqs, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health queries the service health endpoint.
func (c *Client) Health(ctx context.Context) (*model.HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var status model.HealthStatus
	if err := c.do(httpReq, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, out)
}

func (c *Client) do(httpReq *http.Request, out any) error {
	reqID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, reqID)
	httpReq.Header.Set("Accept", "application/json")

	logger := c.log.With().
		Str("request_id", reqID).
		Str("method", httpReq.Method).
		Str("path", httpReq.URL.Path).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error().Err(err).Msg("review service unreachable")
		return &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("review service responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &RemoteError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
		logger.Error().Int("status", resp.StatusCode).Str("detail", rerr.Detail).Msg("review service rejected request")
		return rerr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.Error().Err(err).Msg("decode response")
		return &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

// readDetail extracts the "detail" field from an error body. Anything that
// does not decode to a non-empty string yields "".
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}

	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}

	s, ok := payload.Detail.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
