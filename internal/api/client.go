// Package api is the HTTP client for the e-invoice backend: the invoice
// query endpoint, the invoice actions and the app-config lookup.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"einvoice/internal/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries a per-call id the backend echoes in its logs.
const RequestIDHeader = "X-Request-ID"

// DefaultTimeout applies when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Config holds what the client needs to reach the backend. It is passed in
// explicitly; the client never reads the environment.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the e-invoice backend.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the backend rooted at cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	const op = "NewClient"

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: %q: %w", op, cfg.BaseURL, ErrInvalidBaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.log.Debug().Str("base_url", base.String()).Dur("timeout", timeout).Msg("API client created")
	return c, nil
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(rawQuery string, segments ...string) string {
	u := *c.baseURL
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	u.Path = c.baseURL.Path + "/" + strings.Join(segments, "/")
	u.RawPath = c.baseURL.EscapedPath() + "/" + strings.Join(escaped, "/")
	u.RawQuery = rawQuery
	return u.String()
}

// do sends the request and returns the body of a 2xx response. Non-2xx
// responses become a *RequestError wrapping ErrUnexpectedStatus.
func (c *Client) do(ctx context.Context, op, method, target string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.log.With().Str("op", op).Str("request_id", requestID).Logger()
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Request failed")
		return nil, &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	log.Debug().
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			Err:        ErrUnexpectedStatus,
		}
	}
	return data, nil
}

// errorMessage extracts {"message": "..."} or {"error": "..."} from a body.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func decode(op string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &RequestError{Op: op, Err: fmt.Errorf("%w: %v", ErrDecodeResponse, err)}
	}
	return nil
}
