// Package aurorax provides the HTTP transport for the AuroraX search API.
package aurorax

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production AuroraX API.
	DefaultBaseURL = "https://api.aurorax.space"

	// DefaultTimeout is the per-request timeout used when none is configured.
	DefaultTimeout = 10 * time.Second

	// APIKeyHeader carries the caller's API key.
	APIKeyHeader = "x-aurorax-api-key"

	// RequestIDHeader tags each outgoing request with a client-side id.
	RequestIDHeader = "X-Request-ID"

	// UserAgent identifies this client to the API.
	UserAgent = "aurorax-client-go/1.0"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int           // retries on 5xx responses; 0 disables retrying
	RetryWait  time.Duration // initial backoff between retries
	RateLimit  float64       // requests per second; 0 disables throttling
	RateBurst  int
}

// Client handles communication with the AuroraX API. It is safe for
// concurrent use; search state lives in the callers, not here.
type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Response is a completed API response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewClient creates a new AuroraX API client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 500 * time.Millisecond
	}

	c := &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		logger:  slog.Default(),
	}

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	c.http = resty.NewWithClient(&http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(8*opts.RetryWait).
		AddRetryCondition(retryOnServerError).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", UserAgent).
		SetLogger(restyLogger{c}).
		OnBeforeRequest(c.throttle)

	return c
}

// WithLogger sets a custom logger for the client
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins an API path such as "api/v1/conjunctions/search" onto the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// Do sends a request and returns the response if the API answered with a
// 2xx status. Non-2xx answers come back as *APIError.
func (c *Client) Do(ctx context.Context, method, rawURL string, params url.Values, body any) (*Response, error) {
	reqID := uuid.NewString()

	c.logger.DebugContext(ctx, "executing AuroraX request",
		slog.String("method", method),
		slog.String("url", rawURL),
		slog.String("request_id", reqID),
	)

	req := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, reqID)
	if c.apiKey != "" {
		req.SetHeader(APIKeyHeader, c.apiKey)
	}
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, rawURL)
	if err != nil {
		c.logger.ErrorContext(ctx, "AuroraX API request failed",
			slog.String("error", err.Error()),
			slog.String("url", rawURL),
			slog.String("request_id", reqID),
		)
		return nil, fmt.Errorf("AuroraX API request failed: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		apiErr := newAPIError(resp.StatusCode(), resp.Body())
		c.logger.ErrorContext(ctx, "AuroraX API returned error status",
			slog.Int("status_code", resp.StatusCode()),
			slog.String("response_body", apiErr.Message),
			slog.String("request_id", reqID),
		)
		return nil, apiErr
	}

	c.logger.DebugContext(ctx, "AuroraX request completed",
		slog.Int("status_code", resp.StatusCode()),
		slog.Duration("duration", resp.Time()),
		slog.String("request_id", reqID),
	)

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// DoJSON sends a request and decodes a JSON response body into out.
// An empty body leaves out untouched.
func (c *Client) DoJSON(ctx context.Context, method, rawURL string, params url.Values, body, out any) error {
	resp, err := c.Do(ctx, method, rawURL, params, body)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		c.logger.ErrorContext(ctx, "failed to decode AuroraX response",
			slog.String("error", err.Error()),
			slog.String("url", rawURL),
		)
		return fmt.Errorf("failed to decode AuroraX response: %w", err)
	}
	return nil
}

func (c *Client) throttle(_ *resty.Client, r *resty.Request) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(r.Context())
}

// retryOnServerError retries only 5xx answers. Transport failures are
// returned to the caller as-is.
func retryOnServerError(r *resty.Response, err error) bool {
	return err == nil && r != nil && r.StatusCode() >= http.StatusInternalServerError
}

// restyLogger routes resty's internal messages through slog.
type restyLogger struct {
	c *Client
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.c.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "resty"))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.c.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "resty"))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.c.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "resty"))
}
