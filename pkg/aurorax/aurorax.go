// Package aurorax provides a public API for embedding the AuroraX search client.
package aurorax

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	api "github.com/robert-malhotra/aurorax-client/internal/aurorax"
	"github.com/robert-malhotra/aurorax-client/internal/metrics"
	"github.com/robert-malhotra/aurorax-client/internal/search"
	"github.com/robert-malhotra/aurorax-client/internal/sources"
)

// Query and record types.
type (
	ConjunctionQuery    = search.ConjunctionQuery
	EphemerisQuery      = search.EphemerisQuery
	DataProductQuery    = search.DataProductQuery
	RawQuery            = search.RawQuery
	Query               = search.Query
	GroundBlock         = search.GroundBlock
	SpaceBlock          = search.SpaceBlock
	EventsBlock         = search.EventsBlock
	CustomLocationBlock = search.CustomLocationBlock
	LatLon              = search.LatLon
	Distance            = search.Distance
	MetadataFilter      = search.MetadataFilter
	FilterExpression    = search.FilterExpression
	Conjunction         = search.Conjunction
	EphemerisRecord     = search.EphemerisRecord
	DataProductRecord   = search.DataProductRecord
	Status              = search.Status
	LogEntry            = search.LogEntry
	ListFilter          = search.ListFilter
	WaitOptions         = search.WaitOptions
	CancelOptions       = search.CancelOptions
	DataSource          = sources.DataSource
	SourceFilter        = sources.Filter
)

// Search is one search request; see search.Search.
type Search[R any] = search.Search[R]

// Errors callers can match with errors.Is.
var (
	ErrBadParameters = api.ErrBadParameters
	ErrNotFound      = api.ErrNotFound
	ErrUnauthorized  = api.ErrUnauthorized
	ErrConflict      = api.ErrConflict
	ErrServer        = api.ErrServer
	ErrMaintenance   = api.ErrMaintenance
	ErrSearch        = api.ErrSearch
	ErrValidation    = api.ErrValidation
	ErrDataRetrieval = api.ErrDataRetrieval
	ErrTimeout       = api.ErrTimeout
)

// DefaultMaxRetries is the number of 5xx retries when Options.MaxRetries is zero.
const DefaultMaxRetries = 2

// Options configures the AuroraX client.
type Options struct {
	// BaseURL is the AuroraX API base URL.
	// Default: "https://api.aurorax.space"
	BaseURL string

	// APIKey is sent with every request. Listing and deleting search
	// requests needs an administrator key.
	APIKey string

	// Timeout is the per-request timeout.
	// Default: 10s
	Timeout time.Duration

	// MaxRetries is the number of retries on 5xx responses. A negative
	// value disables retrying.
	// Default: 2
	MaxRetries int

	// RetryWait is the initial backoff between retries.
	// Default: 500ms
	RetryWait time.Duration

	// RateLimit is the maximum number of requests per second.
	// Default: 0 (unlimited)
	RateLimit float64

	// RateBurst is the rate limiter burst size.
	// Default: 1
	RateBurst int

	// PollInterval is the time between status polls.
	// Default: 1s
	PollInterval time.Duration

	// WaitTimeout bounds Run and Wait. A negative value waits until the
	// context is done.
	// Default: 15m
	WaitTimeout time.Duration

	// Registerer, when set, receives search lifecycle metrics.
	// Default: nil (metrics disabled)
	Registerer prometheus.Registerer

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Client is an AuroraX search client that can be embedded in another application.
type Client struct {
	api     *api.Client
	sources *sources.Client
	metrics *metrics.Collector
	wait    search.WaitOptions
	logger  *slog.Logger
}

// New creates a new AuroraX client with the given options.
func New(opts Options) (*Client, error) {
	// Apply defaults
	if opts.BaseURL == "" {
		opts.BaseURL = api.DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = api.DefaultTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	} else if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = search.DefaultPollInterval
	}
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = search.DefaultWaitTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if u, err := url.Parse(opts.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL must be an absolute URL, got %q", opts.BaseURL)
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", opts.Timeout)
	}
	if opts.PollInterval < 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", opts.PollInterval)
	}

	apiClient := api.NewClient(api.Options{
		BaseURL:    opts.BaseURL,
		APIKey:     opts.APIKey,
		Timeout:    opts.Timeout,
		MaxRetries: opts.MaxRetries,
		RetryWait:  opts.RetryWait,
		RateLimit:  opts.RateLimit,
		RateBurst:  opts.RateBurst,
	}).WithLogger(opts.Logger)

	c := &Client{
		api:     apiClient,
		sources: sources.NewClient(apiClient),
		wait:    search.WaitOptions{PollInterval: opts.PollInterval, Timeout: opts.WaitTimeout},
		logger:  opts.Logger,
	}
	if opts.Registerer != nil {
		c.metrics = metrics.NewCollector(opts.Registerer)
	}

	opts.Logger.Debug("created AuroraX client", "base_url", apiClient.BaseURL())
	return c, nil
}

func newSearch[R any](c *Client, kind search.Kind[R], q Query) *Search[R] {
	s := search.New(c.api, kind, q).WithLogger(c.logger)
	if c.metrics != nil {
		s.WithRecorder(c.metrics)
	}
	return s
}

// Conjunctions creates an unexecuted conjunction search.
func (c *Client) Conjunctions(q Query) *Search[Conjunction] {
	return newSearch(c, search.Conjunctions, q)
}

// Ephemeris creates an unexecuted ephemeris search.
func (c *Client) Ephemeris(q Query) *Search[EphemerisRecord] {
	return newSearch(c, search.Ephemeris, q)
}

// DataProducts creates an unexecuted data product search.
func (c *Client) DataProducts(q Query) *Search[DataProductRecord] {
	return newSearch(c, search.DataProducts, q)
}

// Run executes s, waits for it with the client's wait options and fetches
// its data.
func Run[R any](ctx context.Context, c *Client, s *Search[R]) error {
	return search.Run(ctx, s, c.wait)
}

// WaitOptions returns the polling bounds configured on the client.
func (c *Client) WaitOptions() WaitOptions {
	return c.wait
}

// Sources returns the data source lookup client.
func (c *Client) Sources() *sources.Client {
	return c.sources
}

// Metrics returns the lifecycle metrics collector, or nil when no
// Registerer was configured.
func (c *Client) Metrics() *metrics.Collector {
	return c.metrics
}

// RequestStatus fetches the status of a known request. kind is a search kind
// name such as "conjunctions" or "data-products".
func (c *Client) RequestStatus(ctx context.Context, kind, requestID string) (*Status, error) {
	u, err := c.requestURL(kind, requestID)
	if err != nil {
		return nil, err
	}
	return search.GetStatus(ctx, c.api, u)
}

// RequestLogs fetches the server-side logs of a known request.
func (c *Client) RequestLogs(ctx context.Context, kind, requestID string) ([]LogEntry, error) {
	u, err := c.requestURL(kind, requestID)
	if err != nil {
		return nil, err
	}
	return search.GetLogs(ctx, c.api, u)
}

// RequestData fetches the raw result rows of a known, completed request.
func (c *Client) RequestData(ctx context.Context, kind, requestID string, responseFormat map[string]any) ([]map[string]any, error) {
	u, err := c.requestURL(kind, requestID)
	if err != nil {
		return nil, err
	}
	rows, err := search.GetData(ctx, c.api, search.DataURL(u), responseFormat)
	if err != nil {
		return nil, err
	}
	return search.RawRows(rows)
}

// CancelRequest asks the server to stop a known request.
func (c *Client) CancelRequest(ctx context.Context, kind, requestID string) error {
	u, err := c.requestURL(kind, requestID)
	if err != nil {
		return err
	}
	return search.CancelRequest(ctx, c.api, u)
}

// ListRequests lists search requests. It needs an administrator API key.
func (c *Client) ListRequests(ctx context.Context, filter ListFilter) ([]map[string]any, error) {
	return search.ListRequests(ctx, c.api, filter)
}

// DeleteRequest removes a search request. It needs an administrator API key.
func (c *Client) DeleteRequest(ctx context.Context, requestID string) error {
	return search.DeleteRequest(ctx, c.api, requestID)
}

func (c *Client) requestURL(kind, requestID string) (string, error) {
	name, ok := search.ParseKindName(kind)
	if !ok {
		return "", fmt.Errorf("%w: unknown search kind %q, must be one of conjunctions, ephemeris, data_products",
			ErrBadParameters, kind)
	}
	if requestID == "" {
		return "", fmt.Errorf("%w: request id is required", ErrBadParameters)
	}
	return search.RequestURL(c.api, name, requestID), nil
}
