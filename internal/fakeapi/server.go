package fakeapi

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

// Search kinds served by the fake, as they appear in URLs.
const (
	KindConjunctions = "conjunctions"
	KindEphemeris    = "ephemeris"
	KindDataProducts = "data_products"
)

// Options configures a fake API server.
type Options struct {
	// APIKey, when set, is required on every request.
	APIKey string

	// AdminAPIKey, when set, is required on admin endpoints.
	AdminAPIKey string

	// PollsUntilComplete is the number of status polls answered without a
	// data URI before a search completes.
	PollsUntilComplete int

	// Results holds the rows returned for each search kind.
	Results map[string][]map[string]any

	// DataSources is the data source catalogue.
	DataSources []map[string]any

	// InUseSources lists data source identifiers that cannot be deleted.
	InUseSources []int

	// FailSearches makes every search end with an error condition.
	FailSearches bool

	// RequestTTL is how long searches are kept.
	// Default: 1h
	RequestTTL time.Duration

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is an in-memory AuroraX API.
type Server struct {
	opts        Options
	store       *RequestStore
	router      chi.Router
	logger      *slog.Logger
	maintenance atomic.Bool

	mu        sync.Mutex
	submitted map[string][]json.RawMessage
	sources   []map[string]any
}

// New creates a fake API server.
func New(opts Options) *Server {
	if opts.RequestTTL == 0 {
		opts.RequestTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Results == nil {
		opts.Results = map[string][]map[string]any{}
	}

	s := &Server{
		opts:      opts,
		store:     NewRequestStore(opts.RequestTTL, 5*time.Minute),
		logger:    opts.Logger,
		submitted: map[string][]json.RawMessage{},
		sources:   append([]map[string]any(nil), opts.DataSources...),
	}
	s.router = NewRouter(s, opts.Logger)
	return s
}

// Router returns the chi.Router for mounting or serving.
func (s *Server) Router() chi.Router {
	return s.router
}

// Close stops background goroutines.
func (s *Server) Close() {
	s.store.Stop()
}

// SetMaintenance toggles maintenance mode.
func (s *Server) SetMaintenance(on bool) {
	s.maintenance.Store(on)
}

// Submitted returns the request bodies accepted for a search kind, oldest
// first.
func (s *Server) Submitted(kind string) []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.submitted[kind]...)
}

// LastQuery decodes the most recent body accepted for kind, or returns nil.
func (s *Server) LastQuery(kind string) map[string]any {
	bodies := s.Submitted(kind)
	if len(bodies) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(bodies[len(bodies)-1], &m); err != nil {
		return nil
	}
	return m
}

// Requests lists the searches the fake knows about.
func (s *Server) Requests() []SearchRequest {
	return s.store.List()
}

func (s *Server) recordSubmission(kind string, body json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted[kind] = append(s.submitted[kind], body)
}
