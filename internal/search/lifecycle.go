// Package search builds AuroraX queries and drives search requests through
// submit, poll, fetch and cancel.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

const (
	// DefaultPollInterval is the time between status polls.
	DefaultPollInterval = time.Second

	// DefaultWaitTimeout bounds Wait and Cancel when no timeout is given.
	DefaultWaitTimeout = 15 * time.Minute
)

// State is the lifecycle position of a search.
type State int

const (
	StateNotExecuted State = iota
	StateExecuted
	StatePolling
	StateCompleted
	StateErrored
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateNotExecuted:
		return "not_executed"
	case StateExecuted:
		return "executed"
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions happen from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateErrored || s == StateCancelled
}

// WaitOptions bound a polling loop. Zero values select the defaults; a
// negative Timeout polls until ctx is done.
type WaitOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultWaitTimeout
	}
	return o
}

// CancelOptions control Cancel. With Wait set, Cancel polls until the server
// reports the request finished or failed.
type CancelOptions struct {
	Wait         bool
	PollInterval time.Duration
	Timeout      time.Duration
}

// Recorder observes search lifecycle events.
type Recorder interface {
	SearchSubmitted(kind string)
	StatusPolled(kind string)
	SearchFinished(kind string, state State, elapsed time.Duration)
	RecordsFetched(kind string, count int)
}

type noopRecorder struct{}

func (noopRecorder) SearchSubmitted(string) {}
func (noopRecorder) StatusPolled(string) {}
func (noopRecorder) SearchFinished(string, State, time.Duration) {}
func (noopRecorder) RecordsFetched(string, int) {}

// Search is one search request of kind R. A Search is owned by its caller
// and must not be driven from two goroutines at once; build a new one for
// every query.
type Search[R any] struct {
	Query Query

	// ResponseFormat, when set, asks the server to project result rows.
	// Projected rows land in RawData instead of Data.
	ResponseFormat map[string]any

	Executed   bool
	Completed  bool
	RequestID  string
	RequestURL string
	DataURL    string
	Status     *Status
	Logs       []LogEntry
	Data       []R
	RawData    []map[string]any

	kind            Kind[R]
	client          *aurorax.Client
	logger          *slog.Logger
	recorder        Recorder
	state           State
	cancelRequested bool
	submittedAt     time.Time
}

// New creates an unexecuted search.
func New[R any](client *aurorax.Client, kind Kind[R], query Query) *Search[R] {
	return &Search[R]{
		Query:    query,
		Data:     []R{},
		kind:     kind,
		client:   client,
		logger:   client.Logger(),
		recorder: noopRecorder{},
	}
}

// WithLogger sets a custom logger for the search
func (s *Search[R]) WithLogger(logger *slog.Logger) *Search[R] {
	s.logger = logger
	return s
}

// WithRecorder reports lifecycle events to r.
func (s *Search[R]) WithRecorder(r Recorder) *Search[R] {
	if r == nil {
		r = noopRecorder{}
	}
	s.recorder = r
	return s
}

// WithResponseFormat sets the projection sent when fetching data.
func (s *Search[R]) WithResponseFormat(format map[string]any) *Search[R] {
	s.ResponseFormat = format
	return s
}

// Kind returns the search's kind.
func (s *Search[R]) Kind() Kind[R] {
	return s.kind
}

// State returns the lifecycle state.
func (s *Search[R]) State() State {
	return s.state
}

func (s *Search[R]) String() string {
	return fmt.Sprintf("Search[%s](executed=%t, completed=%t, request_id=%q, state=%s)",
		s.kind.Name, s.Executed, s.Completed, s.RequestID, s.state)
}

// Execute builds the query and submits it. The server answers 202 with the
// request's polling URL in the Location header.
func (s *Search[R]) Execute(ctx context.Context) error {
	if s.Executed {
		return fmt.Errorf("%w: request %s", ErrAlreadyExecuted, s.RequestID)
	}

	body, err := s.Query.Body()
	if err != nil {
		return err
	}

	resp, err := s.client.Do(ctx, http.MethodPost, s.client.URL(s.kind.SearchPath()), nil, body)
	if err != nil {
		return fmt.Errorf("failed to submit %s search: %w", s.kind.Name, err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: %s search returned status %d, expected 202", aurorax.ErrServer, s.kind.Name, resp.StatusCode)
	}

	location := resp.Header.Get(locationHeaderKey)
	if location == "" {
		return fmt.Errorf("%w: %s search response has no Location header", aurorax.ErrServer, s.kind.Name)
	}
	requestURL, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("%w: %s search response has an invalid Location header %q: %v", aurorax.ErrServer, s.kind.Name, location, err)
	}
	requestURL.RawQuery, requestURL.Fragment = "", ""
	requestURL.Path, requestURL.RawPath = strings.TrimSuffix(requestURL.Path, "/"), ""
	if requestURL.Path == "" {
		return fmt.Errorf("%w: %s search response Location %q has no request path", aurorax.ErrServer, s.kind.Name, location)
	}

	if requestURL.IsAbs() {
		s.RequestURL = requestURL.String()
	} else {
		s.RequestURL = s.client.URL(requestURL.Path)
	}
	s.RequestID = path.Base(requestURL.Path)
	s.Executed = true
	s.state = StateExecuted
	s.submittedAt = time.Now()
	s.recorder.SearchSubmitted(s.kind.Name)

	s.logger.InfoContext(ctx, "submitted search",
		slog.String("kind", s.kind.Name),
		slog.String("request_id", s.RequestID),
	)
	return nil
}

// UpdateStatus refreshes Status and Logs. A nil status is fetched from the
// server. Once the server publishes a data URI the search stays completed.
func (s *Search[R]) UpdateStatus(ctx context.Context, status *Status) error {
	if !s.Executed {
		return ErrNotExecuted
	}

	if status == nil {
		var err error
		status, err = GetStatus(ctx, s.client, s.RequestURL)
		if err != nil {
			return err
		}
	}

	if status.HasData() {
		s.Completed = true
		s.DataURL = DataURL(s.RequestURL)
	}

	s.Status = status
	s.Logs = status.Logs
	if s.Logs == nil {
		s.Logs = []LogEntry{}
	}
	s.recorder.StatusPolled(s.kind.Name)
	s.advance(status)

	s.logger.DebugContext(ctx, "updated search status",
		slog.String("request_id", s.RequestID),
		slog.String("state", s.state.String()),
	)
	return nil
}

func (s *Search[R]) advance(status *Status) {
	if s.state.Terminal() {
		return
	}

	switch {
	case status.Failed() && s.cancelRequested:
		s.finish(StateCancelled)
	case status.Failed():
		s.finish(StateErrored)
	case s.Completed:
		s.finish(StateCompleted)
	default:
		s.state = StatePolling
	}
}

func (s *Search[R]) finish(state State) {
	s.state = state
	s.recorder.SearchFinished(s.kind.Name, state, time.Since(s.submittedAt))
}

// CheckForData polls once and reports whether results are available.
func (s *Search[R]) CheckForData(ctx context.Context) (bool, error) {
	if err := s.UpdateStatus(ctx, nil); err != nil {
		return false, err
	}
	return s.Completed, nil
}

// Wait polls until the search completes. It fails with aurorax.ErrSearch
// when the server reports an error condition and with aurorax.ErrTimeout
// when opts.Timeout elapses first.
func (s *Search[R]) Wait(ctx context.Context, opts WaitOptions) error {
	if !s.Executed {
		return ErrNotExecuted
	}
	opts = opts.withDefaults()

	return s.poll(ctx, opts, func() (bool, error) {
		switch {
		case s.state == StateCancelled:
			return true, fmt.Errorf("%w: search request %s was cancelled", aurorax.ErrSearch, s.RequestID)
		case s.Status.Failed():
			return true, fmt.Errorf("%w: %s", aurorax.ErrSearch, s.failureSummary())
		case s.Completed:
			return true, nil
		}
		return false, nil
	})
}

// poll calls UpdateStatus, then done, until done reports true, sleeping
// opts.PollInterval between rounds.
func (s *Search[R]) poll(ctx context.Context, opts WaitOptions, done func() (bool, error)) error {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, opts.Timeout,
			fmt.Errorf("%w: search request %s not finished after %s", aurorax.ErrTimeout, s.RequestID, opts.Timeout))
		defer cancel()
	}

	for {
		if err := s.UpdateStatus(ctx, nil); err != nil {
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			return err
		}
		if ok, err := done(); ok {
			return err
		}

		s.logger.DebugContext(ctx, "waiting for search",
			slog.String("request_id", s.RequestID),
			slog.Duration("poll_interval", opts.PollInterval),
		)

		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-time.After(opts.PollInterval):
		}
	}
}

func (s *Search[R]) failureSummary() string {
	if msg := s.Status.LastLog(); msg != "" {
		return msg
	}
	return fmt.Sprintf("search request %s reported an error condition", s.RequestID)
}

// GetData fetches the results of a completed search into Data, or RawData
// when a response format is set. On an incomplete search it only logs a
// warning.
func (s *Search[R]) GetData(ctx context.Context) error {
	if !s.Completed {
		s.logger.WarnContext(ctx, "no data available, update status or check for data first",
			slog.String("request_id", s.RequestID),
		)
		return nil
	}

	rows, err := GetData(ctx, s.client, s.DataURL, s.ResponseFormat)
	if err != nil {
		return err
	}

	if s.ResponseFormat != nil {
		raw, err := RawRows(rows)
		if err != nil {
			return err
		}
		s.RawData = raw
	} else {
		data, err := mapRows(rows, s.kind.decode)
		if err != nil {
			return err
		}
		s.Data = data
	}

	s.recorder.RecordsFetched(s.kind.Name, len(rows))
	s.logger.DebugContext(ctx, "fetched search results",
		slog.String("request_id", s.RequestID),
		slog.Int("count", len(rows)),
	)
	return nil
}

// Cancel asks the server to stop the search. With opts.Wait set it polls
// until the server reports the request finished or failed, bounded like
// Wait.
func (s *Search[R]) Cancel(ctx context.Context, opts CancelOptions) error {
	if !s.Executed {
		return ErrNotExecuted
	}

	if err := CancelRequest(ctx, s.client, s.RequestURL); err != nil {
		return err
	}
	s.cancelRequested = true

	s.logger.InfoContext(ctx, "requested search cancellation",
		slog.String("request_id", s.RequestID),
		slog.Bool("wait", opts.Wait),
	)

	if !opts.Wait {
		return nil
	}

	wait := WaitOptions{PollInterval: opts.PollInterval, Timeout: opts.Timeout}.withDefaults()
	return s.poll(ctx, wait, func() (bool, error) {
		return s.Status.HasData() || s.Status.Failed(), nil
	})
}

// Describe asks the server to render the query as text.
func (s *Search[R]) Describe(ctx context.Context) (string, error) {
	body, err := s.Query.Body()
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(ctx, http.MethodPost, s.client.URL(s.kind.DescribePath()), nil, body)
	if err != nil {
		return "", fmt.Errorf("failed to describe %s query: %w", s.kind.Name, err)
	}

	var text string
	if err := json.Unmarshal(resp.Body, &text); err != nil {
		return strings.TrimSpace(string(resp.Body)), nil
	}
	return text, nil
}

// Run executes s, waits for it and fetches its data.
func Run[R any](ctx context.Context, s *Search[R], opts WaitOptions) error {
	if err := s.Execute(ctx); err != nil {
		return err
	}
	if err := s.Wait(ctx, opts); err != nil {
		if errors.Is(err, aurorax.ErrTimeout) {
			s.logger.WarnContext(ctx, "search did not finish in time",
				slog.String("request_id", s.RequestID),
			)
		}
		return err
	}
	return s.GetData(ctx)
}
