// Package metrics exports search lifecycle metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/robert-malhotra/aurorax-client/internal/search"
)

const (
	namespace = "aurorax"
	subsystem = "search"
)

// Collector holds the search lifecycle metrics. It implements
// search.Recorder.
type Collector struct {
	submitted    *prometheus.CounterVec
	polls        *prometheus.CounterVec
	finished     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	records      *prometheus.CounterVec
	recordsBatch *prometheus.HistogramVec
}

var _ search.Recorder = (*Collector)(nil)

// NewCollector registers the metrics with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		submitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "submitted_total",
			Help:      "Total number of search requests accepted by the API",
		}, []string{"kind"}),
		polls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_polls_total",
			Help:      "Total number of search status polls",
		}, []string{"kind"}),
		finished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "finished_total",
			Help:      "Total number of searches that reached a terminal state",
		}, []string{"kind", "state"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Time from submission to a terminal state",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900},
		}, []string{"kind", "state"}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records_fetched_total",
			Help:      "Total number of result rows fetched",
		}, []string{"kind"}),
		recordsBatch: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records_per_fetch",
			Help:      "Number of result rows per data fetch",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"kind"}),
	}
}

// SearchSubmitted records an accepted search.
func (c *Collector) SearchSubmitted(kind string) {
	c.submitted.WithLabelValues(kind).Inc()
}

// StatusPolled records a status poll.
func (c *Collector) StatusPolled(kind string) {
	c.polls.WithLabelValues(kind).Inc()
}

// SearchFinished records a terminal state and the time it took to reach it.
func (c *Collector) SearchFinished(kind string, state search.State, elapsed time.Duration) {
	c.finished.WithLabelValues(kind, state.String()).Inc()
	c.duration.WithLabelValues(kind, state.String()).Observe(elapsed.Seconds())
}

// RecordsFetched records a data fetch.
func (c *Collector) RecordsFetched(kind string, count int) {
	c.records.WithLabelValues(kind).Add(float64(count))
	c.recordsBatch.WithLabelValues(kind).Observe(float64(count))
}
