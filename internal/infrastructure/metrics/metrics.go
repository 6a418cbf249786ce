// Package metrics holds the Prometheus collectors for matching, pulls and pushes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Match buckets, used as the "bucket" label
const (
	BucketStage1    = "stage1"
	BucketStage2    = "stage2"
	BucketDuplicate = "duplicate"
	BucketCombo     = "combo"
	BucketUnmatched = "unmatched_transaction"
	BucketOrphan    = "unmatched_order"
)

// Metrics holds all Prometheus metrics for the reconciler.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	matchResults  *prometheus.CounterVec
	matchDuration prometheus.Histogram
	pulled        *prometheus.CounterVec
	pullErrors    *prometheus.CounterVec
	pushed        *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// New creates a dedicated registry and registers all application metrics in it.
// A private registry lets tests create as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		matchResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_match_results_total",
				Help: "Transactions and orders classified by match bucket.",
			},
			[]string{"bucket"},
		),
		matchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reconcile_match_duration_seconds",
				Help:    "Duration of a full match run.",
				Buckets: prometheus.DefBuckets,
			},
		),
		pulled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_pulled_records_total",
				Help: "Records pulled from a source, by outcome.",
			},
			[]string{"source", "outcome"},
		),
		pullErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_pull_errors_total",
				Help: "Failed pulls by source.",
			},
			[]string{"source"},
		),
		pushed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_pushed_changes_total",
				Help: "Pending changes pushed to YNAB, by status.",
			},
			[]string{"status"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_http_requests_total",
				Help: "API requests by route pattern and status class.",
			},
			[]string{"route", "code"},
		),
	}
}

// RecordMatch adds one match run's bucket sizes and duration.
func (m *Metrics) RecordMatch(counts map[string]int, d time.Duration) {
	for bucket, n := range counts {
		m.matchResults.WithLabelValues(bucket).Add(float64(n))
	}
	m.matchDuration.Observe(d.Seconds())
}

// RecordPull counts records pulled from source; outcome is "inserted", "updated" or "unchanged"
func (m *Metrics) RecordPull(source, outcome string, n int) {
	m.pulled.WithLabelValues(source, outcome).Add(float64(n))
}

// IncrPullError increments the failed pull counter.
func (m *Metrics) IncrPullError(source string) {
	m.pullErrors.WithLabelValues(source).Inc()
}

// IncrPush increments the push counter with a status label.
func (m *Metrics) IncrPush(status string) {
	m.pushed.WithLabelValues(status).Inc()
}

// IncrRequest counts one API request
func (m *Metrics) IncrRequest(route, code string) {
	m.httpRequests.WithLabelValues(route, code).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
