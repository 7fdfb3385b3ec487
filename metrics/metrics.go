// Package metrics exposes Prometheus instrumentation for fetches, strategy
// runs and relevance decisions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace prefixes every newsgather metric.
	Namespace = "newsgather"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so components can treat instrumentation as optional.
type Metrics struct {
	FetchAttemptsTotal   *prometheus.CounterVec
	FetchDurationSeconds *prometheus.HistogramVec
	StrategyRunsTotal    *prometheus.CounterVec
	ArticleDecisions     *prometheus.CounterVec
	SourceRunsTotal      *prometheus.CounterVec
	SourcesDisabledTotal *prometheus.CounterVec
}

// New creates and registers all collectors on reg. A nil registerer uses the
// default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FetchAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "fetcher",
				Name:      "attempts_total",
				Help:      "HTTP attempts by site category and outcome",
			},
			[]string{"category", "outcome"},
		),
		FetchDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "fetcher",
				Name:      "attempt_duration_seconds",
				Help:      "Duration of individual HTTP attempts",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"category"},
		),
		StrategyRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "pipeline",
				Name:      "strategy_runs_total",
				Help:      "Acquisition strategy runs by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		ArticleDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "pipeline",
				Name:      "article_decisions_total",
				Help:      "Candidate articles by retain or discard reason",
			},
			[]string{"decision"},
		),
		SourceRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "runner",
				Name:      "source_runs_total",
				Help:      "Completed source runs by outcome",
			},
			[]string{"outcome"},
		),
		SourcesDisabledTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "runner",
				Name:      "sources_disabled_total",
				Help:      "Sources disabled automatically, by cause",
			},
			[]string{"cause"},
		),
	}
}

// ObserveFetch records one HTTP attempt.
func (m *Metrics) ObserveFetch(category, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchAttemptsTotal.WithLabelValues(category, outcome).Inc()
	m.FetchDurationSeconds.WithLabelValues(category).Observe(d.Seconds())
}

// ObserveStrategy records whether a strategy produced qualifying articles.
func (m *Metrics) ObserveStrategy(method string, ok bool) {
	if m == nil {
		return
	}
	m.StrategyRunsTotal.WithLabelValues(method, outcome(ok)).Inc()
}

// ObserveDecision records a retain or discard decision. Discard reasons are
// expected to be low-cardinality category names.
func (m *Metrics) ObserveDecision(decision string) {
	if m == nil {
		return
	}
	m.ArticleDecisions.WithLabelValues(decision).Inc()
}

// ObserveSourceRun records the outcome of a whole source run.
func (m *Metrics) ObserveSourceRun(ok bool) {
	if m == nil {
		return
	}
	m.SourceRunsTotal.WithLabelValues(outcome(ok)).Inc()
}

// ObserveDisable records a source being disabled automatically.
func (m *Metrics) ObserveDisable(cause string) {
	if m == nil {
		return
	}
	m.SourcesDisabledTotal.WithLabelValues(cause).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
