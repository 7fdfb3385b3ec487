package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// TestMetrics_Observe verifies counters move with observations
func TestMetrics_Observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveFetch("government", "ok", 120*time.Millisecond)
	m.ObserveFetch("government", "ok", 80*time.Millisecond)
	m.ObserveStrategy("rss", false)
	m.ObserveStrategy("html", true)
	m.ObserveDecision("retained")
	m.ObserveSourceRun(true)
	m.ObserveDisable("permanent")

	assert.InDelta(t, 2, testutil.ToFloat64(m.FetchAttemptsTotal.WithLabelValues("government", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StrategyRunsTotal.WithLabelValues("rss", "failure")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StrategyRunsTotal.WithLabelValues("html", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ArticleDecisions.WithLabelValues("retained")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceRunsTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SourcesDisabledTotal.WithLabelValues("permanent")), 0)
}

// TestMetrics_NilSafe verifies a nil recorder is a no-op
func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("standard", "ok", time.Second)
		m.ObserveStrategy("rss", true)
		m.ObserveDecision("retained")
		m.ObserveSourceRun(false)
		m.ObserveDisable("threshold")
	})
}
