package resolve

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage search results recorded in metrics.
const (
	searchMatched = "matched"
	searchEmpty   = "no_match"
	searchError   = "error"
)

// Metrics holds the Prometheus collectors for resolution runs. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	stageSearches *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discresolve_resolutions_total",
				Help: "Completed resolutions by search source",
			},
			[]string{"source"},
		),
		stageSearches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discresolve_stage_searches_total",
				Help: "Search calls issued per pipeline stage and their result",
			},
			[]string{"stage", "result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "discresolve_resolution_duration_seconds",
				Help:    "Wall time of a full resolution run",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.resolutions, m.stageSearches, m.duration)
	}
	return m
}

func (m *Metrics) observeStage(stage Stage, result string) {
	if m == nil {
		return
	}
	m.stageSearches.WithLabelValues(string(stage), result).Inc()
}

func (m *Metrics) observeOutcome(source Source, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(string(source)).Inc()
	m.duration.Observe(elapsed.Seconds())
}
