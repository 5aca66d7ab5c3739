package approvals

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	callRoster   = "roster"
	callTimeLogs = "timelogs"

	boundProjects   = "projects"
	boundVolunteers = "volunteers"
)

// Metrics records how the pending summary degrades under failures and bounds.
type Metrics struct {
	FetchFailures   *prometheus.CounterVec
	Truncations     *prometheus.CounterVec
	SummaryDuration prometheus.Histogram
}

// NewMetrics registers the approvals collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "approvals",
			Name:      "fetch_failures_total",
			Help:      "Upstream calls that failed or timed out during pending summary aggregation",
		}, []string{"call"}),
		Truncations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "approvals",
			Name:      "truncations_total",
			Help:      "Pending summaries cut short by a configured bound",
		}, []string{"bound"}),
		SummaryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "approvals",
			Name:      "summary_duration_seconds",
			Help:      "Pending summary aggregation latency",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}
}

func (m *Metrics) fetchFailed(call string) {
	if m != nil {
		m.FetchFailures.WithLabelValues(call).Inc()
	}
}

func (m *Metrics) truncated(bound string) {
	if m != nil {
		m.Truncations.WithLabelValues(bound).Inc()
	}
}

func (m *Metrics) observe(seconds float64) {
	if m != nil {
		m.SummaryDuration.Observe(seconds)
	}
}
