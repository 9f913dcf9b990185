package generate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session modes.
const (
	modeBlocking = "blocking"
	modeStream   = "stream"
)

// Session outcomes.
const (
	outcomeCompleted = "completed"
	outcomeTransport = "transport"
	outcomeService   = "service"
	outcomeDecode    = "decode"
	outcomeTruncated = "truncated"
	outcomeAbandoned = "abandoned"
	outcomeRejected  = "rejected"
)

// Metrics records session activity in Prometheus collectors.
//
// A nil *Metrics records nothing, so clients without WithMetrics pay no cost.
type Metrics struct {
	sessions  *prometheus.CounterVec
	fragments *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg. Pass prometheus.DefaultRegisterer
// to expose them on the default registry. Registering twice on the same
// registry panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genstream_sessions_total",
				Help: "Total number of generate sessions, partitioned by mode and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		fragments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genstream_fragments_total",
				Help: "Total number of response records received.",
			},
			[]string{"model"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "genstream_session_duration_seconds",
				Help:    "Histogram of generate session durations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
	}
}

func (m *Metrics) observeSession(mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(mode, outcome).Inc()
	m.duration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) observeFragment(model string) {
	if m == nil {
		return
	}
	m.fragments.WithLabelValues(model).Inc()
}
