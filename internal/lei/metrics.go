package lei

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks upstream LEI lookups.
type Metrics struct {
	Outcomes *prometheus.CounterVec
	Latency  prometheus.Histogram
}

// NewMetrics registers the lookup collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bondbook_lei_lookups_total",
			Help: "LEI lookups by outcome",
		}, []string{"outcome"}),

		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bondbook_lei_lookup_duration_seconds",
			Help:    "Duration of upstream LEI lookups",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) observe(outcome Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(string(outcome)).Inc()
	m.Latency.Observe(d.Seconds())
}
