package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for bond operations.
type Metrics struct {
	BondsCreated   prometheus.Counter
	BondsDeleted   prometheus.Counter
	CreateFailures *prometheus.CounterVec
	CreateLatency  prometheus.Histogram
}

// New registers the bond collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BondsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bondbook_bonds_created_total",
			Help: "Total number of bonds created",
		}),
		BondsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bondbook_bonds_deleted_total",
			Help: "Total number of bonds deleted",
		}),
		CreateFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bondbook_bond_create_failures_total",
			Help: "Bond creation failures by error code",
		}, []string{"code"}),
		CreateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bondbook_bond_create_duration_seconds",
			Help:    "Duration of the bond creation pipeline including LEI resolution",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.BondsCreated.Inc()
	}
}

func (m *Metrics) IncrementDeleted() {
	if m != nil {
		m.BondsDeleted.Inc()
	}
}

func (m *Metrics) IncrementCreateFailure(code string) {
	if m != nil {
		m.CreateFailures.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) ObserveCreateLatency(d time.Duration) {
	if m != nil {
		m.CreateLatency.Observe(d.Seconds())
	}
}
