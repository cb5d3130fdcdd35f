package leptons

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "leptons"

// Metrics counts what a run did. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	eventsProcessed prometheus.Counter
	eventErrors     prometheus.Counter
	selected        *prometheus.CounterVec
	duplicates      prometheus.Counter
	eventDuration   prometheus.Histogram
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		eventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_processed_total",
			Help:      "Events written to the outputs.",
		}),
		eventErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "event_errors_total",
			Help:      "Events whose processing failed.",
		}),
		selected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "candidates_selected_total",
			Help:      "Candidates passing the selection, per derived collection.",
		}, []string{"collection"}),
		duplicates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "duplicates_suppressed_total",
			Help:      "Electrons dropped because they matched a preferred electron.",
		}),
		eventDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "event_duration_seconds",
			Help:      "Time spent deriving the output of one event.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
}

func (m *Metrics) eventProcessed() {
	if m != nil {
		m.eventsProcessed.Inc()
	}
}

func (m *Metrics) eventFailed() {
	if m != nil {
		m.eventErrors.Inc()
	}
}

func (m *Metrics) candidatesSelected(collection string, n int) {
	if m != nil {
		m.selected.WithLabelValues(collection).Add(float64(n))
	}
}

func (m *Metrics) duplicatesSuppressed(n int) {
	if m != nil && n > 0 {
		m.duplicates.Add(float64(n))
	}
}

func (m *Metrics) observeEvent(seconds float64) {
	if m != nil {
		m.eventDuration.Observe(seconds)
	}
}
