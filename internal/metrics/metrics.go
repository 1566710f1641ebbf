// Package metrics exposes Prometheus collectors for the drop folder monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the ingestion collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	triggers   *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	outcomes   *prometheus.CounterVec
	inFlight   prometheus.Gauge
	stale      prometheus.Counter
	duration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// Parameters:
//   - reg: registerer to attach collectors to; nil skips registration.
// Returns:
//   - *Metrics: collector set.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordermonitor",
			Name:      "triggers_total",
			Help:      "Candidate files noticed, by trigger source.",
		}, []string{"trigger"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordermonitor",
			Name:      "duplicate_triggers_total",
			Help:      "Triggers dropped because the file was already in flight or the queue was full.",
		}, []string{"trigger", "reason"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordermonitor",
			Name:      "files_processed_total",
			Help:      "Processing attempts by payload kind and outcome.",
		}, []string{"kind", "outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ordermonitor",
			Name:      "gate_in_flight",
			Help:      "Files currently held by the ingestion gate.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordermonitor",
			Name:      "gate_stale_evictions_total",
			Help:      "Gate entries evicted after exceeding the stale timeout.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ordermonitor",
			Name:      "processing_duration_seconds",
			Help:      "Time from task start to outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(m.triggers, m.duplicates, m.outcomes, m.inFlight, m.stale, m.duration)
	}
	return m
}

func (m *Metrics) Trigger(trigger string) {
	if m == nil {
		return
	}
	m.triggers.WithLabelValues(trigger).Inc()
}

func (m *Metrics) DroppedTrigger(trigger, reason string) {
	if m == nil {
		return
	}
	m.duplicates.WithLabelValues(trigger, reason).Inc()
}

func (m *Metrics) Outcome(kind, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) SetInFlight(n int) {
	if m == nil {
		return
	}
	m.inFlight.Set(float64(n))
}

func (m *Metrics) StaleEviction() {
	if m == nil {
		return
	}
	m.stale.Inc()
}
