package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for identify calls.
const (
	OutcomeCreatedPrimary  = "created_primary"
	OutcomeLinkedSecondary = "linked_secondary"
	OutcomeMerged          = "merged"
	OutcomeUnchanged       = "unchanged"
	OutcomeRejected        = "rejected"
	OutcomeFailed          = "failed"
)

// Metrics provides observability for identity reconciliation.
type Metrics struct {
	// Identify outcomes by kind
	IdentifyOutcome *prometheus.CounterVec

	// Contacts moved to secondary because their cluster merged into an older one
	Demotions prometheus.Counter

	IdentifyLatency prometheus.Histogram

	InvariantViolations prometheus.Counter

	// Lock acquisitions served by the in-process locker while Redis was unhealthy
	LockFallbacks prometheus.Counter

	// Rows found by the last integrity sweep
	IntegrityViolations prometheus.Gauge
}

// New creates a Metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IdentifyOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contactlink_identify_outcomes_total",
			Help: "Total identify calls by outcome",
		}, []string{"outcome"}),

		Demotions: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactlink_identify_demotions_total",
			Help: "Contacts relinked to an older primary during merges",
		}),

		IdentifyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contactlink_identify_duration_seconds",
			Help:    "Duration of identify calls including locking and the store transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		InvariantViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactlink_invariant_violations_total",
			Help: "Identify calls aborted because stored links broke the cluster shape",
		}),

		LockFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactlink_lock_fallbacks_total",
			Help: "Lock acquisitions that fell back to the in-process locker",
		}),

		IntegrityViolations: factory.NewGauge(prometheus.GaugeOpts{
			Name: "contactlink_integrity_violations",
			Help: "Link violations found by the most recent integrity sweep",
		}),
	}
}

// IncrementOutcome records one identify outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.IdentifyOutcome.WithLabelValues(outcome).Inc()
	}
}

// AddDemotions records contacts relinked during a merge.
func (m *Metrics) AddDemotions(n int) {
	if m != nil && n > 0 {
		m.Demotions.Add(float64(n))
	}
}

// ObserveIdentifyLatency records the total identify duration.
func (m *Metrics) ObserveIdentifyLatency(d time.Duration) {
	if m != nil {
		m.IdentifyLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementInvariantViolations() {
	if m != nil {
		m.InvariantViolations.Inc()
	}
}

func (m *Metrics) IncrementLockFallbacks() {
	if m != nil {
		m.LockFallbacks.Inc()
	}
}

// SetIntegrityViolations publishes the size of the last sweep's findings.
func (m *Metrics) SetIntegrityViolations(n int) {
	if m != nil {
		m.IntegrityViolations.Set(float64(n))
	}
}
