package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful analyses.
	OutcomeSuccess = "success"
	// OutcomeError labels failed analyses (pipeline or dependency issues).
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage_engine",
			Name:      "analyses_total",
			Help:      "Total number of incident analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "triage_engine",
			Name:      "analysis_seconds",
			Help:      "Incident analysis latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 30},
		},
	)

	reasoningDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "triage_engine",
			Name:      "reasoning_seconds",
			Help:      "External reasoning call latency in seconds.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32},
		},
	)

	anomalyVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage_engine",
			Name:      "anomaly_verdicts_total",
			Help:      "Anomaly verdicts produced, partitioned by label.",
		},
		[]string{"verdict"},
	)

	persistenceFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage_engine",
			Name:      "persistence_failures_total",
			Help:      "Best-effort incident record writes that failed.",
		},
	)
)

// Register attaches triage-engine collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		reasoningDurationSeconds,
		anomalyVerdictsTotal,
		persistenceFailuresTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// ObserveReasoning records the external reasoning call latency.
func ObserveReasoning(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	reasoningDurationSeconds.Observe(duration.Seconds())
}

// CountVerdict tallies one anomaly verdict.
func CountVerdict(isAnomaly bool) {
	label := "normal"
	if isAnomaly {
		label = "anomaly"
	}
	anomalyVerdictsTotal.WithLabelValues(label).Inc()
}

// CountPersistenceFailure tallies a failed background record write.
func CountPersistenceFailure() {
	persistenceFailuresTotal.Inc()
}
