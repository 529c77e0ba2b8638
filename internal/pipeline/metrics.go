package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes pipeline counters and distributions. A nil *Metrics records nothing.
type Metrics struct {
	runs      *prometheus.CounterVec
	selected  prometheus.Counter
	generated prometheus.Counter
	entropy   prometheus.Histogram
	stages    *prometheus.HistogramVec
}

// NewMetrics creates the pipeline collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advsynth",
			Name:      "runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"status"}),
		selected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "advsynth",
			Name:      "hard_examples_total",
			Help:      "Examples selected for augmentation.",
		}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "advsynth",
			Name:      "artifacts_total",
			Help:      "Synthetic artifacts persisted.",
		}),
		entropy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "advsynth",
			Name:      "example_entropy",
			Help:      "Predictive entropy of audited examples.",
			Buckets:   prometheus.LinearBuckets(0, 0.25, 12),
		}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "advsynth",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.selected, m.generated, m.entropy, m.stages} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRun(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) observeScores(scores []float64) {
	if m == nil {
		return
	}
	for _, s := range scores {
		m.entropy.Observe(s)
	}
}

func (m *Metrics) observeSelected(n int) {
	if m == nil {
		return
	}
	m.selected.Add(float64(n))
}

func (m *Metrics) observeGenerated(n int) {
	if m == nil {
		return
	}
	m.generated.Add(float64(n))
}

func (m *Metrics) observeStage(stage Stage, start time.Time) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}
