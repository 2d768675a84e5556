package natmap

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds counters of one pipeline run in a private registry
type Metrics struct {
	registry      *prometheus.Registry
	droppedTotal  *prometheus.CounterVec
	writtenTotal  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	failedStates  prometheus.Counter
	resolvedTotal *prometheus.CounterVec
}

// NewMetrics creates and registers pipeline collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		droppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "natmap_records_dropped_total",
				Help: "Total number of records dropped per dataset and reason",
			},
			[]string{"dataset", "reason"},
		),
		writtenTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "natmap_features_written_total",
				Help: "Total number of rows written per dataset",
			},
			[]string{"dataset"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "natmap_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"stage"},
		),
		failedStates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "natmap_failed_states_total",
				Help: "Total number of states aborted by extraction or per-state stages",
			},
		),
		resolvedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "natmap_references_total",
				Help: "Total number of edge references per dataset and outcome",
			},
			[]string{"dataset", "outcome"},
		),
	}
	m.registry.MustRegister(
		m.droppedTotal,
		m.writtenTotal,
		m.stageDuration,
		m.failedStates,
		m.resolvedTotal,
	)
	return m
}

func (m *Metrics) Dropped(dataset, reason string, n int) {
	if n <= 0 {
		return
	}
	m.droppedTotal.WithLabelValues(dataset, reason).Add(float64(n))
}

func (m *Metrics) Written(dataset string, n int64) {
	m.writtenTotal.WithLabelValues(dataset).Add(float64(n))
}

func (m *Metrics) StageDone(stage string, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *Metrics) StateFailed() {
	m.failedStates.Inc()
}

func (m *Metrics) References(dataset string, stats ResolveStats) {
	m.resolvedTotal.WithLabelValues(dataset, "resolved").Add(float64(stats.Resolved))
	m.resolvedTotal.WithLabelValues(dataset, "unresolved").Add(float64(stats.Unresolved))
}

// WriteTextfile dumps registry in text exposition format for node exporter textfile collector
func (m *Metrics) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.registry); err != nil {
		return errors.Wrapf(err, "Can't write metrics to '%s'", filename)
	}
	return nil
}
