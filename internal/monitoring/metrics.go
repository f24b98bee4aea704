// Package monitoring records batch run metrics with Prometheus and exports
// them as a node-exporter textfile.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

const namespace = "wildfire"

// Unit outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeFatal     = "fatal"
)

// Perimeter stages.
const (
	StageLoaded  = "loaded"
	StageInvalid = "invalid"
	StageWritten = "written"
)

// Metrics holds the Prometheus collectors for one batch run. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Units          *prometheus.CounterVec // labels: outcome={succeeded,failed,fatal}
	Perimeters     *prometheus.CounterVec // labels: stage={loaded,invalid,written}
	WriteErrors    prometheus.Counter
	UnitDuration   prometheus.Histogram
	Truncated      prometheus.Gauge
	LastRunSeconds prometheus.Gauge
}

// NewMetrics creates metrics registered on a private registry, so repeated
// construction in one process never panics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Region/year units processed, by outcome.",
		}, []string{"outcome"}),
		Perimeters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "perimeters_total",
			Help:      "Perimeters seen per pipeline stage.",
		}, []string{"stage"}),
		WriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_write_errors_total",
			Help:      "Artifact files that failed to write.",
		}),
		UnitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_duration_seconds",
			Help:      "Wall time to fetch, process and write one unit.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),
		Truncated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_truncated",
			Help:      "Units whose upstream response reported exceededTransferLimit in this run.",
		}),
		LastRunSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the run finished.",
		}),
	}

	m.registry.MustRegister(
		m.Units,
		m.Perimeters,
		m.WriteErrors,
		m.UnitDuration,
		m.Truncated,
		m.LastRunSeconds,
	)
	return m
}

// UnitFinished records one unit's outcome and duration.
func (m *Metrics) UnitFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Units.WithLabelValues(outcome).Inc()
	m.UnitDuration.Observe(d.Seconds())
}

// AddPerimeters adds n perimeters to a stage counter.
func (m *Metrics) AddPerimeters(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Perimeters.WithLabelValues(stage).Add(float64(n))
}

// WriteFailed counts one failed artifact file.
func (m *Metrics) WriteFailed() {
	if m == nil {
		return
	}
	m.WriteErrors.Inc()
}

// UpstreamTruncated counts a unit whose upstream payload was truncated.
func (m *Metrics) UpstreamTruncated() {
	if m == nil {
		return
	}
	m.Truncated.Inc()
}

// RunFinished stamps the end of the batch run.
func (m *Metrics) RunFinished(at time.Time) {
	if m == nil {
		return
	}
	m.LastRunSeconds.Set(float64(at.Unix()))
}

// WriteTextfile writes all metrics in the Prometheus text format for the
// node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return eris.Wrapf(err, "monitoring: write textfile %s", path)
	}
	return nil
}

// Snapshot is a point-in-time summary of a run.
type Snapshot struct {
	UnitsSucceeded int     `json:"units_succeeded"`
	UnitsFailed    int     `json:"units_failed"`
	UnitsFatal     int     `json:"units_fatal"`
	FailRate       float64 `json:"fail_rate"`
	Loaded         int     `json:"perimeters_loaded"`
	Invalid        int     `json:"perimeters_invalid"`
	Written        int     `json:"perimeters_written"`
	WriteErrors    int     `json:"write_errors"`
	Truncated      int     `json:"truncated_units"`
}

// Snapshot reads the current counter values from the registry.
func (m *Metrics) Snapshot() (Snapshot, error) {
	if m == nil {
		return Snapshot{}, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return Snapshot{}, eris.Wrap(err, "monitoring: gather metrics")
	}

	var s Snapshot
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var label string
			for _, lp := range metric.GetLabel() {
				label = lp.GetValue()
			}
			switch mf.GetName() {
			case namespace + "_units_total":
				n := int(metric.GetCounter().GetValue())
				switch label {
				case OutcomeSucceeded:
					s.UnitsSucceeded = n
				case OutcomeFailed:
					s.UnitsFailed = n
				case OutcomeFatal:
					s.UnitsFatal = n
				}
			case namespace + "_perimeters_total":
				n := int(metric.GetCounter().GetValue())
				switch label {
				case StageLoaded:
					s.Loaded = n
				case StageInvalid:
					s.Invalid = n
				case StageWritten:
					s.Written = n
				}
			case namespace + "_artifact_write_errors_total":
				s.WriteErrors = int(metric.GetCounter().GetValue())
			case namespace + "_upstream_truncated":
				s.Truncated = int(metric.GetGauge().GetValue())
			}
		}
	}

	if total := s.UnitsSucceeded + s.UnitsFailed + s.UnitsFatal; total > 0 {
		s.FailRate = float64(s.UnitsFailed+s.UnitsFatal) / float64(total)
	}
	return s, nil
}
