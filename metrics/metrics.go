package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage names used as the "stage" label
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
	StageAnalyze   = "analyze"
	StageReport    = "report"
)

// Metrics collects per-run pipeline counters on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	RowsExtracted    prometheus.Counter
	RowsLoaded       prometheus.Counter
	CoercionFailures *prometheus.CounterVec
	StageDuration    *prometheus.GaugeVec
	LastSuccess      prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RowsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "etl_rows_extracted_total",
			Help: "Rows read from the input file.",
		}),
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "etl_rows_loaded_total",
			Help: "Rows written to the borrowers table.",
		}),
		CoercionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_coercion_failures_total",
			Help: "Values that failed type conversion and were stored as NULL.",
		}, []string{"field"}),
		StageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "etl_stage_duration_seconds",
			Help: "Wall-clock duration of each pipeline stage in the last run.",
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "etl_last_success_timestamp_seconds",
			Help: "Unix time of the last run that produced a report.",
		}),
	}
	m.Registry.MustRegister(m.RowsExtracted, m.RowsLoaded, m.CoercionFailures, m.StageDuration, m.LastSuccess)
	return m
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Set(d.Seconds())
}

func (m *Metrics) RecordCoercionFailures(failures map[string]int) {
	for field, n := range failures {
		m.CoercionFailures.WithLabelValues(field).Add(float64(n))
	}
}

func (m *Metrics) MarkSuccess(at time.Time) {
	m.LastSuccess.Set(float64(at.Unix()))
}

// WriteTextfile dumps the registry in the text exposition format, for the
// node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
