// Package monitoring records optimizer activity to a pluggable observability
// backend. The shape — one Config gating independently constructible
// backends behind a common interface — follows the teacher's
// MonitoringManager, trimmed from its full request/cost/token metric set
// down to the three signals the optimizer actually emits.
package monitoring

import (
	"go.uber.org/zap"

	"github.com/yggmesh/routeopt/optimizer"
)

// Config selects and configures the observability backend.
type Config struct {
	Enabled       bool                 `yaml:"enabled"`
	Prometheus    *PrometheusConfig    `yaml:"prometheus,omitempty"`
	OpenTelemetry *OpenTelemetryConfig `yaml:"opentelemetry,omitempty"`
}

// Recorder receives the three signals an optimization cycle produces. A nil
// Recorder, or one built from a disabled Config, is always a no-op — the
// core never blocks on, or fails because of, observability.
type Recorder interface {
	RecordQualityDistribution(dist optimizer.QualityDistribution)
	RecordRecommendation(action optimizer.Action)
	RecordPredictionConfidence(confidence float64)
	Close() error
}

// NewRecorder builds the Recorder selected by cfg. An unset or disabled cfg
// returns a no-op recorder.
func NewRecorder(cfg *Config, logger *zap.SugaredLogger) (Recorder, error) {
	if cfg == nil || !cfg.Enabled {
		return noopRecorder{}, nil
	}
	if cfg.Prometheus != nil && cfg.Prometheus.Enabled {
		return NewPrometheusRecorder(cfg.Prometheus, logger)
	}
	if cfg.OpenTelemetry != nil && cfg.OpenTelemetry.Enabled {
		return NewOpenTelemetryRecorder(cfg.OpenTelemetry, logger)
	}
	return noopRecorder{}, nil
}

type noopRecorder struct{}

func (noopRecorder) RecordQualityDistribution(optimizer.QualityDistribution) {}
func (noopRecorder) RecordRecommendation(optimizer.Action)                   {}
func (noopRecorder) RecordPredictionConfidence(float64)                      {}
func (noopRecorder) Close() error                                            { return nil }

// RecordReport fans a Report out to the three Recorder methods. The
// optimizer façade does not call it; Optimizer.Cycle reports to its wired
// recorder through its own record method. confidences is supplied
// separately since Report itself only carries the aggregate quality
// distribution, not per-route prediction confidence.
func RecordReport(r Recorder, report optimizer.Report, confidences []float64) {
	if r == nil {
		return
	}
	r.RecordQualityDistribution(report.Statistics.QualityDistribution)
	for _, rec := range report.Recommendations {
		r.RecordRecommendation(rec.Action)
	}
	for _, c := range confidences {
		r.RecordPredictionConfidence(c)
	}
}
