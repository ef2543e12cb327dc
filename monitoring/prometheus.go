package monitoring

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yggmesh/routeopt/optimizer"
)

// PrometheusConfig configures the Prometheus recorder.
type PrometheusConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// PrometheusRecorder implements Recorder using the Prometheus client
// library's own registry, the teacher's pattern of one owned
// prometheus.Registry per monitor rather than the global default registry.
type PrometheusRecorder struct {
	config   *PrometheusConfig
	registry *prometheus.Registry
	logger   *zap.SugaredLogger

	qualityGauge         *prometheus.GaugeVec
	recommendationsTotal *prometheus.CounterVec
	predictionConfidence prometheus.Histogram
}

// NewPrometheusRecorder creates a PrometheusRecorder and registers its
// metrics.
func NewPrometheusRecorder(config *PrometheusConfig, logger *zap.SugaredLogger) (*PrometheusRecorder, error) {
	registry := prometheus.NewRegistry()

	p := &PrometheusRecorder{
		config:   config,
		registry: registry,
		logger:   logger,
	}

	if err := p.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %v", err)
	}
	return p, nil
}

func (p *PrometheusRecorder) initializeMetrics() error {
	namespace := p.config.Namespace
	subsystem := p.config.Subsystem

	p.qualityGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "routes_by_quality",
			Help:      "Number of routes currently in each quality band",
		},
		[]string{"quality"},
	)

	p.recommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "recommendations_total",
			Help:      "Total number of optimization recommendations emitted, by action",
		},
		[]string{"action"},
	)

	p.predictionConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "prediction_confidence",
			Help:      "Distribution of latency-prediction confidence across routes",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	collectors := []prometheus.Collector{p.qualityGauge, p.recommendationsTotal, p.predictionConfidence}
	for _, collector := range collectors {
		if err := p.registry.Register(collector); err != nil {
			return fmt.Errorf("failed to register metric: %v", err)
		}
	}
	return nil
}

// RecordQualityDistribution sets the quality-band gauges to dist's counts.
func (p *PrometheusRecorder) RecordQualityDistribution(dist optimizer.QualityDistribution) {
	p.qualityGauge.WithLabelValues("excellent").Set(float64(dist.Excellent))
	p.qualityGauge.WithLabelValues("good").Set(float64(dist.Good))
	p.qualityGauge.WithLabelValues("acceptable").Set(float64(dist.Acceptable))
	p.qualityGauge.WithLabelValues("poor").Set(float64(dist.Poor))
	p.qualityGauge.WithLabelValues("critical").Set(float64(dist.Critical))
}

// RecordRecommendation increments the recommendations counter for action.
func (p *PrometheusRecorder) RecordRecommendation(action optimizer.Action) {
	p.recommendationsTotal.WithLabelValues(string(action)).Inc()
}

// RecordPredictionConfidence observes one route's prediction confidence.
func (p *PrometheusRecorder) RecordPredictionConfidence(confidence float64) {
	p.predictionConfidence.Observe(confidence)
}

// Handler returns the Prometheus scrape handler for this recorder's
// registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Close is a no-op; the Prometheus client has nothing to flush or release.
func (p *PrometheusRecorder) Close() error {
	return nil
}
