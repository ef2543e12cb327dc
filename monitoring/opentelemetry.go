package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"

	"github.com/yggmesh/routeopt/optimizer"
)

// OpenTelemetryConfig configures the OpenTelemetry recorder.
type OpenTelemetryConfig struct {
	Enabled        bool              `yaml:"enabled"`
	Endpoint       string            `yaml:"endpoint"`
	ServiceName    string            `yaml:"service_name"`
	ServiceVersion string            `yaml:"service_version"`
	Environment    string            `yaml:"environment"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	Insecure       bool              `yaml:"insecure"`
}

// OpenTelemetryRecorder implements Recorder by exporting OTLP metrics.
type OpenTelemetryRecorder struct {
	config        *OpenTelemetryConfig
	logger        *zap.SugaredLogger
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	qualityCounter       metric.Int64UpDownCounter
	recommendationsTotal metric.Int64Counter
	predictionConfidence metric.Float64Histogram

	mu          sync.Mutex
	lastQuality optimizer.QualityDistribution
}

// NewOpenTelemetryRecorder creates and wires an OpenTelemetryRecorder.
func NewOpenTelemetryRecorder(config *OpenTelemetryConfig, logger *zap.SugaredLogger) (*OpenTelemetryRecorder, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("OpenTelemetry endpoint is required")
	}

	r := &OpenTelemetryRecorder{config: config, logger: logger}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %v", err)
	}

	if err := r.initializeMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %v", err)
	}
	return r, nil
}

func (r *OpenTelemetryRecorder) initializeMetrics(res *resource.Resource) error {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(r.config.Endpoint),
		otlpmetricgrpc.WithHeaders(r.config.Headers),
	}
	if r.config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP metrics exporter: %v", err)
	}

	r.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(r.meterProvider)
	r.meter = r.meterProvider.Meter("routeopt")

	r.qualityCounter, err = r.meter.Int64UpDownCounter(
		"routeopt_routes_by_quality",
		metric.WithDescription("Number of routes currently in each quality band"),
	)
	if err != nil {
		return fmt.Errorf("failed to create quality gauge: %v", err)
	}

	r.recommendationsTotal, err = r.meter.Int64Counter(
		"routeopt_recommendations_total",
		metric.WithDescription("Total number of optimization recommendations emitted, by action"),
	)
	if err != nil {
		return fmt.Errorf("failed to create recommendations counter: %v", err)
	}

	r.predictionConfidence, err = r.meter.Float64Histogram(
		"routeopt_prediction_confidence",
		metric.WithDescription("Distribution of latency-prediction confidence across routes"),
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction confidence histogram: %v", err)
	}
	return nil
}

// RecordQualityDistribution reports dist's per-band counts as an
// up-down-counter delta against the band's last reported value, since OTel
// metrics has no direct gauge-set primitive for async-free instruments.
func (r *OpenTelemetryRecorder) RecordQualityDistribution(dist optimizer.QualityDistribution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.lastQuality
	r.lastQuality = dist

	ctx := context.Background()
	r.qualityCounter.Add(ctx, int64(dist.Excellent-prev.Excellent), metric.WithAttributes(attribute.String("quality", "excellent")))
	r.qualityCounter.Add(ctx, int64(dist.Good-prev.Good), metric.WithAttributes(attribute.String("quality", "good")))
	r.qualityCounter.Add(ctx, int64(dist.Acceptable-prev.Acceptable), metric.WithAttributes(attribute.String("quality", "acceptable")))
	r.qualityCounter.Add(ctx, int64(dist.Poor-prev.Poor), metric.WithAttributes(attribute.String("quality", "poor")))
	r.qualityCounter.Add(ctx, int64(dist.Critical-prev.Critical), metric.WithAttributes(attribute.String("quality", "critical")))
}

// RecordRecommendation increments the recommendations counter for action.
func (r *OpenTelemetryRecorder) RecordRecommendation(action optimizer.Action) {
	r.recommendationsTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("action", string(action))))
}

// RecordPredictionConfidence observes one route's prediction confidence.
func (r *OpenTelemetryRecorder) RecordPredictionConfidence(confidence float64) {
	r.predictionConfidence.Record(context.Background(), confidence)
}

// Close flushes and shuts down the meter provider.
func (r *OpenTelemetryRecorder) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.meterProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("failed to flush metrics: %v", err)
	}
	if err := r.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %v", err)
	}
	return nil
}
