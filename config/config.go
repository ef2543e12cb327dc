// Package config holds the optimizer's latched OptimizationConfig and the
// loader that builds it from a YAML file with environment-variable
// overrides, in the same style the teacher uses for its own config (load a
// file or a remote URL, then let env vars win).
package config

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yggmesh/routeopt/utils/env"
)

// OptimizationConfig is the latched, enumerated configuration for the
// optimizer. Every field is reachable by name through ApplyProposal, which
// is the sole supported runtime-mutation path (the governance sink).
type OptimizationConfig struct {
	// Quality-band thresholds. These mirror the bands Classify() uses but
	// do not drive it directly — Classify is a pure function of latency
	// and loss with its own fixed thresholds, per spec. These fields exist
	// so the bands are visible and governable as configuration, matching
	// the original optimizer's OptimizationConfig.
	ExcellentLatencyMs  float64 `yaml:"excellent_latency_ms"`
	GoodLatencyMs       float64 `yaml:"good_latency_ms"`
	AcceptableLatencyMs float64 `yaml:"acceptable_latency_ms"`
	PoorLatencyMs       float64 `yaml:"poor_latency_ms"`

	ExcellentLossPct  float64 `yaml:"excellent_loss_pct"`
	GoodLossPct       float64 `yaml:"good_loss_pct"`
	AcceptableLossPct float64 `yaml:"acceptable_loss_pct"`
	PoorLossPct       float64 `yaml:"poor_loss_pct"`

	// Scoring weights. Not applied by the bandit reward function, which
	// uses its own fixed 0.5/0.3/0.2 split over quality/reliability/
	// efficiency (see optimizer.computeReward) — carried here for
	// governance parity with the original scoring model, which has the
	// same split between these configured weights and the reward
	// function.
	LatencyWeight   float64 `yaml:"latency_weight"`
	LossWeight      float64 `yaml:"loss_weight"`
	BandwidthWeight float64 `yaml:"bandwidth_weight"`
	HopCountWeight  float64 `yaml:"hop_count_weight"`

	// LearningRate is the predictor's EWMA alpha.
	LearningRate float64 `yaml:"learning_rate"`

	// DecayFactor is the bandit's posterior decay.
	DecayFactor float64 `yaml:"decay_factor"`

	// MinSamples is the selector eligibility floor.
	MinSamples int `yaml:"min_samples"`

	// MaxAlternativeRoutes bounds get_alternative_routes' default output size.
	MaxAlternativeRoutes int `yaml:"max_alternative_routes"`

	// RouteTimeoutSeconds is the staleness cutoff for refresh recommendations.
	RouteTimeoutSeconds float64 `yaml:"route_timeout_seconds"`

	// ProbeIntervalSeconds is the monitoring loop's cycle period.
	ProbeIntervalSeconds float64 `yaml:"probe_interval_seconds"`
}

// Default returns the baseline configuration, mirroring the original
// optimizer's defaults.
func Default() *OptimizationConfig {
	return &OptimizationConfig{
		ExcellentLatencyMs:  20,
		GoodLatencyMs:       50,
		AcceptableLatencyMs: 100,
		PoorLatencyMs:       200,

		ExcellentLossPct:  0.1,
		GoodLossPct:       1.0,
		AcceptableLossPct: 3.0,
		PoorLossPct:       10.0,

		LatencyWeight:   0.4,
		LossWeight:      0.3,
		BandwidthWeight: 0.2,
		HopCountWeight:  0.1,

		LearningRate: 0.1,
		DecayFactor:  0.95,
		MinSamples:   5,

		MaxAlternativeRoutes: 3,
		RouteTimeoutSeconds:  300.0,
		ProbeIntervalSeconds: 30.0,
	}
}

// Load reads an OptimizationConfig from a local path or (if path starts with
// http(s)://) a remote URL, then applies environment-variable overrides,
// which take precedence over the file. CONFIG_SOURCE and CONFIG_TOKEN can
// redirect and authenticate the fetch, same as the teacher's config loader.
func Load(path string, logger *zap.SugaredLogger) (*OptimizationConfig, error) {
	cfg := Default()

	configSource := env.OptionalStringVariable("CONFIG_SOURCE", path)
	configToken := env.OptionalStringVariable("CONFIG_TOKEN", "")

	data, err := fetchConfigData(configSource, configToken, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get config data: %v", err)
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %v", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func fetchConfigData(source string, token string, logger *zap.SugaredLogger) ([]byte, error) {
	if source == "" {
		return nil, nil
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		logger.Infow("Fetching remote config", "url", source)
		return fetchRemoteConfig(source, token)
	}
	logger.Infow("Loading local config", "path", source)
	data, err := os.ReadFile(source)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func fetchRemoteConfig(url string, token string) ([]byte, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch config: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func applyEnvOverrides(cfg *OptimizationConfig) {
	cfg.LearningRate = optionalFloatVariable("LEARNING_RATE", cfg.LearningRate)
	cfg.DecayFactor = optionalFloatVariable("DECAY_FACTOR", cfg.DecayFactor)
	cfg.MinSamples = env.OptionalIntVariable("MIN_SAMPLES", cfg.MinSamples)
	cfg.MaxAlternativeRoutes = env.OptionalIntVariable("MAX_ALTERNATIVE_ROUTES", cfg.MaxAlternativeRoutes)
	cfg.RouteTimeoutSeconds = optionalFloatVariable("ROUTE_TIMEOUT_SECONDS", cfg.RouteTimeoutSeconds)
	cfg.ProbeIntervalSeconds = optionalFloatVariable("PROBE_INTERVAL_SECONDS", cfg.ProbeIntervalSeconds)
}

// optionalFloatVariable mirrors utils/env's Optional*Variable helpers for a
// type the teacher's env package doesn't expose.
func optionalFloatVariable(name string, defaultValue float64) float64 {
	if !env.HasEnv(name) {
		return defaultValue
	}
	value, err := strconv.ParseFloat(os.Getenv(name), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// ApplyProposal looks up key on OptimizationConfig by exact field name and,
// if it exists and value is assignable to its type, writes it. Unknown keys
// or mistyped values are rejected (silently, per the governance sink's
// error-handling policy) by returning false; the caller is expected to log
// at debug level on a false return.
func (c *OptimizationConfig) ApplyProposal(key string, value any) bool {
	switch key {
	case "excellent_latency_ms":
		return setFloat(&c.ExcellentLatencyMs, value)
	case "good_latency_ms":
		return setFloat(&c.GoodLatencyMs, value)
	case "acceptable_latency_ms":
		return setFloat(&c.AcceptableLatencyMs, value)
	case "poor_latency_ms":
		return setFloat(&c.PoorLatencyMs, value)
	case "excellent_loss_pct":
		return setFloat(&c.ExcellentLossPct, value)
	case "good_loss_pct":
		return setFloat(&c.GoodLossPct, value)
	case "acceptable_loss_pct":
		return setFloat(&c.AcceptableLossPct, value)
	case "poor_loss_pct":
		return setFloat(&c.PoorLossPct, value)
	case "latency_weight":
		return setFloat(&c.LatencyWeight, value)
	case "loss_weight":
		return setFloat(&c.LossWeight, value)
	case "bandwidth_weight":
		return setFloat(&c.BandwidthWeight, value)
	case "hop_count_weight":
		return setFloat(&c.HopCountWeight, value)
	case "learning_rate":
		return setFloat(&c.LearningRate, value)
	case "decay_factor":
		return setFloat(&c.DecayFactor, value)
	case "min_samples":
		return setInt(&c.MinSamples, value)
	case "max_alternative_routes":
		return setInt(&c.MaxAlternativeRoutes, value)
	case "route_timeout_seconds":
		return setFloat(&c.RouteTimeoutSeconds, value)
	case "probe_interval_seconds":
		return setFloat(&c.ProbeIntervalSeconds, value)
	default:
		return false
	}
}

func setFloat(field *float64, value any) bool {
	switch v := value.(type) {
	case float64:
		*field = v
		return true
	case float32:
		*field = float64(v)
		return true
	case int:
		*field = float64(v)
		return true
	default:
		return false
	}
}

func setInt(field *int, value any) bool {
	switch v := value.(type) {
	case int:
		*field = v
		return true
	case float64:
		// YAML/JSON decoders commonly hand back float64 for numeric
		// literals; accept it only when it is an exact integer.
		if v == float64(int(v)) {
			*field = int(v)
			return true
		}
		return false
	default:
		return false
	}
}
