package optimizer

import (
	"time"

	"github.com/google/uuid"

	"github.com/yggmesh/routeopt/registry"
)

// Action is the kind of remediation a Recommendation suggests.
type Action string

const (
	ActionRefresh     Action = "refresh"
	ActionInvestigate Action = "investigate"
)

// Recommendation is one actionable item emitted by an optimization cycle.
type Recommendation struct {
	ID          uuid.UUID        `json:"id"`
	RouteID     string           `json:"route_id"`
	Destination string           `json:"destination"`
	Action      Action           `json:"action"`
	Reason      string           `json:"reason"`
	Metrics     registry.Metrics `json:"metrics"`
}

// QualityDistribution counts routes per quality band.
type QualityDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Acceptable int `json:"acceptable"`
	Poor      int `json:"poor"`
	Critical  int `json:"critical"`
}

// Statistics is the aggregate section of an OptimizationReport. The
// avg/min/max fields are omitted entirely (nil) when there are no routes,
// per spec §6.
type Statistics struct {
	QualityDistribution QualityDistribution `json:"quality_distribution"`
	AvgLatencyMs        *float64            `json:"avg_latency_ms,omitempty"`
	AvgPacketLoss       *float64            `json:"avg_packet_loss,omitempty"`
	MinLatencyMs        *float64            `json:"min_latency_ms,omitempty"`
	MaxLatencyMs        *float64            `json:"max_latency_ms,omitempty"`
}

// Report is the result of one optimization cycle.
type Report struct {
	Timestamp       time.Time        `json:"timestamp"`
	TotalRoutes     int              `json:"total_routes"`
	Destinations    int              `json:"destinations"`
	Recommendations []Recommendation `json:"recommendations"`
	Statistics      Statistics       `json:"statistics"`
}

// RouteEntryMetrics is the metrics section of one RouteReport entry.
type RouteEntryMetrics struct {
	LatencyMs            float64  `json:"latency_ms"`
	PredictedLatencyMs    *float64 `json:"predicted_latency_ms,omitempty"`
	PredictionConfidence float64  `json:"prediction_confidence"`
	JitterMs             float64  `json:"jitter_ms"`
	PacketLoss           float64  `json:"packet_loss"`
	BandwidthMbps        float64  `json:"bandwidth_mbps"`
	HopCount             int      `json:"hop_count"`
}

// RouteEntryScores is the scores section of one RouteReport entry.
type RouteEntryScores struct {
	Quality     float64 `json:"quality"`
	Reliability float64 `json:"reliability"`
	Efficiency  float64 `json:"efficiency"`
}

// RouteEntry is one row of a RouteReport.
type RouteEntry struct {
	RouteID     string            `json:"route_id"`
	Destination string            `json:"destination"`
	NextHop     string            `json:"next_hop"`
	Quality     registry.Quality  `json:"quality"`
	Metrics     RouteEntryMetrics `json:"metrics"`
	Scores      RouteEntryScores  `json:"scores"`
	LastUpdated time.Time         `json:"last_updated"`
	SampleCount int64             `json:"sample_count"`
}

// RouteReport is a detailed, point-in-time snapshot of one or all routes.
type RouteReport struct {
	GeneratedAt time.Time    `json:"generated_at"`
	TotalRoutes int          `json:"total_routes"`
	Routes      []RouteEntry `json:"routes"`
}
