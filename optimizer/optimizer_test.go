package optimizer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/yggmesh/routeopt/config"
	"github.com/yggmesh/routeopt/registry"
)

func newTestOptimizer(t *testing.T, mutate func(*config.OptimizationConfig)) *Optimizer {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, zaptest.NewLogger(t).Sugar())
}

func floatPtr(v float64) *float64 { return &v }

func TestStaleRouteRefreshRecommendation(t *testing.T) {
	t0 := time.Unix(0, 0).UTC()
	o := newTestOptimizer(t, func(c *config.OptimizationConfig) {
		c.RouteTimeoutSeconds = 60
	})

	o.RegisterRoute(&registry.Metrics{
		RouteID:     "r1",
		Destination: "D",
		NextHop:     "n1",
		LastUpdated: t0,
	})

	report := o.Cycle(t0.Add(120 * time.Second))

	assert.Len(t, report.Recommendations, 1)
	rec := report.Recommendations[0]
	assert.Equal(t, ActionRefresh, rec.Action)
	assert.Equal(t, "r1", rec.RouteID)
	assert.Contains(t, rec.Reason, "stale (120s old)")
}

func TestPoorQualityInvestigationRecommendation(t *testing.T) {
	t0 := time.Unix(0, 0).UTC()
	o := newTestOptimizer(t, nil)

	o.RegisterRoute(&registry.Metrics{
		RouteID:     "r2",
		Destination: "D",
		NextHop:     "n2",
		LastUpdated: t0,
	})

	updated, ok := o.UpdateRouteMetrics("r2", registry.Update{
		LatencyMs:     floatPtr(180),
		PacketLossPct: floatPtr(8),
	})
	assert.True(t, ok)
	assert.Equal(t, registry.QualityPoor, updated.Classify())

	report := o.Cycle(t0)

	var found *Recommendation
	for i := range report.Recommendations {
		if report.Recommendations[i].Action == ActionInvestigate {
			found = &report.Recommendations[i]
		}
	}
	assert.NotNil(t, found)
	assert.Contains(t, found.Reason, "poor")
	assert.Equal(t, updated, found.Metrics)
}

func TestSelectorRequiresMinimumSamples(t *testing.T) {
	o := newTestOptimizer(t, func(c *config.OptimizationConfig) {
		c.MinSamples = 5
	})

	o.RegisterRoute(&registry.Metrics{RouteID: "rA", Destination: "D", NextHop: "a"})
	o.RegisterRoute(&registry.Metrics{RouteID: "rB", Destination: "D", NextHop: "b"})

	for i := 0; i < 2; i++ {
		o.UpdateRouteMetrics("rA", registry.Update{LatencyMs: floatPtr(30)})
	}
	for i := 0; i < 6; i++ {
		o.UpdateRouteMetrics("rB", registry.Update{LatencyMs: floatPtr(30)})
	}

	best, ok := o.SelectBestRoute("D", nil)
	assert.True(t, ok)
	assert.Equal(t, "rB", best.RouteID)

	for i := 0; i < 5; i++ {
		o.UpdateRouteMetrics("rA", registry.Update{LatencyMs: floatPtr(30)})
	}

	best, ok = o.SelectBestRoute("D", nil)
	assert.True(t, ok)
	assert.Contains(t, []string{"rA", "rB"}, best.RouteID)
}

func TestCallbackIsolation(t *testing.T) {
	o := newTestOptimizer(t, nil)
	o.RegisterRoute(&registry.Metrics{RouteID: "r1", Destination: "D", NextHop: "n1"})

	var secondReports []Report
	o.AddOptimizationCallback(func(Report) {
		panic("first callback blows up")
	})
	o.AddOptimizationCallback(func(r Report) {
		secondReports = append(secondReports, r)
	})

	report := o.Cycle(time.Unix(0, 0).UTC())

	assert.Len(t, secondReports, 1)
	assert.Equal(t, report.TotalRoutes, secondReports[0].TotalRoutes)
}

func TestQualityClassificationScenarios(t *testing.T) {
	cases := []struct {
		name            string
		latency, loss   float64
		expectedQuality registry.Quality
	}{
		{"excellent", 15, 0.05, registry.QualityExcellent},
		{"acceptable-loss-fails-good", 19.9, 1.5, registry.QualityAcceptable},
		{"critical-latency-alone", 250, 0.0, registry.QualityCritical},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := registry.Metrics{LatencyMs: c.latency, PacketLossPct: c.loss}
			assert.Equal(t, c.expectedQuality, m.Classify())
		})
	}
}

func TestOptimizeRoutesIsPureModuloTimestamp(t *testing.T) {
	o := newTestOptimizer(t, nil)
	o.RegisterRoute(&registry.Metrics{RouteID: "r1", Destination: "D", NextHop: "n1", LastUpdated: time.Unix(0, 0).UTC()})

	now := time.Unix(10, 0).UTC()
	first := o.Cycle(now)
	second := o.Cycle(now)

	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Equal(t, first.Statistics, second.Statistics)
}

func TestStatisticsOmittedWhenNoRoutes(t *testing.T) {
	o := newTestOptimizer(t, nil)
	report := o.Cycle(time.Unix(0, 0).UTC())

	assert.Equal(t, 0, report.TotalRoutes)
	assert.Nil(t, report.Statistics.AvgLatencyMs)
	assert.Nil(t, report.Statistics.MinLatencyMs)
	assert.Nil(t, report.Statistics.MaxLatencyMs)
}

func TestGetAlternativeRoutesSortedDescending(t *testing.T) {
	o := newTestOptimizer(t, nil)
	o.RegisterRoute(&registry.Metrics{RouteID: "slow", Destination: "D", NextHop: "n1"})
	o.RegisterRoute(&registry.Metrics{RouteID: "fast", Destination: "D", NextHop: "n2"})

	o.UpdateRouteMetrics("slow", registry.Update{LatencyMs: floatPtr(190), PacketLossPct: floatPtr(9)})
	o.UpdateRouteMetrics("fast", registry.Update{LatencyMs: floatPtr(5), PacketLossPct: floatPtr(0)})

	alts := o.GetAlternativeRoutes("D", nil, 0)
	assert.Len(t, alts, 2)
	assert.Equal(t, "fast", alts[0].RouteID)
	assert.Equal(t, "slow", alts[1].RouteID)
}

func TestGetRouteReportIncludesPrediction(t *testing.T) {
	o := newTestOptimizer(t, nil)
	o.RegisterRoute(&registry.Metrics{RouteID: "r1", Destination: "D", NextHop: "n1"})
	o.UpdateRouteMetrics("r1", registry.Update{LatencyMs: floatPtr(40)})

	report := o.GetRouteReport("D", time.Unix(0, 0).UTC())
	assert.Equal(t, 1, report.TotalRoutes)
	assert.NotNil(t, report.Routes[0].Metrics.PredictedLatencyMs)
}

func TestUnregisterRouteForgetsPredictorState(t *testing.T) {
	o := newTestOptimizer(t, nil)
	o.RegisterRoute(&registry.Metrics{RouteID: "r1", Destination: "D", NextHop: "n1"})
	o.UpdateRouteMetrics("r1", registry.Update{LatencyMs: floatPtr(40)})

	o.UnregisterRoute("r1")

	_, ok := o.PredictLatency("r1")
	assert.False(t, ok)
}

func TestStartMonitoringRunsCyclesUntilStopped(t *testing.T) {
	o := newTestOptimizer(t, func(c *config.OptimizationConfig) {
		c.ProbeIntervalSeconds = 0.01
	})

	var cycles int32
	o.AddOptimizationCallback(func(report Report) {
		atomic.AddInt32(&cycles, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.StartMonitoring(ctx)
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&cycles) > 0
	}, time.Second, time.Millisecond)

	o.StopMonitoring()

	afterStop := atomic.LoadInt32(&cycles)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, afterStop, atomic.LoadInt32(&cycles), "no further cycles should run after StopMonitoring returns")
}

func TestStopMonitoringWaitsForLoopExit(t *testing.T) {
	o := newTestOptimizer(t, func(c *config.OptimizationConfig) {
		c.ProbeIntervalSeconds = 0.01
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.StartMonitoring(ctx)
	time.Sleep(20 * time.Millisecond)

	o.StopMonitoring()

	select {
	case <-o.done:
	default:
		t.Fatal("StopMonitoring returned before the monitoring goroutine closed o.done")
	}
}

func TestStopMonitoringWithoutStartIsNoop(t *testing.T) {
	o := newTestOptimizer(t, nil)
	o.StopMonitoring()
}
