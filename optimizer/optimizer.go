// Package optimizer wires registry, predictor and selector into the single
// façade the rest of the system talks to: register/unregister routes, feed
// in telemetry samples, ask for the best or alternative routes to a
// destination, and run periodic optimization cycles that surface
// recommendations to subscribed callbacks. It mirrors the teacher's
// composition style of a thin façade over independently lockable
// subsystems (load_balancer.LoadBalancer wrapped by routing.Router).
package optimizer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yggmesh/routeopt/config"
	"github.com/yggmesh/routeopt/predictor"
	"github.com/yggmesh/routeopt/registry"
	"github.com/yggmesh/routeopt/selector"
	"github.com/yggmesh/routeopt/utils/array"
)

// Callback receives every report produced by a Cycle call. A callback that
// panics or is otherwise misbehaved must not stop later callbacks from
// running; Cycle recovers around each one individually.
type Callback func(Report)

// Recorder is the subset of monitoring.Recorder the façade needs. It is
// declared here, rather than imported from the monitoring package, so that
// monitoring can depend on optimizer's report types without a cycle. Any
// monitoring.Recorder implementation satisfies this interface structurally.
type Recorder interface {
	RecordQualityDistribution(dist QualityDistribution)
	RecordRecommendation(action Action)
	RecordPredictionConfidence(confidence float64)
}

// Optimizer is the façade described in the package doc. Lock ordering
// across the three subsystems, where more than one must be touched for a
// single operation, is always registry -> predictor -> selector; no
// operation holds more than one subsystem's lock at a time, since each
// subsystem is independently safe for concurrent use.
type Optimizer struct {
	cfg       *config.OptimizationConfig
	registry  *registry.Registry
	predictor *predictor.Predictor
	selector  *selector.Selector
	logger    *zap.SugaredLogger

	callbacks []Callback
	recorder  Recorder

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds an Optimizer from cfg, wiring the selector as the registry's
// lifecycle observer so registering or unregistering a route also manages
// its bandit posterior.
func New(cfg *config.OptimizationConfig, logger *zap.SugaredLogger) *Optimizer {
	reg := registry.New()
	sel := selector.New(cfg.DecayFactor)
	reg.SetObserver(sel)

	return &Optimizer{
		cfg:       cfg,
		registry:  reg,
		predictor: predictor.New(cfg.LearningRate, cfg.MinSamples),
		selector:  sel,
		logger:    logger,
	}
}

// RegisterRoute registers or overwrites a route. Registering a route_id that
// already exists updates its metrics in place.
func (o *Optimizer) RegisterRoute(route *registry.Metrics) {
	o.registry.Register(route)
	o.logger.Debugw("registered route", "route_id", route.RouteID, "destination", route.Destination)
}

// UnregisterRoute removes a route and reaps its predictor and selector
// state.
func (o *Optimizer) UnregisterRoute(routeID string) {
	o.registry.Unregister(routeID)
	o.predictor.Forget(routeID)
	o.logger.Debugw("unregistered route", "route_id", routeID)
}

// UpdateRouteMetrics applies a telemetry sample to a route: the registry
// records the raw values and recomputes derived scores, the predictor
// updates its latency forecast, and the selector's posterior for the route
// is updated from the freshly recomputed reward. Returns absent for an
// unknown route_id.
func (o *Optimizer) UpdateRouteMetrics(routeID string, delta registry.Update) (registry.Metrics, bool) {
	metrics, ok := o.registry.Update(routeID, delta)
	if !ok {
		return registry.Metrics{}, false
	}

	if delta.LatencyMs != nil {
		predicted := o.predictor.Update(routeID, *delta.LatencyMs)
		o.logger.Debugw("latency sample", "route_id", routeID, "latency_ms", *delta.LatencyMs, "predicted_ms", predicted)
	}

	o.selector.UpdateReward(routeID, computeReward(metrics))

	return metrics, true
}

// SelectBestRoute picks the best route to destination, excluding any
// route_id in exclude. Routes below config.MinSamples worth of observations
// are not eligible for bandit selection; if none qualify, the first
// registered route (insertion order) is returned as a cold-start fallback.
// Absent means there is no candidate at all.
func (o *Optimizer) SelectBestRoute(destination string, exclude map[string]bool) (registry.Metrics, bool) {
	candidates := o.registry.RoutesForDestination(destination, exclude)
	if len(candidates) == 0 {
		return registry.Metrics{}, false
	}

	eligible := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.SampleCount >= int64(o.cfg.MinSamples) {
			eligible = append(eligible, c.RouteID)
		}
	}

	if len(eligible) == 0 {
		return candidates[0], true
	}

	selectedID, ok := o.selector.Select(eligible)
	if !ok {
		return candidates[0], true
	}

	route, found := array.Find(candidates, func(c registry.Metrics) bool {
		return c.RouteID == selectedID
	})
	if !found {
		return candidates[0], true
	}
	return route, true
}

// GetAlternativeRoutes returns up to max routes to destination (excluding
// exclude), sorted by QualityScore descending. max<=0 uses
// config.MaxAlternativeRoutes.
func (o *Optimizer) GetAlternativeRoutes(destination string, exclude map[string]bool, max int) []registry.Metrics {
	if max <= 0 {
		max = o.cfg.MaxAlternativeRoutes
	}
	return o.registry.AlternativeRoutes(destination, exclude, max)
}

// PredictLatency returns the predictor's current one-step forecast for a
// route, or absent.
func (o *Optimizer) PredictLatency(routeID string) (float64, bool) {
	return o.predictor.Predict(routeID)
}

// PredictionConfidence returns the predictor's confidence in its forecast
// for a route.
func (o *Optimizer) PredictionConfidence(routeID string) float64 {
	return o.predictor.Confidence(routeID)
}

// AddOptimizationCallback registers a callback invoked with every report
// produced by Cycle.
func (o *Optimizer) AddOptimizationCallback(cb Callback) {
	o.callbacks = append(o.callbacks, cb)
}

// SetRecorder wires a monitoring backend into the façade. A nil recorder (the
// default) makes Cycle's monitoring step a no-op.
func (o *Optimizer) SetRecorder(recorder Recorder) {
	o.recorder = recorder
}

// Cycle runs one optimization pass: it classifies every route, flags poor
// or critical routes for investigation, flags routes whose last_updated is
// older than config.RouteTimeoutSeconds for refresh, computes aggregate
// statistics, and notifies every registered callback. now is injected so
// staleness checks are deterministic in tests.
func (o *Optimizer) Cycle(now time.Time) Report {
	routes := o.registry.All()

	report := Report{
		Timestamp:    now,
		TotalRoutes:  len(routes),
		Destinations: o.registry.DestinationCount(),
	}

	staleAfter := time.Duration(o.cfg.RouteTimeoutSeconds * float64(time.Second))

	for i := range routes {
		r := routes[i]
		quality := r.Classify()
		bumpDistribution(&report.Statistics.QualityDistribution, quality)

		if quality == registry.QualityPoor || quality == registry.QualityCritical {
			report.Recommendations = append(report.Recommendations, Recommendation{
				ID:          uuid.New(),
				RouteID:     r.RouteID,
				Destination: r.Destination,
				Action:      ActionInvestigate,
				Reason:      fmt.Sprintf("route quality is %s", quality),
				Metrics:     r,
			})
		}

		if age := now.Sub(r.LastUpdated); age > staleAfter {
			report.Recommendations = append(report.Recommendations, Recommendation{
				ID:          uuid.New(),
				RouteID:     r.RouteID,
				Destination: r.Destination,
				Action:      ActionRefresh,
				Reason:      fmt.Sprintf("route data is stale (%.0fs old)", age.Seconds()),
				Metrics:     r,
			})
		}
	}

	if len(routes) > 0 {
		var sumLatency, sumLoss float64
		minLatency, maxLatency := routes[0].LatencyMs, routes[0].LatencyMs
		for _, r := range routes {
			sumLatency += r.LatencyMs
			sumLoss += r.PacketLossPct
			if r.LatencyMs < minLatency {
				minLatency = r.LatencyMs
			}
			if r.LatencyMs > maxLatency {
				maxLatency = r.LatencyMs
			}
		}
		avgLatency := sumLatency / float64(len(routes))
		avgLoss := sumLoss / float64(len(routes))
		report.Statistics.AvgLatencyMs = &avgLatency
		report.Statistics.AvgPacketLoss = &avgLoss
		report.Statistics.MinLatencyMs = &minLatency
		report.Statistics.MaxLatencyMs = &maxLatency
	}

	if len(report.Recommendations) > 0 {
		o.logger.Infow("optimization cycle produced recommendations", "count", len(report.Recommendations))
	}

	o.record(report, routes)
	o.notify(report)

	return report
}

// record reports report's quality distribution, recommendations and
// per-route prediction confidence to the wired monitoring backend, if any.
func (o *Optimizer) record(report Report, routes []registry.Metrics) {
	if o.recorder == nil {
		return
	}
	o.recorder.RecordQualityDistribution(report.Statistics.QualityDistribution)
	for _, rec := range report.Recommendations {
		o.recorder.RecordRecommendation(rec.Action)
	}
	for _, r := range routes {
		o.recorder.RecordPredictionConfidence(o.predictor.Confidence(r.RouteID))
	}
}

func (o *Optimizer) notify(report Report) {
	for _, cb := range o.callbacks {
		o.invokeSafely(cb, report)
	}
}

func (o *Optimizer) invokeSafely(cb Callback, report Report) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warnw("optimization callback panicked", "panic", r)
		}
	}()
	cb(report)
}

func bumpDistribution(d *QualityDistribution, q registry.Quality) {
	switch q {
	case registry.QualityExcellent:
		d.Excellent++
	case registry.QualityGood:
		d.Good++
	case registry.QualityAcceptable:
		d.Acceptable++
	case registry.QualityPoor:
		d.Poor++
	default:
		d.Critical++
	}
}

// StartMonitoring runs Cycle on config.ProbeIntervalSeconds until ctx is
// canceled or StopMonitoring is called. Cancellation is observed at the tick
// boundary, same as the teacher's ping loop.
func (o *Optimizer) StartMonitoring(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})

	interval := time.Duration(o.cfg.ProbeIntervalSeconds * float64(time.Second))
	ticker := time.NewTicker(interval)

	o.logger.Infow("started route monitoring", "interval_seconds", o.cfg.ProbeIntervalSeconds)

	go func() {
		defer ticker.Stop()
		defer close(o.done)
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				o.Cycle(t)
			}
		}
	}()
}

// StopMonitoring cancels the background monitoring loop started by
// StartMonitoring and waits for it to exit.
func (o *Optimizer) StopMonitoring() {
	if o.cancel == nil {
		return
	}
	o.cancel()
	<-o.done
	o.logger.Infow("stopped route monitoring")
}

// GetRouteReport builds a detailed snapshot of one destination's routes, or
// every route if destination is empty.
func (o *Optimizer) GetRouteReport(destination string, now time.Time) RouteReport {
	var routes []registry.Metrics
	if destination != "" {
		routes = o.registry.RoutesForDestination(destination, nil)
	} else {
		routes = o.registry.All()
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].RouteID < routes[j].RouteID
	})

	entries := array.Map(routes, func(r registry.Metrics) RouteEntry {
		entry := RouteEntry{
			RouteID:     r.RouteID,
			Destination: r.Destination,
			NextHop:     r.NextHop,
			Quality:     r.Classify(),
			Metrics: RouteEntryMetrics{
				LatencyMs:            r.LatencyMs,
				PredictionConfidence: o.predictor.Confidence(r.RouteID),
				JitterMs:             r.JitterMs,
				PacketLoss:           r.PacketLossPct,
				BandwidthMbps:        r.BandwidthMbps,
				HopCount:             r.HopCount,
			},
			Scores: RouteEntryScores{
				Quality:     r.QualityScore,
				Reliability: r.ReliabilityScore,
				Efficiency:  r.EfficiencyScore,
			},
			LastUpdated: r.LastUpdated,
			SampleCount: r.SampleCount,
		}
		if predicted, ok := o.predictor.Predict(r.RouteID); ok {
			entry.Metrics.PredictedLatencyMs = &predicted
		}
		return entry
	})

	return RouteReport{
		GeneratedAt: now,
		TotalRoutes: len(entries),
		Routes:      entries,
	}
}
