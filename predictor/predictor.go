// Package predictor implements a per-route one-step-ahead latency forecaster:
// an exponentially weighted moving average with a smoothed trend term, the
// same estimator the teacher's adaptive routers use for endpoint latency
// (load_balancer.calculateScore), generalized here to mesh routes.
package predictor

import "sync"

const maxHistory = 100

type state struct {
	history []float64
	ewma    float64
	trend   float64
}

// Predictor is a single-step latency forecaster per route_id, updated online
// with config.LearningRate as the EWMA weight alpha.
type Predictor struct {
	mu    sync.Mutex
	alpha float64
	min   int
	byID  map[string]*state
}

// New creates a Predictor. alpha is the EWMA learning rate (config's
// learning_rate); minSamples is the confidence floor (config's min_samples).
func New(alpha float64, minSamples int) *Predictor {
	return &Predictor{
		alpha: alpha,
		min:   minSamples,
		byID:  make(map[string]*state),
	}
}

// Update appends a latency sample for route_id (capping history at the last
// 100, FIFO), advances the EWMA and trend, and returns the new one-step
// forecast (ewma + trend).
func (p *Predictor) Update(routeID string, latencyMs float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.byID[routeID]
	if !ok {
		s = &state{ewma: latencyMs, trend: 0}
		p.byID[routeID] = s
	}

	s.history = append(s.history, latencyMs)
	if len(s.history) > maxHistory {
		s.history = s.history[1:]
	}

	prevEwma := s.ewma
	s.ewma = p.alpha*latencyMs + (1-p.alpha)*prevEwma

	if len(s.history) >= 2 {
		prevSample := s.history[len(s.history)-2]
		delta := latencyMs - prevSample
		s.trend = p.alpha*delta + (1-p.alpha)*s.trend
	}

	return s.ewma + s.trend
}

// Predict returns the current one-step forecast for a route, or absent for
// an unknown route_id.
func (p *Predictor) Predict(routeID string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.byID[routeID]
	if !ok {
		return 0, false
	}
	return s.ewma + s.trend, true
}

// Confidence returns 0 if fewer than min_samples observations exist,
// otherwise min(1, n/50).
func (p *Predictor) Confidence(routeID string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.byID[routeID]
	if !ok {
		return 0
	}
	n := len(s.history)
	if n < p.min {
		return 0
	}
	c := float64(n) / 50.0
	if c > 1 {
		return 1
	}
	return c
}

// Forget deletes all predictor state for a route_id. Called when the route
// is unregistered, so predictor state is never leaked beyond the registry
// entry's lifetime.
func (p *Predictor) Forget(routeID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byID, routeID)
}
