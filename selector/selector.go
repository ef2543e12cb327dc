// Package selector implements adaptive path selection: a multi-armed bandit
// using Thompson Sampling over per-route Beta posteriors, with decay, so the
// optimizer balances exploring alternative peers against exploiting known-
// good ones. The scoring and decay shape mirror the teacher's
// load_balancer.LoadBalancer (a mutex-guarded map scored per candidate and
// sorted), generalized from a single score to a sampled posterior draw.
package selector

import (
	"math/rand"
	"sync"
)

// arm is the Beta(alpha, beta) posterior for one route, alpha=beta=1 at
// birth (uniform prior).
type arm struct {
	alpha, beta float64
	selections  int64
}

// Selector is the adaptive path selector. It implements registry.Observer
// so the registry can register/unregister bandit state alongside routes.
type Selector struct {
	mu    sync.Mutex
	rng   *rand.Rand
	decay float64
	arms  map[string]*arm
}

// New creates a Selector with its own RNG, seeded with 1. decay is
// config.decay_factor.
func New(decay float64) *Selector {
	return NewWithRand(decay, rand.New(rand.NewSource(1)))
}

// NewWithRand creates a Selector with an injected RNG, for deterministic
// tests.
func NewWithRand(decay float64, rng *rand.Rand) *Selector {
	return &Selector{
		rng:   rng,
		decay: decay,
		arms:  make(map[string]*arm),
	}
}

// OnRegister lazily creates a uniform-prior posterior for a route_id if one
// doesn't already exist. Safe to call more than once for the same id.
func (s *Selector) OnRegister(routeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.arms[routeID]; !ok {
		s.arms[routeID] = &arm{alpha: 1, beta: 1}
	}
}

// OnUnregister reaps the bandit state for a route_id, tying its lifetime to
// the registry entry.
func (s *Selector) OnUnregister(routeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.arms, routeID)
}

// UpdateReward folds a reward in [0,1] into route_id's posterior:
// alpha += r, beta += (1-r), then each parameter's deviation from 1 is
// shrunk by decay, so recent behavior dominates without discarding history
// entirely. If the route has no posterior yet, one is created first.
func (s *Selector) UpdateReward(routeID string, reward float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.arms[routeID]
	if !ok {
		a = &arm{alpha: 1, beta: 1}
		s.arms[routeID] = a
	}

	a.alpha += reward
	a.beta += 1 - reward

	a.alpha = 1 + (a.alpha-1)*s.decay
	a.beta = 1 + (a.beta-1)*s.decay
}

// Select runs one round of Thompson Sampling over candidates: routes
// without a registered posterior are dropped from consideration; if that
// leaves nothing, the first candidate from the original list is returned
// (or absent if candidates is empty). Otherwise each surviving candidate's
// posterior is sampled once and the largest sample wins; ties keep the
// first candidate encountered in iteration order, which here is the order
// of the candidates slice. The winner's selection counter is incremented.
func (s *Selector) Select(candidates []string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := s.arms[id]; ok {
			valid = append(valid, id)
		}
	}

	if len(valid) == 0 {
		if len(candidates) == 0 {
			return "", false
		}
		return candidates[0], true
	}

	best := valid[0]
	bestSample := -1.0
	for _, id := range valid {
		a := s.arms[id]
		sample := sampleBeta(s.rng, a.alpha, a.beta)
		if sample > bestSample {
			bestSample = sample
			best = id
		}
	}

	s.arms[best].selections++
	return best, true
}

// Stats returns a snapshot of alpha, beta and selection count for a route,
// for reporting/debugging. ok is false for an unregistered route.
type Stats struct {
	Alpha      float64
	Beta       float64
	Selections int64
}

func (s *Selector) Stats(routeID string) (Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arms[routeID]
	if !ok {
		return Stats{}, false
	}
	return Stats{Alpha: a.alpha, Beta: a.beta, Selections: a.selections}, true
}
