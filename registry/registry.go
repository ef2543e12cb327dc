package registry

import (
	"sort"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/yggmesh/routeopt/utils/array"
)

// Observer is notified of route lifecycle events. The path selector
// implements this so that registering a route also registers its bandit
// state, and unregistering a route reaps it, without registry importing
// selector.
type Observer interface {
	OnRegister(routeID string)
	OnUnregister(routeID string)
}

// Update carries a subset of the mutable metric fields; a nil field is left
// untouched.
type Update struct {
	LatencyMs     *float64
	JitterMs      *float64
	PacketLossPct *float64
	BandwidthMbps *float64
}

// Registry maintains route_id -> Metrics and the secondary index
// destination -> ordered (insertion order) sequence of route_id.
type Registry struct {
	mu     sync.RWMutex
	clock  clock.Clock
	routes map[string]*Metrics
	byDest map[string][]string

	observer Observer
}

// New creates an empty Registry using the real wall clock.
func New() *Registry {
	return NewWithClock(clock.New())
}

// NewWithClock creates an empty Registry using the given clock, so tests can
// control "now" deterministically.
func NewWithClock(clk clock.Clock) *Registry {
	return &Registry{
		clock:  clk,
		routes: make(map[string]*Metrics),
		byDest: make(map[string][]string),
	}
}

// SetObserver wires the component (the path selector) notified on route
// lifecycle changes. Must be called before concurrent use begins.
func (r *Registry) SetObserver(obs Observer) {
	r.observer = obs
}

// Register inserts or overwrites a route. It is idempotent: registering the
// same route_id again updates its metrics in place without duplicating the
// destination index entry.
func (r *Registry) Register(route *Metrics) {
	r.mu.Lock()
	route.Recompute()
	r.routes[route.RouteID] = route

	seq := r.byDest[route.Destination]
	if !array.Contains(seq, route.RouteID) {
		r.byDest[route.Destination] = append(seq, route.RouteID)
	}
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.OnRegister(route.RouteID)
	}
}

// Unregister removes a route from the primary map and the destination
// index. It does not touch predictor or selector state directly; the
// observer is responsible for reaping those, keeping their lifetime tied to
// the registry entry.
func (r *Registry) Unregister(routeID string) {
	r.mu.Lock()
	route, ok := r.routes[routeID]
	if ok {
		delete(r.routes, routeID)
		seq := r.byDest[route.Destination]
		for i, id := range seq {
			if id == routeID {
				r.byDest[route.Destination] = append(seq[:i], seq[i+1:]...)
				break
			}
		}
		if len(r.byDest[route.Destination]) == 0 {
			delete(r.byDest, route.Destination)
		}
	}
	r.mu.Unlock()

	if ok && r.observer != nil {
		r.observer.OnUnregister(routeID)
	}
}

// Update applies a subset of mutable fields to an existing route, bumps
// last_updated and sample_count, and recomputes derived scores. It returns
// the absent sentinel (zero Metrics, false) for an unknown route_id; update never
// implicitly creates a route.
func (r *Registry) Update(routeID string, delta Update) (Metrics, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, ok := r.routes[routeID]
	if !ok {
		return Metrics{}, false
	}

	if delta.LatencyMs != nil {
		route.LatencyMs = *delta.LatencyMs
	}
	if delta.JitterMs != nil {
		route.JitterMs = *delta.JitterMs
	}
	if delta.PacketLossPct != nil {
		route.PacketLossPct = *delta.PacketLossPct
	}
	if delta.BandwidthMbps != nil {
		route.BandwidthMbps = *delta.BandwidthMbps
	}

	route.LastUpdated = r.clock.Now()
	route.SampleCount++
	route.Recompute()

	return *route, true
}

// Get returns a copy of the current metrics for a route, or absent.
func (r *Registry) Get(routeID string) (Metrics, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[routeID]
	if !ok {
		return Metrics{}, false
	}
	return *route, true
}

// RoutesForDestination returns a copy of the registered routes for a
// destination, in insertion order, excluding any route_id in exclude.
func (r *Registry) RoutesForDestination(destination string, exclude map[string]bool) []Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byDest[destination]
	routes := make([]Metrics, 0, len(ids))
	for _, id := range ids {
		if exclude != nil && exclude[id] {
			continue
		}
		if route, ok := r.routes[id]; ok {
			routes = append(routes, *route)
		}
	}
	return routes
}

// AlternativeRoutes returns the candidates for a destination sorted by
// QualityScore descending, truncated to max (ties keep insertion order,
// since sort.SliceStable is used).
func (r *Registry) AlternativeRoutes(destination string, exclude map[string]bool, max int) []Metrics {
	routes := r.RoutesForDestination(destination, exclude)

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].QualityScore > routes[j].QualityScore
	})

	if max > 0 && len(routes) > max {
		routes = routes[:max]
	}
	return routes
}

// All returns a snapshot copy of every registered route. Order is
// unspecified.
func (r *Registry) All() []Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]Metrics, 0, len(r.routes))
	for _, route := range r.routes {
		routes = append(routes, *route)
	}
	return routes
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// DestinationCount returns the number of distinct destinations with at
// least one registered route.
func (r *Registry) DestinationCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byDest)
}
