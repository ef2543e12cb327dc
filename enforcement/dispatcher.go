// Package enforcement translates optimizer recommendations into overlay
// actions. It is deliberately thin: the dispatch is the design point, not
// the data-plane surgery, which is left to an injected PeerRestarter.
package enforcement

import (
	"strings"

	"go.uber.org/zap"

	"github.com/yggmesh/routeopt/optimizer"
)

// PeerRestarter executes the actual overlay reconfiguration for a
// refresh action. Implementations are free to be no-op stubs; the dispatch
// layer's job ends at calling this with a well-formed peer address.
type PeerRestarter interface {
	RestartPeer(peerAddr string) error
}

// NoopRestarter implements PeerRestarter by doing nothing, the same no-op
// the original enforcer ships as its only implementation.
type NoopRestarter struct{}

func (NoopRestarter) RestartPeer(peerAddr string) error { return nil }

const directRoutePrefix = "direct-"

// Dispatcher fans a recommendation sequence out to the appropriate
// enforcement primitive.
type Dispatcher struct {
	restarter PeerRestarter
	logger    *zap.SugaredLogger
}

// New creates a Dispatcher using restarter for refresh actions.
func New(restarter PeerRestarter, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{restarter: restarter, logger: logger}
}

// EnforceRecommendations dispatches every recommendation: refresh actions
// invoke the peer-restart primitive, investigate actions are logged at
// warn level with no overlay mutation, and anything else is ignored
// silently.
func (d *Dispatcher) EnforceRecommendations(recs []optimizer.Recommendation) {
	for _, rec := range recs {
		switch rec.Action {
		case optimizer.ActionRefresh:
			d.logger.Infow("refreshing route", "route_id", rec.RouteID)
			d.restartPeer(rec.RouteID)
		case optimizer.ActionInvestigate:
			d.logger.Warnw("route quality low, investigation recommended", "route_id", rec.RouteID)
		}
	}
}

func (d *Dispatcher) restartPeer(routeID string) {
	if !strings.HasPrefix(routeID, directRoutePrefix) {
		return
	}
	peerAddr := strings.TrimPrefix(routeID, directRoutePrefix)
	if err := d.restarter.RestartPeer(peerAddr); err != nil {
		d.logger.Warnw("peer restart failed", "peer", peerAddr, "error", err)
	}
}
