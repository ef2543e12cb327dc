package enforcement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/yggmesh/routeopt/optimizer"
)

type recordingRestarter struct {
	restarted []string
	err       error
}

func (r *recordingRestarter) RestartPeer(peerAddr string) error {
	r.restarted = append(r.restarted, peerAddr)
	return r.err
}

func TestRefreshDispatchesRestartForDirectRoute(t *testing.T) {
	restarter := &recordingRestarter{}
	d := New(restarter, zaptest.NewLogger(t).Sugar())

	d.EnforceRecommendations([]optimizer.Recommendation{
		{Action: optimizer.ActionRefresh, RouteID: "direct-10.0.0.1"},
	})

	assert.Equal(t, []string{"10.0.0.1"}, restarter.restarted)
}

func TestRefreshIgnoresNonDirectRoute(t *testing.T) {
	restarter := &recordingRestarter{}
	d := New(restarter, zaptest.NewLogger(t).Sugar())

	d.EnforceRecommendations([]optimizer.Recommendation{
		{Action: optimizer.ActionRefresh, RouteID: "relay-foo"},
	})

	assert.Empty(t, restarter.restarted)
}

func TestInvestigateNeverCallsRestarter(t *testing.T) {
	restarter := &recordingRestarter{}
	d := New(restarter, zaptest.NewLogger(t).Sugar())

	d.EnforceRecommendations([]optimizer.Recommendation{
		{Action: optimizer.ActionInvestigate, RouteID: "direct-10.0.0.1"},
	})

	assert.Empty(t, restarter.restarted)
}

func TestUnknownActionIgnoredSilently(t *testing.T) {
	restarter := &recordingRestarter{}
	d := New(restarter, zaptest.NewLogger(t).Sugar())

	assert.NotPanics(t, func() {
		d.EnforceRecommendations([]optimizer.Recommendation{
			{Action: optimizer.Action("unknown"), RouteID: "direct-10.0.0.1"},
			{RouteID: "direct-10.0.0.2"},
		})
	})
	assert.Empty(t, restarter.restarted)
}

func TestRestarterErrorLoggedNotPropagated(t *testing.T) {
	restarter := &recordingRestarter{err: errors.New("boom")}
	d := New(restarter, zaptest.NewLogger(t).Sugar())

	assert.NotPanics(t, func() {
		d.EnforceRecommendations([]optimizer.Recommendation{
			{Action: optimizer.ActionRefresh, RouteID: "direct-10.0.0.1"},
		})
	})
}

func TestNoopRestarterReturnsNil(t *testing.T) {
	assert.NoError(t, NoopRestarter{}.RestartPeer("10.0.0.1"))
}
