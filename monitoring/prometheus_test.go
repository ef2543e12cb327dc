package monitoring

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/yggmesh/routeopt/optimizer"
)

func newTestPrometheusRecorder(t *testing.T) *PrometheusRecorder {
	t.Helper()
	r, err := NewPrometheusRecorder(&PrometheusConfig{Enabled: true, Namespace: "routeopt"}, zaptest.NewLogger(t).Sugar())
	assert.NoError(t, err)
	return r
}

func TestPrometheusRecorderExposesQualityGauge(t *testing.T) {
	r := newTestPrometheusRecorder(t)
	r.RecordQualityDistribution(optimizer.QualityDistribution{Excellent: 3, Good: 1, Poor: 2})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `routeopt_routes_by_quality{quality="excellent"} 3`)
	assert.Contains(t, body, `routeopt_routes_by_quality{quality="poor"} 2`)
}

func TestPrometheusRecorderCountsRecommendationsByAction(t *testing.T) {
	r := newTestPrometheusRecorder(t)
	r.RecordRecommendation(optimizer.ActionRefresh)
	r.RecordRecommendation(optimizer.ActionRefresh)
	r.RecordRecommendation(optimizer.ActionInvestigate)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `routeopt_recommendations_total{action="refresh"} 2`)
	assert.Contains(t, body, `routeopt_recommendations_total{action="investigate"} 1`)
}

func TestPrometheusRecorderObservesConfidenceHistogram(t *testing.T) {
	r := newTestPrometheusRecorder(t)
	r.RecordPredictionConfidence(0.42)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "routeopt_prediction_confidence_sum 0.42")
}

func TestPrometheusRecorderCloseIsNoop(t *testing.T) {
	r := newTestPrometheusRecorder(t)
	assert.NoError(t, r.Close())
}
