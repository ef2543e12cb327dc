package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/yggmesh/routeopt/optimizer"
)

func TestNewRecorderReturnsNoopWhenDisabled(t *testing.T) {
	r, err := NewRecorder(&Config{Enabled: false}, zaptest.NewLogger(t).Sugar())
	assert.NoError(t, err)
	assert.IsType(t, noopRecorder{}, r)
}

func TestNewRecorderReturnsNoopWhenNilConfig(t *testing.T) {
	r, err := NewRecorder(nil, zaptest.NewLogger(t).Sugar())
	assert.NoError(t, err)
	assert.IsType(t, noopRecorder{}, r)
}

func TestNewRecorderSelectsPrometheus(t *testing.T) {
	cfg := &Config{
		Enabled:    true,
		Prometheus: &PrometheusConfig{Enabled: true, Namespace: "routeopt"},
	}
	r, err := NewRecorder(cfg, zaptest.NewLogger(t).Sugar())
	assert.NoError(t, err)
	_, ok := r.(*PrometheusRecorder)
	assert.True(t, ok)
}

func TestNoopRecorderMethodsAreSafe(t *testing.T) {
	var r noopRecorder
	assert.NotPanics(t, func() {
		r.RecordQualityDistribution(optimizer.QualityDistribution{Excellent: 1})
		r.RecordRecommendation(optimizer.ActionRefresh)
		r.RecordPredictionConfidence(0.5)
		assert.NoError(t, r.Close())
	})
}

type recordingRecorder struct {
	distributions []optimizer.QualityDistribution
	actions       []optimizer.Action
	confidences   []float64
}

func (r *recordingRecorder) RecordQualityDistribution(dist optimizer.QualityDistribution) {
	r.distributions = append(r.distributions, dist)
}
func (r *recordingRecorder) RecordRecommendation(action optimizer.Action) {
	r.actions = append(r.actions, action)
}
func (r *recordingRecorder) RecordPredictionConfidence(confidence float64) {
	r.confidences = append(r.confidences, confidence)
}
func (r *recordingRecorder) Close() error { return nil }

func TestRecordReportFansOutToAllThreeMethods(t *testing.T) {
	rec := &recordingRecorder{}
	report := optimizer.Report{
		Statistics: optimizer.Statistics{
			QualityDistribution: optimizer.QualityDistribution{Good: 2, Poor: 1},
		},
		Recommendations: []optimizer.Recommendation{
			{Action: optimizer.ActionInvestigate},
			{Action: optimizer.ActionRefresh},
		},
	}

	RecordReport(rec, report, []float64{0.8, 0.4})

	assert.Equal(t, []optimizer.QualityDistribution{report.Statistics.QualityDistribution}, rec.distributions)
	assert.Equal(t, []optimizer.Action{optimizer.ActionInvestigate, optimizer.ActionRefresh}, rec.actions)
	assert.Equal(t, []float64{0.8, 0.4}, rec.confidences)
}

func TestRecordReportToleratesNilRecorder(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordReport(nil, optimizer.Report{}, nil)
	})
}
