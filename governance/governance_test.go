package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/yggmesh/routeopt/config"
)

func TestApplyExecutedProposalsUpdatesKnownKey(t *testing.T) {
	cfg := config.Default()
	sink := New(cfg, zaptest.NewLogger(t).Sugar())

	applied := sink.ApplyExecutedProposals([]Proposal{{
		ID:    "p1",
		State: "executed",
		Actions: []Action{{
			Type:   "update_config",
			Params: map[string]any{"key": "learning_rate", "value": 0.2},
		}},
	}})

	assert.Equal(t, 1, applied)
	assert.Equal(t, 0.2, cfg.LearningRate)
}

func TestApplyExecutedProposalsSkipsUnexecuted(t *testing.T) {
	cfg := config.Default()
	before := cfg.LearningRate
	sink := New(cfg, zaptest.NewLogger(t).Sugar())

	applied := sink.ApplyExecutedProposals([]Proposal{{
		ID:    "p1",
		State: "pending",
		Actions: []Action{{
			Type:   "update_config",
			Params: map[string]any{"key": "learning_rate", "value": 0.2},
		}},
	}})

	assert.Equal(t, 0, applied)
	assert.Equal(t, before, cfg.LearningRate)
}

func TestApplyExecutedProposalsSkipsNonUpdateConfigActions(t *testing.T) {
	cfg := config.Default()
	sink := New(cfg, zaptest.NewLogger(t).Sugar())

	applied := sink.ApplyExecutedProposals([]Proposal{{
		State:   "executed",
		Actions: []Action{{Type: "notify", Params: map[string]any{"key": "learning_rate", "value": 0.2}}},
	}})

	assert.Equal(t, 0, applied)
}

func TestApplyExecutedProposalsRejectsUnknownKey(t *testing.T) {
	cfg := config.Default()
	sink := New(cfg, zaptest.NewLogger(t).Sugar())

	applied := sink.ApplyExecutedProposals([]Proposal{{
		State: "executed",
		Actions: []Action{{
			Type:   "update_config",
			Params: map[string]any{"key": "not_a_field", "value": 1.0},
		}},
	}})

	assert.Equal(t, 0, applied)
}

func TestApplyExecutedProposalsAppliesMultipleActionsInOrder(t *testing.T) {
	cfg := config.Default()
	sink := New(cfg, zaptest.NewLogger(t).Sugar())

	applied := sink.ApplyExecutedProposals([]Proposal{{
		State: "executed",
		Actions: []Action{
			{Type: "update_config", Params: map[string]any{"key": "learning_rate", "value": 0.5}},
			{Type: "update_config", Params: map[string]any{"key": "min_samples", "value": float64(9)}},
		},
	}})

	assert.Equal(t, 2, applied)
	assert.Equal(t, 0.5, cfg.LearningRate)
	assert.Equal(t, 9, cfg.MinSamples)
}
