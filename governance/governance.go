// Package governance applies executed DAO/governance proposals to the live
// OptimizationConfig, the Go counterpart of dao_enforcement.py's
// DAOEnforcer.sync_config_with_dao.
package governance

import (
	"time"

	"go.uber.org/zap"

	"github.com/yggmesh/routeopt/config"
)

// Action is one operation inside a Proposal. Only Type == "update_config"
// is currently recognized; others are ignored, same as the original
// enforcer's action loop.
type Action struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// Proposal is an executed governance decision carrying zero or more
// Actions to apply.
type Proposal struct {
	ID         string    `json:"id"`
	State      string    `json:"state"`
	ExecutedAt time.Time `json:"executed_at"`
	Actions    []Action  `json:"actions"`
}

// Sink applies executed proposals' update_config actions to a live
// OptimizationConfig via config.ApplyProposal, which is the sole mutation
// path — no reflection, no arbitrary field access.
type Sink struct {
	cfg    *config.OptimizationConfig
	logger *zap.SugaredLogger
}

// New creates a Sink writing into cfg.
func New(cfg *config.OptimizationConfig, logger *zap.SugaredLogger) *Sink {
	return &Sink{cfg: cfg, logger: logger}
}

// ApplyExecutedProposals walks proposals in order and applies every
// update_config action whose key names a real OptimizationConfig field
// with a value of the right type. It returns the number of actions
// actually applied; rejected or unrecognized actions are logged at debug
// level and otherwise skipped, matching the governance sink's
// error-handling policy of never failing a sync over one bad proposal.
func (s *Sink) ApplyExecutedProposals(proposals []Proposal) int {
	applied := 0
	for _, prop := range proposals {
		if prop.State != "executed" {
			continue
		}
		for _, action := range prop.Actions {
			if action.Type != "update_config" {
				continue
			}
			key, _ := action.Params["key"].(string)
			value := action.Params["value"]
			if key == "" {
				continue
			}
			if s.cfg.ApplyProposal(key, value) {
				s.logger.Infow("governance: updated config", "key", key, "value", value, "proposal_id", prop.ID)
				applied++
			} else {
				s.logger.Debugw("governance: rejected proposal action", "key", key, "value", value, "proposal_id", prop.ID)
			}
		}
	}
	return applied
}
