package optimizer

import "github.com/yggmesh/routeopt/registry"

// computeReward folds a route's current scores into a single [0,1] reward
// signal for the bandit: 0.5*quality + 0.3*reliability + 0.2*efficiency,
// clamped. These weights are fixed, not config.LatencyWeight and friends —
// see the scoring-weights comment on config.OptimizationConfig.
func computeReward(m registry.Metrics) float64 {
	reward := 0.5*m.QualityScore + 0.3*m.ReliabilityScore + 0.2*m.EfficiencyScore
	if reward < 0 {
		return 0
	}
	if reward > 1 {
		return 1
	}
	return reward
}
