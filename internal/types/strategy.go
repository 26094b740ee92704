package types

import "strings"

// Strategy identifies one of the known trading strategies. Dispatch inside
// the engine is always on this closed set; free-form strategy ids coming from
// the outside are mapped once at the boundary via ParseStrategy.
type Strategy string

const (
	StrategyUnknown              Strategy = ""
	StrategyIVMeanReversion      Strategy = "iv_mean_reversion"
	StrategyIronCondor           Strategy = "iron_condor"
	StrategyMomentumScalping     Strategy = "momentum_scalping"
	StrategyOpeningRangeBreakout Strategy = "opening_range_breakout"
)

func (s Strategy) String() string {
	if s == StrategyUnknown {
		return "unknown"
	}
	return string(s)
}

// Known reports whether the strategy is one of the four first-class
// strategies with a dedicated exit evaluator.
func (s Strategy) Known() bool {
	switch s {
	case StrategyIVMeanReversion, StrategyIronCondor, StrategyMomentumScalping, StrategyOpeningRangeBreakout:
		return true
	}
	return false
}

// ParseStrategy maps an external strategy id onto the closed Strategy set.
// Matching is by substring to stay compatible with historical ids like
// "0dte_iron_condor" or "momentum_v2"; anything unrecognized becomes
// StrategyUnknown and receives the single-leg default exit treatment.
func ParseStrategy(id string) Strategy {
	lowered := strings.ToLower(strings.TrimSpace(id))
	switch {
	case lowered == "":
		return StrategyUnknown
	case strings.Contains(lowered, "condor"):
		return StrategyIronCondor
	case strings.Contains(lowered, "momentum"):
		return StrategyMomentumScalping
	case strings.Contains(lowered, "opening_range") || strings.Contains(lowered, "orb"):
		return StrategyOpeningRangeBreakout
	case strings.Contains(lowered, "iv_mean") || strings.Contains(lowered, "mean_reversion"):
		return StrategyIVMeanReversion
	default:
		return StrategyUnknown
	}
}
