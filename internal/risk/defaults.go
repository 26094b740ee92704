package risk

import (
	"github.com/shopspring/decimal"

	"condor/internal/types"
)

// minSampleSize is the closed-trade count below which recorded statistics
// are considered noise and replaced with conservative defaults.
const minSampleSize = 10

// defaultStats returns the research-based fallback statistics for a strategy
// family with insufficient trade history. Values mirror the performance
// tracker's seed assumptions; the generic fallback is deliberately modest.
func defaultStats(strategy types.Strategy) types.StrategyStats {
	switch strategy {
	case types.StrategyIVMeanReversion:
		return types.StrategyStats{
			Strategy: strategy,
			WinRate:  0.75,
			AvgWin:   decimal.NewFromInt(120),
			AvgLoss:  decimal.NewFromInt(80),
		}
	default:
		return types.StrategyStats{
			Strategy: strategy,
			WinRate:  0.55,
			AvgWin:   decimal.NewFromInt(100),
			AvgLoss:  decimal.NewFromInt(50),
		}
	}
}
