package risk

import "github.com/shopspring/decimal"

// Hard policy limits. These are safety invariants, not tuning knobs: no code
// path derives, scales or overrides them, and config validation rejects any
// attempt to set them.
var (
	// MaxPortfolioRisk caps the capital fraction risked on a single trade.
	MaxPortfolioRisk = decimal.NewFromFloat(0.02)
	// MaxPositionSize caps total position notional as a balance fraction.
	MaxPositionSize = decimal.NewFromFloat(0.05)
	// DailyLossLimit halts trading for the day once breached.
	DailyLossLimit = decimal.NewFromFloat(-0.03)
)

const (
	// MaxConsecutiveLosses halts trading after this many losses in a row.
	MaxConsecutiveLosses = 3
	// ContractMultiplier is the standard US equity option multiplier.
	ContractMultiplier = 100
)

// Limits is the read-only snapshot served by the limits endpoint.
type Limits struct {
	MaxPortfolioRisk     float64 `json:"max_portfolio_risk"`
	MaxPositionSize      float64 `json:"max_position_size"`
	DailyLossLimit       float64 `json:"daily_loss_limit"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	ContractMultiplier   int     `json:"contract_multiplier"`
}

// CurrentLimits reports the hard limits.
func CurrentLimits() Limits {
	maxRisk, _ := MaxPortfolioRisk.Float64()
	maxSize, _ := MaxPositionSize.Float64()
	dailyLimit, _ := DailyLossLimit.Float64()
	return Limits{
		MaxPortfolioRisk:     maxRisk,
		MaxPositionSize:      maxSize,
		DailyLossLimit:       dailyLimit,
		MaxConsecutiveLosses: MaxConsecutiveLosses,
		ContractMultiplier:   ContractMultiplier,
	}
}
