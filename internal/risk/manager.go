// Package risk sizes positions with a capped half-Kelly formula behind hard
// circuit breakers. Rejections are ordinary RiskDecision values; an error
// return is reserved for infrastructure failure, never for policy.
package risk

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"condor/internal/gateway/broker"
	"condor/internal/logger"
	"condor/internal/types"
)

var (
	decTwo        = decimal.NewFromInt(2)
	decMultiplier = decimal.NewFromInt(ContractMultiplier)
)

// Manager evaluates trade candidates against the hard limits and Kelly
// sizing. Stats come from the performance tracker; everything else is pure.
type Manager struct {
	stats broker.StatsSource
}

func NewManager(stats broker.StatsSource) *Manager {
	return &Manager{stats: stats}
}

func reject(format string, args ...any) types.RiskDecision {
	return types.RiskDecision{
		Approved:  false,
		MaxLoss:   decimal.Zero,
		Reasoning: fmt.Sprintf(format, args...),
	}
}

// Approve evaluates a single-leg trade signal. Checks run in fixed order and
// the first failure wins; the ordering is part of the contract (a daily-loss
// breach must reject even a perfect signal).
func (m *Manager) Approve(ctx context.Context, signal types.TradeSignal, portfolio types.PortfolioSnapshot) types.RiskDecision {
	if breach, decision := m.circuitBreakers(portfolio); breach {
		return decision
	}

	sizeFraction, decision, rejected := m.kellyFraction(ctx, signal.Strategy)
	if rejected {
		return decision
	}

	riskPerContract := signal.EntryPrice.Sub(signal.StopLoss).Abs().Mul(decMultiplier)
	if riskPerContract.IsZero() {
		return reject("invalid signal: risk per contract is zero")
	}

	positionSize := portfolio.Balance.Mul(sizeFraction).Div(riskPerContract).IntPart()

	notionalPerContract := signal.EntryPrice.Mul(decMultiplier)
	if notionalPerContract.IsPositive() {
		maxContracts := portfolio.Balance.Mul(MaxPositionSize).Div(notionalPerContract).IntPart()
		if maxContracts < positionSize {
			positionSize = maxContracts
		}
	}

	if positionSize < 1 {
		return reject("position size too small: %d contracts", positionSize)
	}

	maxLoss := riskPerContract.Mul(decimal.NewFromInt(positionSize))
	logger.Infof("risk: approved %s %s size=%d max_loss=%s fraction=%s",
		signal.Strategy, signal.Symbol, positionSize, maxLoss.StringFixed(2), sizeFraction.StringFixed(4))
	return types.RiskDecision{
		Approved:     true,
		PositionSize: int(positionSize),
		MaxLoss:      maxLoss,
		Reasoning:    fmt.Sprintf("kelly sizing: %d contracts, max loss $%s", positionSize, maxLoss.StringFixed(2)),
	}
}

// SpreadProposal is the multi-leg sizing input: per-spread net credit and
// per-spread max loss, both per share (the contract multiplier is applied
// here).
type SpreadProposal struct {
	Strategy         types.Strategy
	Underlying       string
	NetCredit        decimal.Decimal
	MaxLossPerSpread decimal.Decimal
}

// ApproveSpread applies the same circuit breakers as Approve but sizes
// against the spread's defined risk (aggregate max loss) instead of a
// single-leg stop distance.
func (m *Manager) ApproveSpread(ctx context.Context, proposal SpreadProposal, portfolio types.PortfolioSnapshot) types.RiskDecision {
	if breach, decision := m.circuitBreakers(portfolio); breach {
		return decision
	}

	sizeFraction, decision, rejected := m.kellyFraction(ctx, proposal.Strategy)
	if rejected {
		return decision
	}

	riskPerSpread := proposal.MaxLossPerSpread.Mul(decMultiplier)
	if !riskPerSpread.IsPositive() {
		return reject("invalid spread: max loss per spread is %s", proposal.MaxLossPerSpread)
	}
	if !proposal.NetCredit.IsPositive() {
		return reject("invalid spread: net credit is %s", proposal.NetCredit)
	}

	positionSize := portfolio.Balance.Mul(sizeFraction).Div(riskPerSpread).IntPart()
	maxSpreads := portfolio.Balance.Mul(MaxPositionSize).Div(riskPerSpread).IntPart()
	if maxSpreads < positionSize {
		positionSize = maxSpreads
	}

	if positionSize < 1 {
		return reject("position size too small: %d spreads", positionSize)
	}

	maxLoss := riskPerSpread.Mul(decimal.NewFromInt(positionSize))
	logger.Infof("risk: approved spread %s %s size=%d credit=%s max_loss=%s",
		proposal.Strategy, proposal.Underlying, positionSize, proposal.NetCredit.StringFixed(2), maxLoss.StringFixed(2))
	return types.RiskDecision{
		Approved:     true,
		PositionSize: int(positionSize),
		MaxLoss:      maxLoss,
		Reasoning:    fmt.Sprintf("kelly sizing: %d spreads, max loss $%s", positionSize, maxLoss.StringFixed(2)),
	}
}

// circuitBreakers runs the two portfolio-level halts, in order.
func (m *Manager) circuitBreakers(portfolio types.PortfolioSnapshot) (bool, types.RiskDecision) {
	if !portfolio.Balance.IsPositive() {
		return true, reject("invalid portfolio: balance %s", portfolio.Balance)
	}
	dailyLossPct := portfolio.DailyPnL.Div(portfolio.Balance)
	if dailyLossPct.LessThanOrEqual(DailyLossLimit) {
		logger.Warnf("risk: daily loss limit hit (%s <= %s)", dailyLossPct.StringFixed(4), DailyLossLimit)
		return true, reject("daily loss limit hit: %s%% <= %s%%",
			dailyLossPct.Mul(decimal.NewFromInt(100)).StringFixed(2), DailyLossLimit.Mul(decimal.NewFromInt(100)).StringFixed(0))
	}
	if portfolio.ConsecutiveLosses >= MaxConsecutiveLosses {
		logger.Warnf("risk: consecutive loss limit hit (%d)", portfolio.ConsecutiveLosses)
		return true, reject("consecutive loss limit: %d >= %d", portfolio.ConsecutiveLosses, MaxConsecutiveLosses)
	}
	return false, types.RiskDecision{}
}

// kellyFraction resolves strategy stats (falling back to conservative
// defaults on thin or unavailable history) and returns the half-Kelly
// capital fraction capped at MaxPortfolioRisk. The third return is true when
// the caller must return the decision (negative edge).
func (m *Manager) kellyFraction(ctx context.Context, strategy types.Strategy) (decimal.Decimal, types.RiskDecision, bool) {
	stats := m.resolveStats(ctx, strategy)

	kelly := Kelly(stats)
	if !kelly.IsPositive() {
		return decimal.Zero, reject("negative kelly criterion: %s", kelly.StringFixed(4)), true
	}

	fraction := kelly.Div(decTwo)
	if fraction.GreaterThan(MaxPortfolioRisk) {
		fraction = MaxPortfolioRisk
	}
	return fraction, types.RiskDecision{}, false
}

func (m *Manager) resolveStats(ctx context.Context, strategy types.Strategy) types.StrategyStats {
	if m.stats == nil {
		return defaultStats(strategy)
	}
	stats, err := m.stats.GetStats(ctx, strategy)
	if err != nil {
		logger.Warnf("risk: stats lookup failed for %s, using defaults: %v", strategy, err)
		return defaultStats(strategy)
	}
	if stats.SampleSize < minSampleSize {
		logger.Debugf("risk: %s has %d samples (<%d), using defaults", strategy, stats.SampleSize, minSampleSize)
		return defaultStats(strategy)
	}
	return stats
}

// Kelly computes the raw Kelly fraction
// (winRate*avgWin - (1-winRate)*avgLoss) / avgWin.
func Kelly(stats types.StrategyStats) decimal.Decimal {
	if !stats.AvgWin.IsPositive() {
		return decimal.Zero
	}
	winRate := decimal.NewFromFloat(stats.WinRate)
	lossRate := decimal.NewFromInt(1).Sub(winRate)
	return winRate.Mul(stats.AvgWin).Sub(lossRate.Mul(stats.AvgLoss)).Div(stats.AvgWin)
}
