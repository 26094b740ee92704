package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condor/internal/types"
)

type stubStats struct {
	stats types.StrategyStats
	err   error
}

func (s stubStats) GetStats(context.Context, types.Strategy) (types.StrategyStats, error) {
	return s.stats, s.err
}

func healthyPortfolio(balance int64) types.PortfolioSnapshot {
	return types.PortfolioSnapshot{
		Balance:  decimal.NewFromInt(balance),
		DailyPnL: decimal.Zero,
		WinRate:  0.55,
	}
}

func signalWith(entry, stop float64) types.TradeSignal {
	return types.TradeSignal{
		Symbol:     "SPY",
		Direction:  types.SideBuy,
		Strategy:   types.StrategyIVMeanReversion,
		Confidence: 0.8,
		EntryPrice: decimal.NewFromFloat(entry),
		StopLoss:   decimal.NewFromFloat(stop),
	}
}

// Stats matching the documented sizing walkthrough:
// kelly = (0.55*100 - 0.45*50)/100 = 0.325.
func walkthroughStats() stubStats {
	return stubStats{stats: types.StrategyStats{
		WinRate:    0.55,
		AvgWin:     decimal.NewFromInt(100),
		AvgLoss:    decimal.NewFromInt(50),
		SampleSize: 50,
	}}
}

func TestDailyLossBreakerTakesPrecedence(t *testing.T) {
	m := NewManager(walkthroughStats())
	portfolio := healthyPortfolio(10000)
	portfolio.DailyPnL = decimal.NewFromInt(-300) // exactly -3%

	d := m.Approve(context.Background(), signalWith(2, 1), portfolio)
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reasoning, "daily loss limit")
}

func TestConsecutiveLossBreaker(t *testing.T) {
	m := NewManager(walkthroughStats())
	portfolio := healthyPortfolio(10000)
	portfolio.ConsecutiveLosses = 3

	d := m.Approve(context.Background(), signalWith(2, 1), portfolio)
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reasoning, "consecutive loss limit")
}

func TestBreakerOrderDailyLossFirst(t *testing.T) {
	m := NewManager(walkthroughStats())
	portfolio := healthyPortfolio(10000)
	portfolio.DailyPnL = decimal.NewFromInt(-500)
	portfolio.ConsecutiveLosses = 5

	d := m.Approve(context.Background(), signalWith(2, 1), portfolio)
	assert.Contains(t, d.Reasoning, "daily loss limit")
}

func TestRejectsTooSmallPosition(t *testing.T) {
	// entry=$10 stop=$5: risk/contract=$500, allocation $200 -> 0 contracts.
	m := NewManager(walkthroughStats())

	d := m.Approve(context.Background(), signalWith(10, 5), healthyPortfolio(10000))
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reasoning, "too small")
}

func TestApprovesWithBothCaps(t *testing.T) {
	// entry=$2 stop=$1: risk/contract=$100 -> kelly size 2; 5% notional cap
	// floor($500/$200) = 2 as well.
	m := NewManager(walkthroughStats())

	d := m.Approve(context.Background(), signalWith(2, 1), healthyPortfolio(10000))
	require.True(t, d.Approved, d.Reasoning)
	assert.Equal(t, 2, d.PositionSize)
	assert.True(t, d.MaxLoss.Equal(decimal.NewFromInt(200)), "max loss %s", d.MaxLoss)
}

func TestRejectsZeroRiskDistance(t *testing.T) {
	m := NewManager(walkthroughStats())

	d := m.Approve(context.Background(), signalWith(2, 2), healthyPortfolio(10000))
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reasoning, "risk per contract is zero")
}

func TestRejectsNegativeEdge(t *testing.T) {
	m := NewManager(stubStats{stats: types.StrategyStats{
		WinRate:    0.30,
		AvgWin:     decimal.NewFromInt(50),
		AvgLoss:    decimal.NewFromInt(100),
		SampleSize: 40,
	}})

	d := m.Approve(context.Background(), signalWith(2, 1), healthyPortfolio(10000))
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reasoning, "negative kelly")
}

func TestThinHistoryFallsBackToDefaults(t *testing.T) {
	// 3 samples of terrible stats must be ignored in favor of defaults.
	m := NewManager(stubStats{stats: types.StrategyStats{
		WinRate:    0.0,
		AvgWin:     decimal.NewFromInt(1),
		AvgLoss:    decimal.NewFromInt(100),
		SampleSize: 3,
	}})

	d := m.Approve(context.Background(), signalWith(2, 1), healthyPortfolio(10000))
	assert.True(t, d.Approved, d.Reasoning)
}

func TestStatsErrorFallsBackToDefaults(t *testing.T) {
	m := NewManager(stubStats{err: errors.New("store offline")})

	d := m.Approve(context.Background(), signalWith(2, 1), healthyPortfolio(10000))
	assert.True(t, d.Approved, d.Reasoning)
}

func TestKellyMonotonicInWinRate(t *testing.T) {
	base := types.StrategyStats{
		AvgWin:  decimal.NewFromInt(100),
		AvgLoss: decimal.NewFromInt(50),
	}
	prev := decimal.NewFromInt(-1000)
	for wr := 0.0; wr <= 1.0; wr += 0.05 {
		stats := base
		stats.WinRate = wr
		k := Kelly(stats)
		assert.True(t, k.GreaterThanOrEqual(prev), "kelly regressed at winRate=%.2f", wr)
		prev = k
	}
}

func TestKellyWalkthroughValue(t *testing.T) {
	k := Kelly(walkthroughStats().stats)
	assert.True(t, k.Equal(decimal.NewFromFloat(0.325)), "kelly %s", k)
}

func TestApproveSpread(t *testing.T) {
	m := NewManager(walkthroughStats())
	proposal := SpreadProposal{
		Strategy:         types.StrategyIronCondor,
		Underlying:       "SPY",
		NetCredit:        decimal.NewFromFloat(1.00),
		MaxLossPerSpread: decimal.NewFromFloat(4.00), // $400 with multiplier
	}

	// Allocation = $40k * 2% = $800 -> 2 spreads; 5% cap allows 5.
	d := m.ApproveSpread(context.Background(), proposal, healthyPortfolio(40000))
	require.True(t, d.Approved, d.Reasoning)
	assert.Equal(t, 2, d.PositionSize)
	assert.True(t, d.MaxLoss.Equal(decimal.NewFromInt(800)), "max loss %s", d.MaxLoss)
}

func TestApproveSpreadSameBreakers(t *testing.T) {
	m := NewManager(walkthroughStats())
	portfolio := healthyPortfolio(40000)
	portfolio.ConsecutiveLosses = 4

	d := m.ApproveSpread(context.Background(), SpreadProposal{
		Strategy:         types.StrategyIronCondor,
		NetCredit:        decimal.NewFromFloat(1.00),
		MaxLossPerSpread: decimal.NewFromFloat(4.00),
	}, portfolio)
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reasoning, "consecutive loss limit")
}

func TestCurrentLimits(t *testing.T) {
	l := CurrentLimits()
	assert.Equal(t, 0.02, l.MaxPortfolioRisk)
	assert.Equal(t, 0.05, l.MaxPositionSize)
	assert.Equal(t, -0.03, l.DailyLossLimit)
	assert.Equal(t, 3, l.MaxConsecutiveLosses)
	assert.Equal(t, 100, l.ContractMultiplier)
}
