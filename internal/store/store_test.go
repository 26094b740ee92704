package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"condor/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "positions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testPosition(id string, strategy types.Strategy) *types.Position {
	return &types.Position{
		ID:         id,
		Symbol:     "SPY251219C00600000",
		Strategy:   strategy,
		Kind:       types.KindLong,
		Quantity:   2,
		EntryPrice: decimal.NewFromFloat(2.00),
		Status:     types.PositionStatusOpen,
		OpenedAt:   time.Now().UTC(),
	}
}

func TestInsertAndListOpen(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertPosition(ctx, testPosition("p1", types.StrategyIVMeanReversion)))
	require.NoError(t, s.InsertPosition(ctx, testPosition("p2", types.StrategyIronCondor)))

	open, err := s.ListOpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "p1", open[0].ID)
	assert.True(t, open[0].EntryPrice.Equal(decimal.NewFromFloat(2.00)))
}

func TestLegsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pos := testPosition("ic1", types.StrategyIronCondor)
	pos.Kind = types.KindSpread
	credit := decimal.NewFromInt(100)
	pos.NetCredit = &credit
	pos.Legs = []types.LegSnapshot{
		{Symbol: "SPY251219C00610000", Side: types.SideSell, OptionType: types.OptionCall, Strike: decimal.NewFromInt(610), Quantity: 1},
		{Symbol: "SPY251219C00615000", Side: types.SideBuy, OptionType: types.OptionCall, Strike: decimal.NewFromInt(615), Quantity: 1},
	}
	require.NoError(t, s.InsertPosition(ctx, pos))

	got, found, err := s.GetPosition(ctx, "ic1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got.Legs, 2)
	assert.Equal(t, types.SideSell, got.Legs[0].Side)
	assert.True(t, got.Legs[1].Strike.Equal(decimal.NewFromInt(615)))
	require.NotNil(t, got.NetCredit)
	assert.True(t, got.NetCredit.Equal(credit))
}

func TestClosedIsTerminal(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertPosition(ctx, testPosition("p1", types.StrategyIVMeanReversion)))
	require.NoError(t, s.UpdatePositionStatus(ctx, "p1", types.PositionStatusClosed, "50% profit target", time.Now().UTC()))

	// Second transition must be refused, not silently reapplied.
	err := s.UpdatePositionStatus(ctx, "p1", types.PositionStatusClosed, "stop loss", time.Now().UTC())
	assert.ErrorIs(t, err, ErrPositionClosed)

	got, found, err := s.GetPosition(ctx, "p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.PositionStatusClosed, got.Status)
	assert.Equal(t, "50% profit target", got.ExitReason)
	require.NotNil(t, got.ClosedAt)

	open, err := s.ListOpenPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestUpdateUnknownPosition(t *testing.T) {
	s := openTestStore(t)
	err := s.UpdatePositionStatus(context.Background(), "missing", types.PositionStatusClosed, "x", time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRefreshPrice(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertPosition(ctx, testPosition("p1", types.StrategyIVMeanReversion)))
	require.NoError(t, s.RefreshPrice(ctx, "p1", decimal.NewFromFloat(2.60), decimal.NewFromInt(120)))

	got, _, err := s.GetPosition(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got.CurrentPrice)
	assert.True(t, got.CurrentPrice.Equal(decimal.NewFromFloat(2.60)))
	require.NotNil(t, got.UnrealizedPnL)
	assert.True(t, got.UnrealizedPnL.Equal(decimal.NewFromInt(120)))
}

func TestGetStatsFromClosedPositions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Two wins of $100 and $200, one loss of $50.
	closeWithPnL := func(id string, pnl float64) {
		require.NoError(t, s.InsertPosition(ctx, testPosition(id, types.StrategyIronCondor)))
		require.NoError(t, s.RefreshPrice(ctx, id, decimal.NewFromFloat(2.00), decimal.NewFromFloat(pnl)))
		require.NoError(t, s.UpdatePositionStatus(ctx, id, types.PositionStatusClosed, "test close", time.Now().UTC()))
	}
	closeWithPnL("w1", 100)
	closeWithPnL("w2", 200)
	closeWithPnL("l1", -50)

	// Still-open positions must not count.
	require.NoError(t, s.InsertPosition(ctx, testPosition("open1", types.StrategyIronCondor)))

	stats, err := s.GetStats(ctx, types.StrategyIronCondor)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.SampleSize)
	assert.InDelta(t, 2.0/3.0, stats.WinRate, 1e-9)
	assert.True(t, stats.AvgWin.Equal(decimal.NewFromInt(150)), "avg win %s", stats.AvgWin)
	assert.True(t, stats.AvgLoss.Equal(decimal.NewFromInt(50)), "avg loss %s", stats.AvgLoss)
}

func TestGetStatsEmpty(t *testing.T) {
	s := openTestStore(t)
	stats, err := s.GetStats(context.Background(), types.StrategyMomentumScalping)
	require.NoError(t, err)
	assert.Zero(t, stats.SampleSize)
}
