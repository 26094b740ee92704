package scan

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/markcheno/go-talib"

	"condor/internal/logger"
	"condor/internal/marketclock"
	"condor/internal/types"
)

// Momentum scanner parameters. All six conditions must hold; partial setups
// are whipsaws and are dropped without a signal.
const (
	emaFastPeriod     = 9
	emaSlowPeriod     = 21
	rsiPeriod         = 14
	momentumMinBars   = 30
	volumeSpikeFactor = 2.0
)

// MomentumScanner looks for 0DTE momentum entries on index ETFs: an EMA 9/21
// cross confirmed by RSI, a 2x volume spike, the VWAP side, and the
// 9:31-11:30 entry window.
type MomentumScanner struct {
	bars    BarSource
	clock   *marketclock.Clock
	symbols []string
}

func NewMomentumScanner(bars BarSource, clock *marketclock.Clock, symbols []string) *MomentumScanner {
	if len(symbols) == 0 {
		symbols = []string{"SPY", "QQQ"}
	}
	return &MomentumScanner{bars: bars, clock: clock, symbols: symbols}
}

// Scan evaluates every tracked symbol once. A symbol that errors is skipped;
// the remaining symbols are still scanned.
func (s *MomentumScanner) Scan(ctx context.Context) []types.TradeSignal {
	if !s.clock.Within(9, 31, 11, 30) {
		return nil
	}
	var signals []types.TradeSignal
	for _, sym := range s.symbols {
		sig, err := s.scanSymbol(ctx, sym)
		if err != nil {
			logger.Warnf("momentum scan %s: %v", sym, err)
			continue
		}
		if sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals
}

func (s *MomentumScanner) scanSymbol(ctx context.Context, sym string) (*types.TradeSignal, error) {
	bars, err := s.bars.GetBars(ctx, sym, momentumMinBars)
	if err != nil {
		return nil, err
	}
	if len(bars) < momentumMinBars {
		return nil, nil
	}

	closes := closesOf(bars)
	emaFast := talib.Ema(closes, emaFastPeriod)
	emaSlow := talib.Ema(closes, emaSlowPeriod)
	rsi := talib.Rsi(closes, rsiPeriod)

	last := len(closes) - 1
	cross := detectCross(emaFast[last], emaSlow[last], emaFast[last-1], emaSlow[last-1])
	if cross == types.Direction("") {
		return nil, nil
	}

	// RSI gate: a bullish cross out of oversold (or bearish out of
	// overbought) is exhaustion, not momentum.
	r := rsi[last]
	if cross == types.DirectionBullish && r <= 30 {
		return nil, nil
	}
	if cross == types.DirectionBearish && r >= 70 {
		return nil, nil
	}

	relVol := relativeVolume(bars)
	if relVol < volumeSpikeFactor {
		return nil, nil
	}

	price := closes[last]
	sessionVWAP := vwap(bars)
	if cross == types.DirectionBullish && price <= sessionVWAP {
		return nil, nil
	}
	if cross == types.DirectionBearish && price >= sessionVWAP {
		return nil, nil
	}

	side := types.SideBuy
	stopFactor, targetFactor := 0.50, 1.50
	if cross == types.DirectionBearish {
		side = types.SideSell
		stopFactor, targetFactor = 1.50, 0.50
	}

	sig := &types.TradeSignal{
		ID:         uuid.NewString(),
		Symbol:     sym,
		Direction:  side,
		Strategy:   types.StrategyMomentumScalping,
		Confidence: momentumConfidence(relVol),
		EntryPrice: priceDec(price),
		StopLoss:   priceDec(price * stopFactor),
		TakeProfit: priceDec(price * targetFactor),
		Reasoning: fmt.Sprintf("%s EMA%d/%d cross, RSI %.1f, %.1fx volume, price %s VWAP %.2f",
			cross, emaFastPeriod, emaSlowPeriod, r, relVol, vwapSide(cross), sessionVWAP),
	}
	logger.Infof("momentum signal: %s %s conf=%.2f", sym, side, sig.Confidence)
	return sig, nil
}

// detectCross reports a cross that happened on the latest bar only: fast on
// the far side now, and not on that side one bar ago.
func detectCross(fast, slow, prevFast, prevSlow float64) types.Direction {
	switch {
	case fast > slow && prevFast <= prevSlow:
		return types.DirectionBullish
	case fast < slow && prevFast >= prevSlow:
		return types.DirectionBearish
	default:
		return ""
	}
}

func momentumConfidence(relVol float64) float64 {
	conf := 0.70
	if relVol >= 3.0 {
		conf += 0.10
	}
	return conf
}

func vwapSide(d types.Direction) string {
	if d == types.DirectionBearish {
		return "below"
	}
	return "above"
}
