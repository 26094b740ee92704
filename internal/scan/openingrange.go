package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"condor/internal/logger"
	"condor/internal/marketclock"
	"condor/internal/types"
)

// Opening-range parameters.
const (
	rangeDuration = 60 * time.Minute
	// breakoutBuffer filters false breaks: the close must clear the range
	// boundary by 0.15%.
	breakoutBuffer = 0.0015
	// orbVolumeFactor is the breakout candle's required volume vs the
	// opening-range average.
	orbVolumeFactor = 1.5
	targetMultiple  = 1.5
	recentBarCount  = 20
)

// OpeningRange is one symbol's range for the current trading day.
type OpeningRange struct {
	ID        string
	Symbol    string
	TradeDate string
	High      float64
	Low       float64
	// WidthPct is (high-low)/low as a percentage of the low.
	WidthPct  float64
	AvgVolume float64
	Complete  bool
}

// BreakoutSignal carries the range metadata the exit evaluator needs beyond
// the plain trade signal: the boundaries for the re-entry check and the
// projected target.
type BreakoutSignal struct {
	types.TradeSignal
	Direction   types.Direction
	RangeHigh   decimal.Decimal
	RangeLow    decimal.Decimal
	TargetPrice decimal.Decimal
	VolumeRatio float64
	RSI         float64
}

// OpeningRangeTracker builds each symbol's 9:30-10:30 range and, once the
// range is complete, scans for confirmed breakouts. State resets per trading
// day.
type OpeningRangeTracker struct {
	bars    BarSource
	clock   *marketclock.Clock
	symbols []string
	ranges  map[string]*OpeningRange
}

func NewOpeningRangeTracker(bars BarSource, clock *marketclock.Clock, symbols []string) *OpeningRangeTracker {
	if len(symbols) == 0 {
		symbols = []string{"SPY", "QQQ", "IWM"}
	}
	return &OpeningRangeTracker{
		bars:    bars,
		clock:   clock,
		symbols: symbols,
		ranges:  make(map[string]*OpeningRange),
	}
}

// Ranges returns the tracked ranges keyed by symbol.
func (t *OpeningRangeTracker) Ranges() map[string]*OpeningRange {
	return t.ranges
}

// UpdateRanges accumulates opening bars into each symbol's range and marks
// ranges complete once the window has elapsed. Safe to call every cycle.
func (t *OpeningRangeTracker) UpdateRanges(ctx context.Context) {
	now := t.clock.Now()
	tradeDate := now.Format("2006-01-02")
	open := t.clock.At(9, 30)
	rangeEnd := open.Add(rangeDuration)

	if now.Before(open) || !t.clock.IsTradingDay(now) {
		return
	}

	for _, sym := range t.symbols {
		r := t.ranges[sym]
		if r == nil || r.TradeDate != tradeDate {
			r = &OpeningRange{ID: uuid.NewString(), Symbol: sym, TradeDate: tradeDate}
			t.ranges[sym] = r
		}
		if r.Complete {
			continue
		}

		until := now
		if until.After(rangeEnd) {
			until = rangeEnd
		}
		bars, err := t.bars.GetBarsBetween(ctx, sym, open, until)
		if err != nil {
			logger.Warnf("opening range %s: %v", sym, err)
			continue
		}
		if len(bars) == 0 {
			continue
		}

		r.High, r.Low = bars[0].High, bars[0].Low
		var volSum float64
		for _, b := range bars {
			if b.High > r.High {
				r.High = b.High
			}
			if b.Low < r.Low {
				r.Low = b.Low
			}
			volSum += float64(b.Volume)
		}
		if r.Low > 0 {
			r.WidthPct = (r.High - r.Low) / r.Low * 100
		}
		r.AvgVolume = volSum / float64(len(bars))

		if !now.Before(rangeEnd) {
			r.Complete = true
			logger.Infof("opening range complete: %s %.2f-%.2f (%.2f%%)", sym, r.Low, r.High, r.WidthPct)
		}
	}
}

// ScanBreakouts checks each completed range for a confirmed break. The entry
// window runs from range completion until 14:00; later breakouts leave too
// little session for the trade to work.
func (t *OpeningRangeTracker) ScanBreakouts(ctx context.Context) []BreakoutSignal {
	if !t.clock.Within(10, 30, 14, 0) {
		return nil
	}
	var signals []BreakoutSignal
	for _, sym := range t.symbols {
		sig, err := t.checkBreakout(ctx, sym)
		if err != nil {
			logger.Warnf("breakout scan %s: %v", sym, err)
			continue
		}
		if sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals
}

func (t *OpeningRangeTracker) checkBreakout(ctx context.Context, sym string) (*BreakoutSignal, error) {
	r := t.ranges[sym]
	if r == nil || !r.Complete {
		return nil, nil
	}

	bars, err := t.bars.GetBars(ctx, sym, recentBarCount)
	if err != nil {
		return nil, err
	}
	if len(bars) <= rsiPeriod {
		return nil, nil
	}

	last := bars[len(bars)-1]
	price := last.Close

	var direction types.Direction
	switch {
	case price > r.High*(1+breakoutBuffer):
		direction = types.DirectionBullish
	case price < r.Low*(1-breakoutBuffer):
		direction = types.DirectionBearish
	default:
		return nil, nil
	}

	volRatio := 0.0
	if r.AvgVolume > 0 {
		volRatio = float64(last.Volume) / r.AvgVolume
	}
	if volRatio < orbVolumeFactor {
		return nil, nil
	}

	closes := closesOf(bars)
	rsi := talib.Rsi(closes, rsiPeriod)
	lastRSI := rsi[len(rsi)-1]
	if direction == types.DirectionBullish && lastRSI <= 50 {
		return nil, nil
	}
	if direction == types.DirectionBearish && lastRSI >= 50 {
		return nil, nil
	}

	// Target projects the range width x 1.5 beyond the broken boundary;
	// the boundary itself is the stop.
	widthFrac := r.WidthPct / 100 * targetMultiple
	var target, stop float64
	var side types.Side
	if direction == types.DirectionBullish {
		target = r.High * (1 + widthFrac)
		stop = r.High
		side = types.SideBuy
	} else {
		target = r.Low * (1 - widthFrac)
		stop = r.Low
		side = types.SideSell
	}

	confidence := 0.75 + 0.10 // base win rate plus the mandatory RSI alignment
	if volRatio >= 2.0 {
		confidence += 0.05
	}
	if confidence > 0.95 {
		confidence = 0.95
	}

	sig := &BreakoutSignal{
		TradeSignal: types.TradeSignal{
			ID:         uuid.NewString(),
			Symbol:     sym,
			Direction:  side,
			Strategy:   types.StrategyOpeningRangeBreakout,
			Confidence: confidence,
			EntryPrice: priceDec(price),
			StopLoss:   priceDec(stop),
			TakeProfit: priceDec(target),
			Reasoning: fmt.Sprintf("%s break of %.2f-%.2f range (%.2f%% width), %.1fx volume, RSI %.1f",
				direction, r.Low, r.High, r.WidthPct, volRatio, lastRSI),
		},
		Direction:   direction,
		RangeHigh:   priceDec(r.High),
		RangeLow:    priceDec(r.Low),
		TargetPrice: priceDec(target),
		VolumeRatio: volRatio,
		RSI:         lastRSI,
	}
	logger.Infof("breakout signal: %s %s conf=%.2f", sym, direction, confidence)
	return sig, nil
}
