// Package scan generates trade signals from intraday price action: the
// 0DTE momentum scanner and the opening-range breakout tracker. Both emit
// candidates only; sizing and approval stay with the risk manager.
package scan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one intraday OHLCV candle. Indicator math runs on float64; prices
// are converted to decimal only at the signal boundary.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// BarSource supplies intraday candles for a symbol.
type BarSource interface {
	// GetBars returns the most recent limit bars, oldest first.
	GetBars(ctx context.Context, symbol string, limit int) ([]Bar, error)
	// GetBarsBetween returns the bars inside [start, end], oldest first.
	GetBarsBetween(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
}

func closesOf(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// vwap is the volume-weighted average of typical prices across the session
// bars seen so far.
func vwap(bars []Bar) float64 {
	var pvSum, volSum float64
	for _, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		pvSum += typical * float64(b.Volume)
		volSum += float64(b.Volume)
	}
	if volSum == 0 {
		return 0
	}
	return pvSum / volSum
}

// relativeVolume compares the last bar's volume against the average of the
// bars before it.
func relativeVolume(bars []Bar) float64 {
	if len(bars) < 2 {
		return 0
	}
	var sum float64
	for _, b := range bars[:len(bars)-1] {
		sum += float64(b.Volume)
	}
	avg := sum / float64(len(bars)-1)
	if avg == 0 {
		return 0
	}
	return float64(bars[len(bars)-1].Volume) / avg
}

func priceDec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
