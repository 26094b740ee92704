package exits

import (
	"context"
	"fmt"

	"condor/internal/gateway/broker"
	"condor/internal/marketclock"
	"condor/internal/types"
)

// Opening-range breakout exit thresholds, on the traded option's price.
const (
	orbProfitTarget = 0.50
	orbStopLoss     = -0.40
)

const (
	ReasonRangeReentry  = "price re-entered opening range"
	ReasonTargetReached = "target reached"
	ReasonEarlyClose    = "15:00 force close"
)

// OpeningRange evaluates breakout positions against the range recorded at
// entry. The thesis check comes first: a breakout that falls back inside the
// range is wrong regardless of the option's P&L.
type OpeningRange struct {
	Quotes broker.QuoteSource
	Clock  *marketclock.Clock
}

func (e *OpeningRange) Evaluate(ctx context.Context, pos *types.Position) (string, error) {
	quote, err := e.Quotes.GetLatestQuote(ctx, pos.Symbol)
	if err != nil {
		return "", fmt.Errorf("opening-range %s: %w", pos.ID, err)
	}
	underlying := quote.UnderlyingPrice
	if underlying.IsZero() {
		// Stock quotes carry the price in bid/ask, not underlying_price.
		underlying = quote.Mid()
	}

	switch pos.Direction {
	case types.DirectionBullish:
		if pos.RangeHigh != nil && underlying.LessThan(*pos.RangeHigh) {
			return ReasonRangeReentry, nil
		}
	case types.DirectionBearish:
		if pos.RangeLow != nil && underlying.GreaterThan(*pos.RangeLow) {
			return ReasonRangeReentry, nil
		}
	}

	pnl := signedMove(pos.EntryPrice, quote.Mid(), pos.Kind == types.KindShort)
	if fracGTE(pnl, orbProfitTarget) {
		return ReasonProfitTarget, nil
	}
	if fracLTE(pnl, orbStopLoss) {
		return ReasonStopLoss, nil
	}

	if pos.TargetPrice != nil {
		switch pos.Direction {
		case types.DirectionBullish:
			if underlying.GreaterThanOrEqual(*pos.TargetPrice) {
				return ReasonTargetReached, nil
			}
		case types.DirectionBearish:
			if underlying.LessThanOrEqual(*pos.TargetPrice) {
				return ReasonTargetReached, nil
			}
		}
	}

	// Earlier cutoff than the other 0DTE strategies, to leave execution time.
	if e.Clock.AtOrAfter(15, 0) {
		return ReasonEarlyClose, nil
	}
	return "", nil
}
