package exits

import (
	"context"
	"fmt"

	"condor/internal/gateway/broker"
	"condor/internal/marketclock"
	"condor/internal/types"
)

// Momentum scalps trade the underlying itself, so profit and stop are
// measured on the stock price, and the position is strictly time-boxed:
// everything is flat by 11:30 exchange-local to stay out of the midday
// chop, with 15:50 as the absolute backstop.
const (
	momentumProfitTarget = 0.50
	momentumStopLoss     = -0.50
)

const (
	ReasonDecayWindow = "11:30 time stop"
	ReasonFinalClose  = "15:50 final close"
)

type Momentum struct {
	Quotes broker.QuoteSource
	Clock  *marketclock.Clock
}

func (e *Momentum) Evaluate(ctx context.Context, pos *types.Position) (string, error) {
	if e.Clock.AtOrAfter(15, 50) {
		return ReasonFinalClose, nil
	}
	if e.Clock.AtOrAfter(11, 30) {
		return ReasonDecayWindow, nil
	}

	quote, err := e.Quotes.GetLatestQuote(ctx, pos.Symbol)
	if err != nil {
		return "", fmt.Errorf("momentum %s: %w", pos.ID, err)
	}
	pnl := signedMove(pos.EntryPrice, quote.Mid(), pos.Kind == types.KindShort)
	if fracGTE(pnl, momentumProfitTarget) {
		return ReasonProfitTarget, nil
	}
	if fracLTE(pnl, momentumStopLoss) {
		return ReasonStopLoss, nil
	}
	return "", nil
}
