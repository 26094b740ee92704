package exits

import (
	"context"
	"fmt"

	"condor/internal/gateway/broker"
	"condor/internal/marketclock"
	"condor/internal/pkg/symbol"
	"condor/internal/types"
)

// Exit thresholds for single-leg option positions.
const (
	singleLegProfitTarget = 0.50
	singleLegStopLoss     = -0.75
	nearExpiryDays        = 21
)

const (
	ReasonProfitTarget     = "50% profit target"
	ReasonStopLoss         = "stop loss"
	ReasonNearExpiry       = "21 days to expiry"
	ReasonEarningsBlackout = "earnings blackout"
)

// SingleLeg is the default evaluator for one-legged option positions
// (IV mean reversion and any strategy without a dedicated evaluator):
// +50% profit, -75% stop, 21-DTE cutoff, earnings blackout.
type SingleLeg struct {
	Quotes   broker.QuoteSource
	Earnings marketclock.EarningsSource
}

func (e *SingleLeg) Evaluate(ctx context.Context, pos *types.Position) (string, error) {
	quote, err := e.Quotes.GetLatestQuote(ctx, pos.Symbol)
	if err != nil {
		return "", fmt.Errorf("single-leg %s: %w", pos.ID, err)
	}

	pnl := signedMove(pos.EntryPrice, quote.Mid(), pos.Kind == types.KindShort)
	if fracGTE(pnl, singleLegProfitTarget) {
		return ReasonProfitTarget, nil
	}
	if fracLTE(pnl, singleLegStopLoss) {
		return ReasonStopLoss, nil
	}
	if quote.Expiry.IsZero() {
		// Sparse quote payloads omit expiry; recover it from the contract symbol.
		if c, err := symbol.ParseOCC(pos.Symbol); err == nil {
			quote.Expiry = c.Expiry
		}
	}
	if !quote.Expiry.IsZero() && quote.DaysToExpiry() <= nearExpiryDays {
		return ReasonNearExpiry, nil
	}

	if e.Earnings != nil {
		blackout, err := e.Earnings.IsEarningsBlackout(ctx, symbol.Underlying(pos.Symbol))
		if err != nil {
			return "", fmt.Errorf("single-leg %s: earnings check: %w", pos.ID, err)
		}
		if blackout {
			return ReasonEarningsBlackout, nil
		}
	}
	return "", nil
}
