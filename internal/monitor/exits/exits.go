// Package exits holds the per-strategy exit evaluators dispatched by the
// position monitor. An evaluator answers one question: should this open
// position be closed right now, and why.
package exits

import (
	"context"

	"condor/internal/gateway/broker"
	"condor/internal/marketclock"
	"condor/internal/types"
)

// Evaluator decides whether a position should exit. An empty reason means
// hold. Errors are retryable: the monitor skips the position this cycle and
// re-evaluates on the next one.
type Evaluator interface {
	Evaluate(ctx context.Context, pos *types.Position) (reason string, err error)
}

// Registry maps strategies to their evaluators. Unknown strategies fall back
// to the single-leg default.
type Registry struct {
	byStrategy map[types.Strategy]Evaluator
	fallback   Evaluator
}

// NewRegistry wires the four known strategies plus the single-leg default.
func NewRegistry(quotes broker.QuoteSource, clock *marketclock.Clock, earnings marketclock.EarningsSource) *Registry {
	singleLeg := &SingleLeg{Quotes: quotes, Earnings: earnings}
	return &Registry{
		byStrategy: map[types.Strategy]Evaluator{
			types.StrategyIronCondor:           &IronCondor{Quotes: quotes, Clock: clock},
			types.StrategyMomentumScalping:     &Momentum{Quotes: quotes, Clock: clock},
			types.StrategyOpeningRangeBreakout: &OpeningRange{Quotes: quotes, Clock: clock},
			types.StrategyIVMeanReversion:      singleLeg,
		},
		fallback: singleLeg,
	}
}

// ForStrategy returns the evaluator for the strategy.
func (r *Registry) ForStrategy(s types.Strategy) Evaluator {
	if ev, ok := r.byStrategy[s]; ok {
		return ev
	}
	return r.fallback
}
