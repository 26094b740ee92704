// Package broker defines the engine's boundary to the outside world: quote
// data, order execution and position persistence are consumed through these
// interfaces, never through ambient clients.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"condor/internal/types"
)

// ErrQuoteUnavailable marks a missing quote. The monitor treats it as
// retryable: the affected position is skipped this cycle and re-evaluated on
// the next one.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// QuoteSource supplies the latest quote for a stock or option symbol.
type QuoteSource interface {
	GetLatestQuote(ctx context.Context, symbol string) (types.OptionQuote, error)
}

// ChainSource supplies an option chain snapshot for one underlying and
// expiry, greeks included.
type ChainSource interface {
	GetOptionChain(ctx context.Context, underlying string, expiry time.Time) ([]types.OptionQuote, error)
}

// OrderExecutor submits orders to the broker. Multi-leg submission is
// all-or-nothing: either every leg fills or the call errors. A broker that
// filled a strict subset reports *PartialFillError so the caller can surface
// the unhedged legs instead of silently retrying.
type OrderExecutor interface {
	SubmitMultiLeg(ctx context.Context, order types.MultiLegOrder) (types.OrderResult, error)
	ClosePosition(ctx context.Context, pos *types.Position) error
}

// PositionStore is the persistence boundary for the monitor's
// read-decide-act cycle.
type PositionStore interface {
	ListOpenPositions(ctx context.Context) ([]*types.Position, error)
	UpdatePositionStatus(ctx context.Context, id string, status types.PositionStatus, exitReason string, closedAt time.Time) error
}

// AccountSource supplies a fresh portfolio snapshot. Risk approval always
// runs against current broker state, never a cached copy.
type AccountSource interface {
	GetPortfolioSnapshot(ctx context.Context) (types.PortfolioSnapshot, error)
}

// StatsSource supplies per-strategy historical performance for Kelly sizing.
type StatsSource interface {
	GetStats(ctx context.Context, strategy types.Strategy) (types.StrategyStats, error)
}

// PartialFillError reports a multi-leg order where only some legs filled.
// The position is left partially hedged; the engine logs and surfaces it but
// never auto-unwinds.
type PartialFillError struct {
	BrokerOrderID string
	FilledLegs    int
	TotalLegs     int
}

func (e *PartialFillError) Error() string {
	return fmt.Sprintf("partial multi-leg fill: %d/%d legs (broker order %s)", e.FilledLegs, e.TotalLegs, e.BrokerOrderID)
}
