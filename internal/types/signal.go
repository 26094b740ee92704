package types

import "github.com/shopspring/decimal"

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OptionType distinguishes calls from puts.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// Direction is the thesis direction of a breakout signal.
type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
)

// TradeSignal is a trade candidate produced by a strategy evaluator and
// consumed by the risk manager. Confidence is within [0,1].
type TradeSignal struct {
	ID         string
	Symbol     string
	Direction  Side
	Strategy   Strategy
	Confidence float64
	EntryPrice decimal.Decimal
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
	Reasoning  string
}

// PortfolioSnapshot is the portfolio state supplied fresh on every approval
// request. The engine never mutates it.
type PortfolioSnapshot struct {
	Balance           decimal.Decimal
	DailyPnL          decimal.Decimal
	WinRate           float64
	ConsecutiveLosses int
	ActivePositions   int
	TotalTrades       int
}

// StrategyStats is the historical performance of a strategy, owned by the
// performance tracker. AvgLoss is stored as a positive magnitude.
type StrategyStats struct {
	Strategy   Strategy
	WinRate    float64
	AvgWin     decimal.Decimal
	AvgLoss    decimal.Decimal
	SampleSize int
}

// RiskDecision is the immutable outcome of a risk approval. Rejections are
// ordinary values carrying a human-readable reason, never errors.
type RiskDecision struct {
	Approved     bool            `json:"approved"`
	PositionSize int             `json:"position_size"`
	MaxLoss      decimal.Decimal `json:"max_loss"`
	Reasoning    string          `json:"reasoning"`
}
