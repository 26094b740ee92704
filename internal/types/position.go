package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus follows the teacher's integer status convention so it maps
// directly onto the sqlite column.
type PositionStatus int

const (
	PositionStatusUnknown PositionStatus = 0
	PositionStatusOpen    PositionStatus = 1
	PositionStatusClosed  PositionStatus = 2
)

func (s PositionStatus) String() string {
	switch s {
	case PositionStatusOpen:
		return "open"
	case PositionStatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PositionKind classifies the position shape.
type PositionKind string

const (
	KindLong   PositionKind = "long"
	KindShort  PositionKind = "short"
	KindSpread PositionKind = "spread"
)

// LegSnapshot is one leg of a multi-leg position as recorded at fill time.
type LegSnapshot struct {
	Symbol     string           `json:"symbol"`
	Side       Side             `json:"side"`
	OptionType OptionType       `json:"option_type"`
	Strike     decimal.Decimal  `json:"strike"`
	Quantity   int              `json:"quantity"`
	EntryPrice *decimal.Decimal `json:"entry_price,omitempty"`
}

// Position is a filled trade tracked through its lifecycle. It is created by
// execution, price fields are refreshed by external jobs, and only the
// monitor moves it to Closed. Closed is terminal.
type Position struct {
	ID            string
	Symbol        string
	Strategy      Strategy
	Kind          PositionKind
	Quantity      int
	EntryPrice    decimal.Decimal
	CurrentPrice  *decimal.Decimal
	UnrealizedPnL *decimal.Decimal
	OpenedAt      time.Time
	ClosedAt      *time.Time
	ExitReason    string
	Status        PositionStatus
	Legs          []LegSnapshot
	NetCredit     *decimal.Decimal
	MaxLoss       *decimal.Decimal

	// Breakout metadata, recorded at entry for opening-range positions so
	// the exit evaluator can test range re-entry and targets.
	RangeHigh   *decimal.Decimal
	RangeLow    *decimal.Decimal
	TargetPrice *decimal.Decimal
	Direction   Direction
}

// Open reports whether the position is still live.
func (p *Position) Open() bool {
	return p != nil && p.Status == PositionStatusOpen
}

// PnLPct returns the fractional move of CurrentPrice against EntryPrice,
// signed by position kind: shorts profit when price falls. Returns false when
// either price is missing or the entry is zero.
func (p *Position) PnLPct() (float64, bool) {
	if p == nil || p.CurrentPrice == nil || p.EntryPrice.IsZero() {
		return 0, false
	}
	move := p.CurrentPrice.Sub(p.EntryPrice).Div(p.EntryPrice)
	if p.Kind == KindShort {
		move = move.Neg()
	}
	f, _ := move.Float64()
	return f, true
}

// ShortStrikes returns the short call and short put strikes of a spread
// position, when present.
func (p *Position) ShortStrikes() (call, put *decimal.Decimal) {
	if p == nil {
		return nil, nil
	}
	for i := range p.Legs {
		leg := p.Legs[i]
		if leg.Side != SideSell {
			continue
		}
		switch leg.OptionType {
		case OptionCall:
			s := leg.Strike
			call = &s
		case OptionPut:
			s := leg.Strike
			put = &s
		}
	}
	return call, put
}

// Validate checks the structural invariants of a position record.
func (p *Position) Validate() error {
	if p == nil {
		return fmt.Errorf("nil position")
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("position %s: quantity %d must be positive", p.ID, p.Quantity)
	}
	if p.Status == PositionStatusClosed && p.ClosedAt == nil {
		return fmt.Errorf("position %s: closed without close timestamp", p.ID)
	}
	if p.Kind == KindSpread && len(p.Legs) < 2 {
		return fmt.Errorf("position %s: spread with %d legs", p.ID, len(p.Legs))
	}
	return nil
}
