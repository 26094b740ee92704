package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"condor/internal/types"
)

// positionModel is the sqlite row for a tracked position. Money columns are
// TEXT-backed decimals; legs are stored as a JSON blob since they are only
// ever read back whole.
type positionModel struct {
	ID            string           `gorm:"column:id;primaryKey"`
	Symbol        string           `gorm:"column:symbol;index"`
	Strategy      string           `gorm:"column:strategy;index"`
	Kind          string           `gorm:"column:kind"`
	Quantity      int              `gorm:"column:quantity"`
	EntryPrice    decimal.Decimal  `gorm:"column:entry_price;type:TEXT"`
	CurrentPrice  *decimal.Decimal `gorm:"column:current_price;type:TEXT"`
	UnrealizedPnL *decimal.Decimal `gorm:"column:unrealized_pnl;type:TEXT"`
	RealizedPnL   *decimal.Decimal `gorm:"column:realized_pnl;type:TEXT"`
	Status        int              `gorm:"column:status;index"`
	ExitReason    string           `gorm:"column:exit_reason"`
	Legs          datatypes.JSON   `gorm:"column:legs;type:TEXT"`
	NetCredit     *decimal.Decimal `gorm:"column:net_credit;type:TEXT"`
	MaxLoss       *decimal.Decimal `gorm:"column:max_loss;type:TEXT"`
	RangeHigh     *decimal.Decimal `gorm:"column:range_high;type:TEXT"`
	RangeLow      *decimal.Decimal `gorm:"column:range_low;type:TEXT"`
	TargetPrice   *decimal.Decimal `gorm:"column:target_price;type:TEXT"`
	Direction     string           `gorm:"column:direction"`
	OpenedAtUnix  int64            `gorm:"column:opened_at"`
	ClosedAtUnix  *int64           `gorm:"column:closed_at"`
}

func (positionModel) TableName() string { return "positions" }

func newPositionModel(pos *types.Position) (positionModel, error) {
	legs, err := json.Marshal(pos.Legs)
	if err != nil {
		return positionModel{}, fmt.Errorf("encode legs: %w", err)
	}
	model := positionModel{
		ID:            pos.ID,
		Symbol:        pos.Symbol,
		Strategy:      string(pos.Strategy),
		Kind:          string(pos.Kind),
		Quantity:      pos.Quantity,
		EntryPrice:    pos.EntryPrice,
		CurrentPrice:  pos.CurrentPrice,
		UnrealizedPnL: pos.UnrealizedPnL,
		Status:        int(pos.Status),
		ExitReason:    pos.ExitReason,
		Legs:          datatypes.JSON(legs),
		NetCredit:     pos.NetCredit,
		MaxLoss:       pos.MaxLoss,
		RangeHigh:     pos.RangeHigh,
		RangeLow:      pos.RangeLow,
		TargetPrice:   pos.TargetPrice,
		Direction:     string(pos.Direction),
		OpenedAtUnix:  pos.OpenedAt.Unix(),
	}
	if pos.ClosedAt != nil && !pos.ClosedAt.IsZero() {
		ts := pos.ClosedAt.Unix()
		model.ClosedAtUnix = &ts
	}
	return model, nil
}

func positionModelToRecord(m positionModel) (*types.Position, error) {
	var legs []types.LegSnapshot
	if len(m.Legs) > 0 {
		if err := json.Unmarshal(m.Legs, &legs); err != nil {
			return nil, fmt.Errorf("decode legs of %s: %w", m.ID, err)
		}
	}
	pos := &types.Position{
		ID:            m.ID,
		Symbol:        m.Symbol,
		Strategy:      types.Strategy(m.Strategy),
		Kind:          types.PositionKind(m.Kind),
		Quantity:      m.Quantity,
		EntryPrice:    m.EntryPrice,
		CurrentPrice:  m.CurrentPrice,
		UnrealizedPnL: m.UnrealizedPnL,
		Status:        types.PositionStatus(m.Status),
		ExitReason:    m.ExitReason,
		Legs:          legs,
		NetCredit:     m.NetCredit,
		MaxLoss:       m.MaxLoss,
		RangeHigh:     m.RangeHigh,
		RangeLow:      m.RangeLow,
		TargetPrice:   m.TargetPrice,
		Direction:     types.Direction(m.Direction),
		OpenedAt:      time.Unix(m.OpenedAtUnix, 0).UTC(),
	}
	if m.ClosedAtUnix != nil && *m.ClosedAtUnix > 0 {
		ts := time.Unix(*m.ClosedAtUnix, 0).UTC()
		pos.ClosedAt = &ts
	}
	return pos, nil
}
