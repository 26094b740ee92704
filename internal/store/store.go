// Package store persists positions in sqlite via gorm. It is the engine's
// only durable state; everything else is rebuilt from quotes each cycle.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"condor/internal/gateway/broker"
	"condor/internal/types"
)

// ErrPositionClosed is returned when a status update targets a position that
// has already reached its terminal state. Closed positions never reopen.
var ErrPositionClosed = errors.New("position already closed")

type Store struct {
	db *gorm.DB
}

var (
	_ broker.PositionStore = (*Store)(nil)
	_ broker.StatsSource   = (*Store)(nil)
)

// Open opens (creating if needed) the sqlite database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&positionModel{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: keep lock contention low while allowing concurrent
	// HTTP reads alongside the monitor loop.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InsertPosition records a freshly filled position.
func (s *Store) InsertPosition(ctx context.Context, pos *types.Position) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	if err := pos.Validate(); err != nil {
		return err
	}
	if pos.Status == types.PositionStatusUnknown {
		pos.Status = types.PositionStatusOpen
	}
	if pos.OpenedAt.IsZero() {
		pos.OpenedAt = time.Now().UTC()
	}
	model, err := newPositionModel(pos)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// GetPosition loads one position by id.
func (s *Store) GetPosition(ctx context.Context, id string) (*types.Position, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("store not initialized")
	}
	var model positionModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	pos, err := positionModelToRecord(model)
	if err != nil {
		return nil, false, err
	}
	return pos, true, nil
}

// ListOpenPositions returns every open position, oldest first so long-held
// positions are evaluated before fresh ones each monitor cycle.
func (s *Store) ListOpenPositions(ctx context.Context) ([]*types.Position, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	var models []positionModel
	if err := s.db.WithContext(ctx).
		Where("status = ?", int(types.PositionStatusOpen)).
		Order("opened_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*types.Position, 0, len(models))
	for _, m := range models {
		pos, err := positionModelToRecord(m)
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, nil
}

// UpdatePositionStatus transitions a position out of Open. The WHERE clause
// guards the terminal state: an already-closed row is never touched, and the
// last unrealized P&L is frozen into realized_pnl for strategy stats.
func (s *Store) UpdatePositionStatus(ctx context.Context, id string, status types.PositionStatus, exitReason string, closedAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	payload := map[string]interface{}{
		"status":       int(status),
		"exit_reason":  exitReason,
		"closed_at":    closedAt.Unix(),
		"realized_pnl": gorm.Expr("unrealized_pnl"),
	}
	res := s.db.WithContext(ctx).Model(&positionModel{}).
		Where("id = ? AND status = ?", id, int(types.PositionStatusOpen)).
		Updates(payload)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&positionModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("position %s: %w", id, ErrPositionClosed)
		}
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RefreshPrice updates the mark and unrealized P&L of an open position.
func (s *Store) RefreshPrice(ctx context.Context, id string, current, unrealized decimal.Decimal) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	res := s.db.WithContext(ctx).Model(&positionModel{}).
		Where("id = ? AND status = ?", id, int(types.PositionStatusOpen)).
		Updates(map[string]interface{}{
			"current_price":  current,
			"unrealized_pnl": unrealized,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetStats derives a strategy's historical performance from its closed
// positions. Win rate and averages come from realized P&L; callers decide
// what to do with thin samples.
func (s *Store) GetStats(ctx context.Context, strategy types.Strategy) (types.StrategyStats, error) {
	if s == nil || s.db == nil {
		return types.StrategyStats{}, fmt.Errorf("store not initialized")
	}
	var models []positionModel
	if err := s.db.WithContext(ctx).
		Where("strategy = ? AND status = ?", string(strategy), int(types.PositionStatusClosed)).
		Find(&models).Error; err != nil {
		return types.StrategyStats{}, err
	}

	stats := types.StrategyStats{Strategy: strategy}
	var wins, losses int
	winSum, lossSum := decimal.Zero, decimal.Zero
	for _, m := range models {
		if m.RealizedPnL == nil {
			continue
		}
		pnl := *m.RealizedPnL
		stats.SampleSize++
		if pnl.IsPositive() {
			wins++
			winSum = winSum.Add(pnl)
		} else {
			losses++
			lossSum = lossSum.Add(pnl.Abs())
		}
	}
	if stats.SampleSize > 0 {
		stats.WinRate = float64(wins) / float64(stats.SampleSize)
	}
	if wins > 0 {
		stats.AvgWin = winSum.Div(decimal.NewFromInt(int64(wins)))
	}
	if losses > 0 {
		stats.AvgLoss = lossSum.Div(decimal.NewFromInt(int64(losses)))
	}
	return stats, nil
}
