// Package monitor runs the position lifecycle loop: every cycle it fetches
// the open positions, asks the strategy's exit evaluator whether each should
// close, and executes the closes it is told to.
package monitor

import (
	"context"
	"time"

	"condor/internal/gateway/broker"
	"condor/internal/logger"
	"condor/internal/monitor/exits"
	"condor/internal/types"
)

const defaultInterval = 60 * time.Second

// Monitor owns the Open -> Closed transition. Positions are evaluated
// sequentially within a cycle so two close attempts can never race on the
// same position; the position list is re-fetched fresh every cycle.
type Monitor struct {
	store    broker.PositionStore
	exec     broker.OrderExecutor
	registry *exits.Registry
	interval time.Duration
	nowFn    func() time.Time
}

func New(store broker.PositionStore, exec broker.OrderExecutor, registry *exits.Registry, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Monitor{
		store:    store,
		exec:     exec,
		registry: registry,
		interval: interval,
		nowFn:    time.Now,
	}
}

// WithNow overrides the close-timestamp source. Test hook.
func (m *Monitor) WithNow(fn func() time.Time) *Monitor {
	if m != nil && fn != nil {
		m.nowFn = fn
	}
	return m
}

// Run loops until the context is cancelled. Cancellation takes effect at the
// sleep boundary: a cycle already in progress finishes, so a close that has
// started is never abandoned midway.
func (m *Monitor) Run(ctx context.Context) error {
	logger.Infof("monitor: started, interval %s", m.interval)
	for {
		m.Cycle(ctx)
		select {
		case <-ctx.Done():
			logger.Infof("monitor: stopped")
			return ctx.Err()
		case <-time.After(m.interval):
		}
	}
}

// Cycle evaluates every open position once. A failure on one position is
// logged and must not stop the others from being evaluated.
func (m *Monitor) Cycle(ctx context.Context) {
	positions, err := m.store.ListOpenPositions(ctx)
	if err != nil {
		logger.Errorf("monitor: list open positions: %v", err)
		return
	}
	for _, pos := range positions {
		if !pos.Open() {
			continue
		}
		if err := m.evaluateOne(ctx, pos); err != nil {
			logger.Warnf("monitor: position %s: %v", pos.ID, err)
		}
	}
}

func (m *Monitor) evaluateOne(ctx context.Context, pos *types.Position) error {
	reason, err := m.registry.ForStrategy(pos.Strategy).Evaluate(ctx, pos)
	if err != nil {
		return err
	}
	if reason == "" {
		return nil
	}

	logger.Infof("monitor: closing %s (%s): %s", pos.ID, pos.Strategy, reason)
	if err := m.exec.ClosePosition(ctx, pos); err != nil {
		// Position stays Open; the next cycle retries.
		return err
	}
	if err := m.store.UpdatePositionStatus(ctx, pos.ID, types.PositionStatusClosed, reason, m.nowFn().UTC()); err != nil {
		return err
	}
	return nil
}
