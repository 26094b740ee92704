// Package scheduler runs periodic tasks aligned to bar boundaries, so a
// scan cycle fires just after the minute bar it reads has closed.
package scheduler

import (
	"context"
	"time"

	"condor/internal/logger"
)

// Aligned fires a task on interval boundaries plus an offset. With
// Interval=1m and Offset=2s the task runs at :02 past every minute,
// after the previous bar has closed.
type Aligned struct {
	Name           string
	Interval       time.Duration
	Offset         time.Duration
	RunImmediately bool

	nowFn func() time.Time
}

func NewAligned(name string, interval, offset time.Duration) *Aligned {
	return &Aligned{
		Name:     name,
		Interval: interval,
		Offset:   offset,
		nowFn:    time.Now,
	}
}

// WithNow overrides the clock for tests.
func (s *Aligned) WithNow(fn func() time.Time) *Aligned {
	if fn != nil {
		s.nowFn = fn
	}
	return s
}

// Start blocks, running task on each aligned tick until ctx is done.
func (s *Aligned) Start(ctx context.Context, task func(context.Context)) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("scheduler[%s]: invalid interval=%s, exit", s.Name, s.Interval)
		return
	}
	if s.Offset < 0 {
		s.Offset = 0
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	logger.Infof("scheduler[%s]: started interval=%s offset=%s run_immediately=%v",
		s.Name, s.Interval, s.Offset, s.RunImmediately)

	if s.RunImmediately {
		task(ctx)
	}

	for {
		now := s.nowFn().UTC()
		wakeAt := s.nextWake(now)
		wait := wakeAt.Sub(now)
		if wait <= 0 {
			task(ctx)
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Infof("scheduler[%s]: context done, exit", s.Name)
			return
		case <-timer.C:
		}
		task(ctx)
	}
}

// nextWake is the next interval boundary after now, shifted by Offset.
func (s *Aligned) nextWake(now time.Time) time.Time {
	boundary := now.Truncate(s.Interval).Add(s.Interval)
	wakeAt := boundary.Add(s.Offset)
	if prev := boundary.Add(-s.Interval).Add(s.Offset); prev.After(now) {
		wakeAt = prev
	}
	return wakeAt
}
