// Package marketclock answers "what time is it on the exchange" questions:
// session cutoffs, entry windows, trading-day checks. All strategy time
// rules are evaluated in US/Eastern regardless of host timezone.
package marketclock

import (
	"time"

	"github.com/scmhub/calendar"

	"condor/internal/logger"
)

// Clock resolves exchange-local time against the NYSE trading calendar.
// The zero value is not usable; construct via New.
type Clock struct {
	loc   *time.Location
	nyse  *calendar.Calendar
	nowFn func() time.Time
}

func New() *Clock {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		logger.Warnf("marketclock: load America/New_York failed, falling back to UTC: %v", err)
		loc = time.UTC
	}
	return &Clock{
		loc:   loc,
		nyse:  calendar.XNYS(),
		nowFn: time.Now,
	}
}

// WithNow overrides the time source. Test hook.
func (c *Clock) WithNow(fn func() time.Time) *Clock {
	if c != nil && fn != nil {
		c.nowFn = fn
	}
	return c
}

// Now returns the current exchange-local time.
func (c *Clock) Now() time.Time {
	return c.nowFn().In(c.loc)
}

// IsTradingDay reports whether the given instant falls on an NYSE business
// day (weekends and exchange holidays excluded).
func (c *Clock) IsTradingDay(t time.Time) bool {
	return c.nyse.IsBusinessDay(t.In(c.loc))
}

// At returns today's exchange-local instant at hour:minute.
func (c *Clock) At(hour, minute int) time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, c.loc)
}

// AtOrAfter reports whether exchange-local time has reached hour:minute today.
func (c *Clock) AtOrAfter(hour, minute int) bool {
	return !c.Now().Before(c.At(hour, minute))
}

// Within reports whether exchange-local time is inside [start, end] today,
// boundaries inclusive.
func (c *Clock) Within(startHour, startMinute, endHour, endMinute int) bool {
	now := c.Now()
	return !now.Before(c.At(startHour, startMinute)) && !now.After(c.At(endHour, endMinute))
}
