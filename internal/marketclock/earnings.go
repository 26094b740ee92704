package marketclock

import "context"

// EarningsSource answers whether a symbol is inside its earnings blackout
// window. Single-leg positions are closed ahead of earnings to dodge the
// post-announcement IV crush.
type EarningsSource interface {
	IsEarningsBlackout(ctx context.Context, symbol string) (bool, error)
}

// StubEarnings always reports no blackout. It is the shipped default until a
// real earnings-calendar feed is connected; the monitor treats it as any
// other EarningsSource.
type StubEarnings struct{}

func (StubEarnings) IsEarningsBlackout(context.Context, string) (bool, error) {
	return false, nil
}

var _ EarningsSource = StubEarnings{}
