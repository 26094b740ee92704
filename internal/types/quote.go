package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OptionQuote is a single option contract snapshot with dealer-supplied
// greeks. Prices are decimals; greeks stay float64 since they feed pure math,
// never money accumulation.
type OptionQuote struct {
	Symbol          string
	OptionType      OptionType // empty for underlying stock quotes
	UnderlyingPrice decimal.Decimal
	Strike          decimal.Decimal
	Expiry          time.Time
	Bid             decimal.Decimal
	Ask             decimal.Decimal
	Delta           float64
	Gamma           float64
	Theta           float64
	Vega            float64
	IV              float64
	ObservedAt      time.Time
}

// Mid returns (bid+ask)/2.
func (q OptionQuote) Mid() decimal.Decimal {
	return q.Bid.Add(q.Ask).Div(decimal.NewFromInt(2))
}

// DaysToExpiry counts whole days between the observation time and expiry.
func (q OptionQuote) DaysToExpiry() int {
	observed := q.ObservedAt
	if observed.IsZero() {
		observed = time.Now().UTC()
	}
	d := q.Expiry.Sub(observed)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// Validate enforces the quote invariants: ask >= bid, delta within [-1, 1],
// gamma/vega non-negative, iv within [0, 2].
func (q OptionQuote) Validate() error {
	if q.Ask.LessThan(q.Bid) {
		return fmt.Errorf("quote %s: ask %s < bid %s", q.Symbol, q.Ask, q.Bid)
	}
	if q.Delta < -1 || q.Delta > 1 {
		return fmt.Errorf("quote %s: delta %.4f out of [-1,1]", q.Symbol, q.Delta)
	}
	if q.Gamma < 0 {
		return fmt.Errorf("quote %s: negative gamma %.6f", q.Symbol, q.Gamma)
	}
	if q.Vega < 0 {
		return fmt.Errorf("quote %s: negative vega %.6f", q.Symbol, q.Vega)
	}
	if q.IV < 0 || q.IV > 2 {
		return fmt.Errorf("quote %s: iv %.4f out of [0,2]", q.Symbol, q.IV)
	}
	return nil
}
