// Package chain selects strikes from option-chain snapshots and assembles
// multi-leg spreads from them.
package chain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"condor/internal/greeks"
	"condor/internal/types"
)

// Iron-condor strike selection parameters: sell the ~15-delta wings and
// accept anything in the 0.10-0.20 band.
const (
	TargetDelta    = 0.15
	DeltaTolerance = 0.05
)

// riskFreeRate feeds the Black-Scholes fallback when a feed omits greeks.
const riskFreeRate = 0.05

// fillMissingDeltas computes a Black-Scholes delta for contracts whose feed
// omitted greeks, estimating implied volatility from the mid price when the
// feed omitted that too. Contracts that already carry a delta are untouched.
func fillMissingDeltas(chain []types.OptionQuote, now time.Time) {
	for i := range chain {
		q := &chain[i]
		if q.Delta != 0 || q.UnderlyingPrice.IsZero() {
			continue
		}
		s, _ := q.UnderlyingPrice.Float64()
		k, _ := q.Strike.Float64()
		t := greeks.YearsToExpiry(q.Expiry, now)
		iv := q.IV
		if iv <= 0 {
			mid, _ := q.Mid().Float64()
			iv = greeks.EstimateIV(mid, s, t)
		}
		if q.OptionType == types.OptionCall {
			q.Delta = greeks.CallDelta(s, k, t, riskFreeRate, iv)
		} else {
			q.Delta = greeks.PutDelta(s, k, t, riskFreeRate, iv)
		}
	}
}

// FindStrikeByDelta returns the contract of the requested type whose
// absolute delta is closest to targetDelta. It fails when the best match is
// outside tolerance — a thin or lopsided chain must not silently produce a
// mispositioned short strike.
func FindStrikeByDelta(chain []types.OptionQuote, optType types.OptionType, targetDelta, tolerance float64) (types.OptionQuote, error) {
	var best types.OptionQuote
	bestDiff := math.Inf(1)
	for _, q := range chain {
		if q.OptionType != optType {
			continue
		}
		diff := math.Abs(math.Abs(q.Delta) - targetDelta)
		if diff < bestDiff {
			bestDiff = diff
			best = q
		}
	}
	if math.IsInf(bestDiff, 1) {
		return types.OptionQuote{}, fmt.Errorf("no %s contracts in chain", optType)
	}
	if bestDiff > tolerance {
		return types.OptionQuote{}, fmt.Errorf("no %s strike within tolerance: best delta diff %.4f > %.4f",
			optType, bestDiff, tolerance)
	}
	return best, nil
}

// findByStrike locates the contract with the exact strike and type, used to
// resolve protection legs once the spread width is applied.
func findByStrike(chain []types.OptionQuote, optType types.OptionType, strike decimal.Decimal) (types.OptionQuote, bool) {
	for _, q := range chain {
		if q.OptionType == optType && q.Strike.Equal(strike) {
			return q, true
		}
	}
	return types.OptionQuote{}, false
}
