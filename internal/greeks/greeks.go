// Package greeks computes Black-Scholes option sensitivities. All functions
// are pure: same inputs, same outputs, no I/O. Degenerate inputs (T<=0 or
// sigma<=0) yield zero for every greek rather than NaN.
package greeks

import (
	"math"
	"time"
)

// Greeks bundles the four sensitivities for one contract.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

// minYears floors time-to-expiry at roughly one hour so same-day contracts
// still price.
const minYears = 0.0001

func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

func degenerate(t, sigma float64) bool {
	return t <= 0 || sigma <= 0
}

// D1D2 returns the d1/d2 terms of the Black-Scholes formula, zero for
// degenerate inputs.
func D1D2(s, k, t, r, sigma float64) (float64, float64) {
	if degenerate(t, sigma) || s <= 0 || k <= 0 {
		return 0, 0
	}
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}

// CallDelta is N(d1).
func CallDelta(s, k, t, r, sigma float64) float64 {
	if degenerate(t, sigma) {
		return 0
	}
	d1, _ := D1D2(s, k, t, r, sigma)
	return normCDF(d1)
}

// PutDelta is N(d1) - 1, so put-call delta parity holds exactly.
func PutDelta(s, k, t, r, sigma float64) float64 {
	if degenerate(t, sigma) {
		return 0
	}
	return CallDelta(s, k, t, r, sigma) - 1.0
}

// Gamma is identical for calls and puts.
func Gamma(s, k, t, r, sigma float64) float64 {
	if degenerate(t, sigma) {
		return 0
	}
	d1, _ := D1D2(s, k, t, r, sigma)
	return normPDF(d1) / (s * sigma * math.Sqrt(t))
}

// Vega is per one percentage-point change in implied volatility, identical
// for calls and puts.
func Vega(s, k, t, r, sigma float64) float64 {
	if degenerate(t, sigma) {
		return 0
	}
	d1, _ := D1D2(s, k, t, r, sigma)
	return s * normPDF(d1) * math.Sqrt(t) / 100.0
}

// CallTheta is the per-day time decay of a call.
func CallTheta(s, k, t, r, sigma float64) float64 {
	if degenerate(t, sigma) {
		return 0
	}
	d1, d2 := D1D2(s, k, t, r, sigma)
	term1 := -s * normPDF(d1) * sigma / (2 * math.Sqrt(t))
	term2 := -r * k * math.Exp(-r*t) * normCDF(d2)
	return (term1 + term2) / 365.0
}

// PutTheta is the per-day time decay of a put.
func PutTheta(s, k, t, r, sigma float64) float64 {
	if degenerate(t, sigma) {
		return 0
	}
	d1, d2 := D1D2(s, k, t, r, sigma)
	term1 := -s * normPDF(d1) * sigma / (2 * math.Sqrt(t))
	term2 := r * k * math.Exp(-r*t) * normCDF(-d2)
	return (term1 + term2) / 365.0
}

// All computes the full greek set for one contract.
func All(s, k, t, r, sigma float64, isCall bool) Greeks {
	if degenerate(t, sigma) {
		return Greeks{}
	}
	g := Greeks{
		Gamma: Gamma(s, k, t, r, sigma),
		Vega:  Vega(s, k, t, r, sigma),
	}
	if isCall {
		g.Delta = CallDelta(s, k, t, r, sigma)
		g.Theta = CallTheta(s, k, t, r, sigma)
	} else {
		g.Delta = PutDelta(s, k, t, r, sigma)
		g.Theta = PutTheta(s, k, t, r, sigma)
	}
	return g
}

// YearsToExpiry converts an expiry timestamp to Black-Scholes time, floored
// at minYears so a contract expiring within the hour still produces usable
// greeks.
func YearsToExpiry(expiry, now time.Time) float64 {
	years := expiry.Sub(now).Seconds() / (365.25 * 24 * 3600)
	if years < minYears {
		return minYears
	}
	return years
}

// EstimateIV derives a rough implied volatility from the option price using
// the ATM approximation price ≈ S·sigma·sqrt(T/2π), clamped to [0.10, 2.0].
// Callers with no price fall back to the 0.30 default. This is a stand-in
// until a proper Newton-Raphson solve is wired to real chain data.
func EstimateIV(optionPrice, s, t float64) float64 {
	const defaultIV = 0.30
	if optionPrice <= 0 || s <= 0 || t <= 0 {
		return defaultIV
	}
	iv := optionPrice / (s * math.Sqrt(t)) * math.Sqrt(2*math.Pi)
	return math.Min(math.Max(iv, 0.10), 2.0)
}
