package greeks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutCallDeltaParity(t *testing.T) {
	cases := []struct {
		name             string
		s, k, t, r, sigm float64
	}{
		{"atm", 100, 100, 0.25, 0.05, 0.20},
		{"otm call", 100, 110, 0.10, 0.05, 0.35},
		{"itm call", 100, 80, 1.0, 0.03, 0.50},
		{"zero dte-ish", 590, 595, 0.0001, 0.05, 0.15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call := CallDelta(tc.s, tc.k, tc.t, tc.r, tc.sigm)
			put := PutDelta(tc.s, tc.k, tc.t, tc.r, tc.sigm)
			assert.InDelta(t, call-1.0, put, 1e-12)
		})
	}
}

func TestGammaVegaSymmetry(t *testing.T) {
	s, k, tt, r, sigma := 100.0, 105.0, 0.5, 0.05, 0.25
	callSet := All(s, k, tt, r, sigma, true)
	putSet := All(s, k, tt, r, sigma, false)
	assert.Equal(t, callSet.Gamma, putSet.Gamma)
	assert.Equal(t, callSet.Vega, putSet.Vega)
	assert.Positive(t, callSet.Gamma)
	assert.Positive(t, callSet.Vega)
}

func TestDegenerateInputsReturnZero(t *testing.T) {
	for _, tc := range []struct {
		name     string
		t, sigma float64
	}{
		{"zero time", 0, 0.20},
		{"negative time", -0.1, 0.20},
		{"zero vol", 0.25, 0},
		{"negative vol", 0.25, -0.5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Zero(t, CallDelta(100, 100, tc.t, 0.05, tc.sigma))
			assert.Zero(t, PutDelta(100, 100, tc.t, 0.05, tc.sigma))
			assert.Zero(t, Gamma(100, 100, tc.t, 0.05, tc.sigma))
			assert.Zero(t, Vega(100, 100, tc.t, 0.05, tc.sigma))
			assert.Zero(t, CallTheta(100, 100, tc.t, 0.05, tc.sigma))
			assert.Zero(t, PutTheta(100, 100, tc.t, 0.05, tc.sigma))
			assert.Equal(t, Greeks{}, All(100, 100, tc.t, 0.05, tc.sigma, true))
		})
	}
}

func TestATMDeltaNearHalf(t *testing.T) {
	d := CallDelta(100, 100, 0.25, 0.0, 0.20)
	assert.InDelta(t, 0.5, d, 0.03)
}

func TestThetaNegativeForLongOptions(t *testing.T) {
	assert.Negative(t, CallTheta(100, 100, 0.25, 0.05, 0.20))
	assert.Negative(t, PutTheta(100, 100, 0.25, 0.02, 0.20))
}

func TestEstimateIVClamped(t *testing.T) {
	assert.Equal(t, 0.30, EstimateIV(0, 100, 0.25))
	assert.Equal(t, 2.0, EstimateIV(500, 100, 0.25))
	assert.GreaterOrEqual(t, EstimateIV(0.01, 100, 0.25), 0.10)
}
