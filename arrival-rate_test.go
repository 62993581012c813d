package jsqps

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"math"
	"testing"
)

func TestExactRatesSingleServerAreConstant(t *testing.T) {
	ag := solvedAggregator(t, Params{Lambda: 0.5, Mu: 1.0, Servers: 1, Limit: 20, Infty: 10})

	rates := ExactArrivalRates(0.5, ag.ArrivalShares(), 60)
	require.Len(t, rates.Rates, 60)
	for n, r := range rates.Rates {
		assert.InDelta(t, 0.5, r, 1e-12, "n=%d", n)
	}
	assert.Empty(t, rates.Flags)
}

func TestExactRatesUseTruncatedShares(t *testing.T) {
	shares := []float64{0.9, 0.4, 0.2, 0.7}
	rates := ExactArrivalRates(2.0, shares, 6)

	// the share at the top occupancy is dropped and the one below repeated
	assert.InDeltaSlice(t, []float64{1.8, 0.8, 0.4, 0.4, 0.4, 0.4}, rates.Rates, 1e-15)
	assert.InDelta(t, 1.8, rates.Max(), 1e-15)

	short := ExactArrivalRates(2.0, []float64{0.5}, 3)
	assert.InDeltaSlice(t, []float64{1.0, 1.0, 1.0}, short.Rates, 1e-15)
}

func TestApproxArrivalRates(t *testing.T) {
	tests := []struct {
		rho     float64
		servers int
		want    []float64
	}{
		{0.5, 2, []float64{0.6837404962026978, 0.34160168974967325, 0.26553181918050006, 0.25}},
		{0.5, 3, []float64{0.7876771574764234, 0.23191107528425464, 0.1420329700796495, 0.125}},
		{0.7, 4, []float64{1.4894575231535951, 0.4163830638785692, 0.2740839644425951, 0.24009999999999995}},
	}
	for _, tt := range tests {
		ar, err := ApproxArrivalRates(tt.rho, 1.0, tt.servers, 8)
		require.NoError(t, err)
		require.Len(t, ar.Rates, 8)
		assert.InDeltaSlice(t, tt.want, ar.Rates[:4], 1e-12, "rho=%g R=%d", tt.rho, tt.servers)
		for n := 4; n < 8; n++ {
			assert.Equal(t, ar.Rates[3], ar.Rates[n])
		}
		assert.Empty(t, ar.Flags)
	}
}

func TestApproxArrivalRatesScaleWithMu(t *testing.T) {
	unit, err := ApproxArrivalRates(0.6, 1.0, 3, 5)
	require.NoError(t, err)
	scaled, err := ApproxArrivalRates(0.6, 2.5, 3, 5)
	require.NoError(t, err)

	want := make([]float64, 5)
	floats.ScaleTo(want, 2.5, unit.Rates)
	assert.InDeltaSlice(t, want, scaled.Rates, 1e-12)
}

func TestApproxArrivalRatesRange(t *testing.T) {
	for _, rho := range []float64{0.0, 1.0, -0.2, 1.3, math.NaN()} {
		_, err := ApproxArrivalRates(rho, 1.0, 2, 10)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration), "rho=%g", rho)
	}

	// a single server lies outside the fitted range: flagged, not rejected
	ar, err := ApproxArrivalRates(0.5, 1.0, 1, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, ar.Flags)
}

func TestConstantArrivalRates(t *testing.T) {
	ar := ConstantArrivalRates(0.75, 4)
	assert.Equal(t, []float64{0.75, 0.75, 0.75, 0.75}, ar.Rates)
}

func TestProductFormWeights(t *testing.T) {
	// constant rates give a truncated geometric distribution
	w, err := ProductFormWeights([]float64{0.5, 0.5, 0.5, 0.5}, 1.0)
	require.NoError(t, err)
	norm := 1.0 + 0.5 + 0.25 + 0.125
	assert.InDeltaSlice(t, []float64{1 / norm, 0.5 / norm, 0.25 / norm, 0.125 / norm}, w, 1e-15)

	// long sequences stay finite
	long := make([]float64, 2000)
	for n := range long {
		long[n] = 0.99
	}
	w, err = ProductFormWeights(long, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, floats.Sum(w), 1e-12)

	// a zero rate cuts the distribution off
	w, err = ProductFormWeights([]float64{1.0, 0.0, 1.0}, 2.0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.0 / 3.0, 1.0 / 3.0, 0.0}, w, 1e-15)

	_, err = ProductFormWeights([]float64{1.0, -0.1, 1.0}, 1.0)
	assert.True(t, errors.Is(err, ErrNumericalInstability))

	_, err = ProductFormWeights(nil, 1.0)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}
