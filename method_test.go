package jsqps

import (
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func TestMethodByName(t *testing.T) {
	tests := []struct {
		name string
		want Method
	}{
		{"methodA", Method{Name: "methodA", Rates: ExactRates, Weights: StationaryWeights, Engine: DefectiveEngine}},
		{"b", Method{Name: "methodB", Rates: ExactRates, Weights: ProductWeights, Engine: DefectiveEngine}},
		{"C", Method{Name: "methodC", Rates: ApproxRates, Weights: ProductWeights, Engine: DefectiveEngine}},
		{"MethodD", Method{Name: "methodD", Rates: ExactRates, Weights: StationaryWeights, Engine: RecursiveEngine}},
		{"E", Method{Name: "methodE", Rates: ExactRates, Weights: ProductWeights, Engine: RecursiveEngine}},
		{"f", Method{Name: "methodF", Rates: ApproxRates, Weights: ProductWeights, Engine: RecursiveEngine}},
		{"MM1PS", Method{Name: "mm1ps", Rates: ConstantRates, Weights: ProductWeights, Engine: RecursiveEngine}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MethodByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := MethodByName("methodG")
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Len(t, MethodNames(), 7)
}

func TestStrategyStrings(t *testing.T) {
	assert.Equal(t, "approx", ApproxRates.String())
	assert.Equal(t, "product", ProductWeights.String())
	assert.Equal(t, "defective", DefectiveEngine.String())
	assert.Equal(t, "direct", Direct.String())
	assert.Equal(t, "RateStrategy(9)", RateStrategy(9).String())
}

func TestAnalyzeRejects(t *testing.T) {
	times := []float64{0, 1, 2}
	good := Params{Lambda: 1.0, Mu: 1.0, Servers: 2, Limit: 6, Infty: 40}

	// approximate rates provide no chain to take stationary weights from
	bad := Method{Name: "approx-stationary", Rates: ApproxRates, Weights: StationaryWeights, Engine: RecursiveEngine}
	_, err := bad.Analyze(good, times)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	m, err := MethodByName("D")
	require.NoError(t, err)
	_, err = m.Analyze(good, []float64{0, -1})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	_, err = m.Analyze(good, []float64{0, math.NaN()})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	noLimit := good
	noLimit.Limit = 0
	_, err = m.Analyze(noLimit, times)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "limit", ce.Param)

	// methods that solve no chain do not need a limit
	f, err := MethodByName("F")
	require.NoError(t, err)
	_, err = f.Analyze(noLimit, times)
	assert.NoError(t, err)

	// rho = 1 is outside the fitted range
	overload := good
	overload.Lambda = 2.0
	_, err = f.Analyze(overload, times)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestAnalyzeResult(t *testing.T) {
	times := []float64{0, 0.5, 1, 2}
	m, err := MethodByName("B")
	require.NoError(t, err)
	res, err := m.Analyze(Params{Lambda: 1.5, Mu: 1.0, Servers: 3, Limit: 5, Infty: 30}, times)
	require.NoError(t, err)

	assert.Equal(t, "methodB", res.Method)
	assert.Equal(t, 3, res.Servers)
	assert.InDelta(t, 0.5, res.Rho, 1e-15)
	assert.Equal(t, 5, res.Limit)
	assert.Equal(t, times, res.Times)
	assert.Len(t, res.Rates, 30)
	assert.Len(t, res.Weights, 30)
	assert.GreaterOrEqual(t, int64(res.Runtime), int64(0))

	// the caller's slice is not aliased
	times[1] = 7
	assert.Equal(t, 0.5, res.Times[1])
}

func TestApproxFlagsSurface(t *testing.T) {
	m, err := MethodByName("F")
	require.NoError(t, err)
	res, err := m.Analyze(Params{Lambda: 0.5, Mu: 1.0, Servers: 1, Infty: 50}, []float64{0, 1})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Flags)
}

func TestErrorTaxonomy(t *testing.T) {
	err := ReportErrs([]error{nil, configErr("servers", 0, "must be at least 1"),
		&InstabilityError{Stage: "test", Index: 3, Value: -2}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.True(t, errors.Is(err, ErrNumericalInstability))
	assert.Contains(t, err.Error(), "servers=0")
	assert.Contains(t, err.Error(), "at index 3")

	assert.NoError(t, ReportErrs([]error{nil, nil}))

	wrapped := fmt.Errorf("sweep job: %w", checkFinite("stage", []float64{1, math.Inf(-1)}))
	var ie *InstabilityError
	require.ErrorAs(t, wrapped, &ie)
	assert.Equal(t, 1, ie.Index)
}

func TestAnalyzeEmptyFarm(t *testing.T) {
	// with no arrivals the tagged job is always alone: Pr[sojourn <= x] = 1 - e^-mu x
	times := []float64{0, 0.5, 1, 3}
	for _, name := range []string{"A", "D"} {
		m, err := MethodByName(name)
		require.NoError(t, err)
		res, err := m.Analyze(Params{Lambda: 0.0, Mu: 2.0, Servers: 2, Limit: 4, Infty: 40}, times)
		require.NoError(t, err, name)
		for i, x := range times {
			assert.InDelta(t, 1.0-math.Exp(-2.0*x), res.CDF[i], 1e-9, "%s x=%g", name, x)
		}
	}
}

func TestAnalyzeFlagsTruncatedSeries(t *testing.T) {
	m, err := MethodByName("D")
	require.NoError(t, err)
	p := Params{Lambda: 1.0, Mu: 1.0, Servers: 2, Limit: 6, Infty: 20}

	res, err := m.Analyze(p, []float64{0, 100})
	require.NoError(t, err)
	require.Len(t, res.Flags, 1)
	assert.Contains(t, res.Flags[0], "infty=20")

	p.Infty = 40
	res, err = m.Analyze(p, []float64{0, 1, 5})
	require.NoError(t, err)
	assert.Empty(t, res.Flags)
}
