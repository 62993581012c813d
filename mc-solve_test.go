package jsqps

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"testing"
)

type zeroRates struct{}

func (zeroRates) Rate(from, to []int) float64 { return 0.0 }

func TestClosedClass(t *testing.T) {
	space, err := NewStateSpace(2, 3)
	require.NoError(t, err)

	gen, err := BuildGenerator(space, JSQRates{Lambda: 1.0, Mu: 1.0})
	require.NoError(t, err)
	class, err := ClosedClass(gen)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, class)

	// with no arrivals every state drains to the empty one
	gen, err = BuildGenerator(space, JSQRates{Lambda: 0.0, Mu: 1.0})
	require.NoError(t, err)
	class, err = ClosedClass(gen)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, class)

	// with no transitions at all every state is its own closed class
	gen, err = BuildGenerator(space, zeroRates{})
	require.NoError(t, err)
	_, err = ClosedClass(gen)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestSolveChainProperties(t *testing.T) {
	tests := []struct {
		servers, limit int
		lambda         float64
	}{
		{1, 20, 0.5},
		{2, 10, 1.0},
		{3, 6, 2.4},
	}
	for _, tt := range tests {
		for _, solver := range []SolveMethod{LeastSquares, Direct} {
			p := Params{Lambda: tt.lambda, Mu: 1.0, Servers: tt.servers, Limit: tt.limit, Infty: 10, Solver: solver}
			chain, err := SolveChain(p)
			require.NoError(t, err, "R=%d %s", tt.servers, solver)

			for idx, v := range chain.Dist.Probs {
				assert.GreaterOrEqual(t, v, -1e-9, "R=%d state %d", tt.servers, idx)
			}
			assert.InDelta(t, 1.0, floats.Sum(chain.Dist.Probs), 1e-6)
		}
	}
}

func TestSolveMethodsAgree(t *testing.T) {
	base := Params{Lambda: 1.5, Mu: 1.0, Servers: 3, Limit: 6, Infty: 10}

	lsq := base
	lsq.Solver = LeastSquares
	a, err := SolveChain(lsq)
	require.NoError(t, err)

	direct := base
	direct.Solver = Direct
	b, err := SolveChain(direct)
	require.NoError(t, err)

	assert.InDeltaSlice(t, a.Dist.Probs, b.Dist.Probs, 1e-8)
}

func TestSingleServerIsGeometric(t *testing.T) {
	// a single PS server truncated at limit is an M/M/1/limit-1 queue
	p := Params{Lambda: 0.5, Mu: 1.0, Servers: 1, Limit: 12, Infty: 10}
	chain, err := SolveChain(p)
	require.NoError(t, err)

	norm := (1.0 - 0.5) / (1.0 - pow(0.5, 12))
	for n := 0; n < 12; n++ {
		assert.InDelta(t, norm*pow(0.5, n), chain.Dist.Prob([]int{n}), 1e-10)
	}
	assert.Equal(t, 0.0, chain.Dist.Prob([]int{12}))
}

func pow(x float64, n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= x
	}
	return r
}

func TestStationarySymmetry(t *testing.T) {
	p := Params{Lambda: 1.2, Mu: 1.0, Servers: 2, Limit: 8, Infty: 10}
	chain, err := SolveChain(p)
	require.NoError(t, err)

	for a := 0; a < 8; a++ {
		for b := 0; b < 8; b++ {
			assert.InDelta(t, chain.Dist.Prob([]int{a, b}), chain.Dist.Prob([]int{b, a}), 1e-10)
		}
	}
}

func TestSolveChainInvalid(t *testing.T) {
	_, err := SolveChain(Params{Lambda: 1.0, Mu: 1.0, Servers: 2, Limit: 0, Infty: 10})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = SolveChain(Params{Lambda: -1.0, Mu: 0.0, Servers: 0, Limit: 3, Infty: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), "servers")
	assert.Contains(t, err.Error(), "mu")
	assert.Contains(t, err.Error(), "lambda")

	space, err := NewStateSpace(1, 2)
	require.NoError(t, err)
	gen, err := BuildGenerator(space, JSQRates{Lambda: 1.0, Mu: 1.0})
	require.NoError(t, err)
	_, err = SolveStationary(gen, SolveMethod(7), nil)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestParseSolveMethod(t *testing.T) {
	for name, want := range map[string]SolveMethod{"": LeastSquares, "lstsq": LeastSquares, "LU": Direct, "exact": Direct} {
		got, err := ParseSolveMethod(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSolveMethod("jacobi")
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}
