package jsqps

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"math"
	"testing"
)

func TestJSQRates(t *testing.T) {
	jr := JSQRates{Lambda: 3.0, Mu: 2.0}

	tests := []struct {
		name     string
		from, to []int
		want     float64
	}{
		{"arrival split among three tied", []int{0, 0, 0}, []int{1, 0, 0}, 1.0},
		{"arrival split among two tied", []int{1, 0, 0}, []int{1, 1, 0}, 1.5},
		{"arrival to unique minimum", []int{1, 1, 0}, []int{1, 1, 1}, 3.0},
		{"arrival to non-minimal server", []int{1, 0, 0}, []int{2, 0, 0}, 0.0},
		{"departure", []int{2, 0, 1}, []int{1, 0, 1}, 2.0},
		{"departure from any busy server", []int{2, 0, 1}, []int{2, 0, 0}, 2.0},
		{"two coordinates move", []int{1, 1, 0}, []int{0, 0, 0}, 0.0},
		{"jump by two", []int{0, 0, 0}, []int{2, 0, 0}, 0.0},
		{"no move", []int{1, 1, 1}, []int{1, 1, 1}, 0.0},
		{"length mismatch", []int{1, 1}, []int{1, 1, 1}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jr.Rate(tt.from, tt.to))
		})
	}
}

func rowSums(q *mat.Dense) []float64 {
	rows, _ := q.Dims()
	sums := make([]float64, rows)
	for r := 0; r < rows; r++ {
		sums[r] = mat.Sum(q.RowView(r))
	}
	return sums
}

func TestGeneratorRowsSumToZero(t *testing.T) {
	tests := []struct {
		servers, limit int
		lambda, mu     float64
	}{
		{1, 10, 0.5, 1.0},
		{2, 6, 1.0, 1.0},
		{3, 5, 2.1, 1.0},
		{4, 3, 3.0, 2.5},
	}
	for _, tt := range tests {
		space, err := NewStateSpace(tt.servers, tt.limit)
		require.NoError(t, err)
		gen, err := BuildGenerator(space, JSQRates{Lambda: tt.lambda, Mu: tt.mu})
		require.NoError(t, err)

		for r, s := range rowSums(gen.Q) {
			assert.InDelta(t, 0.0, s, 1e-9, "R=%d row %d", tt.servers, r)
		}
	}
}

func TestGeneratorEntries(t *testing.T) {
	space, err := NewStateSpace(2, 3)
	require.NoError(t, err)
	gen, err := BuildGenerator(space, JSQRates{Lambda: 1.0, Mu: 1.0})
	require.NoError(t, err)

	at := func(from, to []int) float64 {
		i, ok := space.Index(from)
		require.True(t, ok)
		j, ok := space.Index(to)
		require.True(t, ok)
		return gen.Q.At(i, j)
	}

	assert.Equal(t, 0.5, at([]int{0, 0}, []int{1, 0}))
	assert.Equal(t, 0.5, at([]int{0, 0}, []int{0, 1}))
	assert.Equal(t, 1.0, at([]int{1, 0}, []int{1, 1}))
	assert.Equal(t, 0.0, at([]int{1, 0}, []int{2, 0}))
	assert.Equal(t, 1.0, at([]int{1, 0}, []int{0, 0}))
	assert.Equal(t, -2.0, at([]int{1, 0}, []int{1, 0}))

	// arrivals are blocked at the truncation
	assert.Equal(t, -2.0, at([]int{2, 2}, []int{2, 2}))

	// the largest outflow is lambda + 2 mu, at e.g. (1,1)
	assert.InDelta(t, 1.0/3.0, gen.TimeStep, 1e-15)
}

func TestGeneratorDiscrete(t *testing.T) {
	space, err := NewStateSpace(2, 4)
	require.NoError(t, err)
	gen, err := BuildGenerator(space, JSQRates{Lambda: 1.2, Mu: 1.0})
	require.NoError(t, err)

	p := gen.Discrete()
	rows, cols := p.Dims()
	for r := 0; r < rows; r++ {
		assert.InDelta(t, 1.0, mat.Sum(p.RowView(r)), 1e-12)
		for c := 0; c < cols; c++ {
			assert.GreaterOrEqual(t, p.At(r, c), -1e-15)
		}
	}
}

func TestGeneratorSingleState(t *testing.T) {
	space, err := NewStateSpace(2, 1)
	require.NoError(t, err)
	gen, err := BuildGenerator(space, JSQRates{Lambda: 1.0, Mu: 1.0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, gen.Q.At(0, 0))
	assert.Equal(t, 1.0, gen.TimeStep)
}

type negativeRates struct{}

func (negativeRates) Rate(from, to []int) float64 { return -1.0 }

type nanRates struct{}

func (nanRates) Rate(from, to []int) float64 { return math.NaN() }

func TestGeneratorRejectsBadRates(t *testing.T) {
	space, err := NewStateSpace(2, 3)
	require.NoError(t, err)

	_, err = BuildGenerator(space, negativeRates{})
	assert.True(t, errors.Is(err, ErrNumericalInstability))

	_, err = BuildGenerator(space, nanRates{})
	var ie *InstabilityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 0, ie.Index)
	assert.True(t, math.IsNaN(ie.Value))
}
