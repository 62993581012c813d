package jsqps

// generator.go assembles the infinitesimal generator of the truncated chain and
// its uniformized (discrete-time) counterpart.  Memory and time are O(Limit^(2R));
// callers choose Limit and R so that the dense matrix fits.

import (
	"gonum.org/v1/gonum/mat"
	"math"
)

// A RateModel gives the instantaneous rate of moving between two states
type RateModel interface {
	Rate(from, to []int) float64
}

// Generator holds the generator matrix Q of a chain over a StateSpace, with
// zero row sums, and the uniformization step 1/max(total outflow)
type Generator struct {
	Space    *StateSpace
	Q        *mat.Dense
	TimeStep float64
}

// BuildGenerator computes Q for the states of space under the rate model rm.
// Rates are non-zero only between states one unit apart in one coordinate, so
// only those neighbours are queried.  A negative or non-finite rate is reported
// as an InstabilityError naming the source state index
func BuildGenerator(space *StateSpace, rm RateModel) (*Generator, error) {
	size := space.Size()
	servers := space.Servers()
	limit := space.Limit()

	q := mat.NewDense(size, size, nil)
	nbr := make([]int, servers)
	maxOut := 0.0

	for idx := 0; idx < size; idx++ {
		state := space.State(idx)
		outflow := 0.0
		for pos := 0; pos < servers; pos++ {
			stride := space.stride(pos)
			for _, step := range [2]int{-1, 1} {
				v := state[pos] + step
				if v < 0 || v >= limit {
					continue
				}
				copy(nbr, state)
				nbr[pos] = v

				rate := rm.Rate(state, nbr)
				if rate < 0.0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
					return nil, &InstabilityError{Stage: "transition rate from " + stateString(state), Index: idx, Value: rate}
				}
				if rate == 0.0 {
					continue
				}
				q.Set(idx, idx+step*stride, rate)
				outflow += rate
			}
		}
		q.Set(idx, idx, -outflow)
		maxOut = math.Max(maxOut, outflow)
	}

	gen := &Generator{Space: space, Q: q, TimeStep: 1.0}
	if maxOut > 0.0 {
		gen.TimeStep = 1.0 / maxOut
	}
	return gen, nil
}

// Discrete returns the uniformized transition matrix P = I + Q*TimeStep
func (gen *Generator) Discrete() *mat.Dense {
	size, _ := gen.Q.Dims()
	p := mat.NewDense(size, size, nil)
	p.Scale(gen.TimeStep, gen.Q)
	for idx := 0; idx < size; idx++ {
		p.Set(idx, idx, p.At(idx, idx)+1.0)
	}
	return p
}
