package jsqps

// mc-solve.go computes the stationary distribution of the uniformized chain,
// pi P = pi with the entries of pi summing to one.

import (
	"errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"log/slog"
	"math"
)

// probability entries below -probTolerance, or a total mass further than
// massTolerance from one, are reported as numerical instability
const (
	probTolerance = 1e-9
	massTolerance = 1e-6
)

// StationaryDistribution maps every state of a StateSpace to its long-run probability.
// Probs is indexed like the StateSpace and is read-only once solved
type StationaryDistribution struct {
	Space *StateSpace
	Probs []float64
}

// Prob returns the probability of a state, 0 for a tuple outside the space
func (sd *StationaryDistribution) Prob(state []int) float64 {
	idx, ok := sd.Space.Index(state)
	if !ok {
		return 0.0
	}
	return sd.Probs[idx]
}

// SolveStationary solves for the stationary distribution of the chain whose generator is given,
// using the uniformized matrix P = I + Q*TimeStep.  Both methods return the same vector
// up to numerical tolerance.  An ill-conditioned solve is logged, not rejected; a
// solution with an entry below -1e-9, a non-finite entry or a mass away from one is
// an InstabilityError
func SolveStationary(gen *Generator, method SolveMethod, logger *slog.Logger) (*StationaryDistribution, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := gen.Discrete()
	size, _ := p.Dims()

	var a *mat.Dense
	var b *mat.VecDense

	switch method {
	case LeastSquares:
		// rows 0..size-1 hold P^T - I, row size is all ones; rhs is (0,...,0,1)
		a = mat.NewDense(size+1, size, nil)
		for row := 0; row < size; row++ {
			for col := 0; col < size; col++ {
				a.Set(row, col, p.At(col, row))
			}
			a.Set(row, row, a.At(row, row)-1.0)
		}
		for col := 0; col < size; col++ {
			a.Set(size, col, 1.0)
		}
		b = mat.NewVecDense(size+1, nil)
		b.SetVec(size, 1.0)

	case Direct:
		// P^T - I with its last (redundant) equation replaced by the normalization row
		a = mat.NewDense(size, size, nil)
		for row := 0; row < size-1; row++ {
			for col := 0; col < size; col++ {
				a.Set(row, col, p.At(col, row))
			}
			a.Set(row, row, a.At(row, row)-1.0)
		}
		for col := 0; col < size; col++ {
			a.Set(size-1, col, 1.0)
		}
		b = mat.NewVecDense(size, nil)
		b.SetVec(size-1, 1.0)

	default:
		return nil, configErr("solver", method, "is not a known solve method")
	}

	var x mat.VecDense
	err := x.SolveVec(a, b)
	if err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, &InstabilityError{Stage: "stationary solve (" + method.String() + ")", Index: -1, Value: math.NaN()}
		}
		logger.Warn("ill-conditioned stationary solve", "method", method.String(), "states", size, "condition", float64(cond))
	}

	probs := make([]float64, size)
	copy(probs, x.RawVector().Data)

	if err := checkDistribution("stationary distribution", probs); err != nil {
		return nil, err
	}
	return &StationaryDistribution{Space: gen.Space, Probs: probs}, nil
}

// checkDistribution tests that probs is a probability vector up to tolerance
func checkDistribution(stage string, probs []float64) error {
	if err := checkFinite(stage, probs); err != nil {
		return err
	}
	for idx, v := range probs {
		if v < -probTolerance || v > 1.0+probTolerance {
			return &InstabilityError{Stage: stage, Index: idx, Value: v}
		}
	}
	total := floats.Sum(probs)
	if math.Abs(total-1.0) > massTolerance {
		return &InstabilityError{Stage: stage + " mass", Index: -1, Value: total}
	}
	return nil
}

// Chain bundles the state space, generator and stationary distribution of one configuration
type Chain struct {
	Space *StateSpace
	Gen   *Generator
	Dist  *StationaryDistribution
}

// SolveChain enumerates the states for p.Servers and p.Limit, builds the JSQ
// generator, checks that it has a single closed class, and solves it
func SolveChain(p Params) (*Chain, error) {
	if err := p.validate(true); err != nil {
		return nil, err
	}
	logger := p.logger()

	space, err := NewStateSpace(p.Servers, p.Limit)
	if err != nil {
		return nil, err
	}
	gen, err := BuildGenerator(space, JSQRates{Lambda: p.Lambda, Mu: p.Mu})
	if err != nil {
		return nil, err
	}
	class, err := ClosedClass(gen)
	if err != nil {
		return nil, err
	}
	logger.Debug("built JSQ chain", "servers", p.Servers, "limit", p.Limit,
		"states", space.Size(), "recurrent", len(class), "timestep", gen.TimeStep)

	dist, err := SolveStationary(gen, p.Solver, logger)
	if err != nil {
		return nil, err
	}
	return &Chain{Space: space, Gen: gen, Dist: dist}, nil
}
