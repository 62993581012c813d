package jsqps

// defective.go computes the conditional sojourn-time survival function directly,
// as exp(T t) 1 for the defective generator T of the tagged job's server.
//
// T is a birth-death generator over the total occupancy m in [0, infty) of the
// tagged job's server, tagged job included.  Births happen at lambda(m); one of
// the m-1 other jobs leaves at rate mu(m-1)/m; the tagged job itself leaves at
// rate mu/m, and that mass is lost from the chain, which makes T defective.  The
// top state has no births.  A job arriving with n others ahead starts in m = n+1.

import (
	"gonum.org/v1/gonum/mat"
	"math"
)

// DefectiveGenerator holds T for one (mu, lambda(.)) pair
type DefectiveGenerator struct {
	infty int
	T     *mat.Dense
}

// NewDefectiveGenerator builds T from rates = lambda(0..infty-1), infty = len(rates)
func NewDefectiveGenerator(rates []float64, mu float64) (*DefectiveGenerator, error) {
	infty := len(rates)
	if infty < 1 {
		return nil, configErr("infty", infty, "must be at least 1")
	}
	if !(mu > 0.0) {
		return nil, configErr("mu", mu, "must be positive")
	}
	for n, r := range rates {
		if r < 0.0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, &InstabilityError{Stage: "arrival rate", Index: n, Value: r}
		}
	}

	t := mat.NewDense(infty, infty, nil)
	for m := 0; m < infty; m++ {
		if m+1 < infty {
			t.Set(m, m+1, rates[m])
		}
		if m >= 1 {
			t.Set(m, m-1, float64(m-1)*mu/float64(m))
		}
		switch {
		case m == 0:
			t.Set(m, m, -rates[0])
		case m == infty-1:
			t.Set(m, m, -mu)
		default:
			t.Set(m, m, -rates[m]-mu)
		}
	}
	return &DefectiveGenerator{infty: infty, T: t}, nil
}

// Infty returns the number of occupancy levels of T
func (dg *DefectiveGenerator) Infty() int { return dg.infty }

// survivalAt returns exp(T x) 1, the survival probability from every starting occupancy
func (dg *DefectiveGenerator) survivalAt(x float64) []float64 {
	var tx, e mat.Dense
	tx.Scale(x, dg.T)
	e.Exp(&tx)

	surv := make([]float64, dg.infty)
	ones := mat.NewVecDense(dg.infty, nil)
	for m := 0; m < dg.infty; m++ {
		ones.SetVec(m, 1.0)
	}
	var prod mat.VecDense
	prod.MulVec(&e, ones)
	copy(surv, prod.RawVector().Data)
	return surv
}

// SurvivalTable returns the survival function at every time for every starting
// total occupancy m: table[m][i] is Pr[sojourn > times[i] | start in m]
func (dg *DefectiveGenerator) SurvivalTable(times []float64) [][]float64 {
	table := make([][]float64, dg.infty)
	for m := range table {
		table[m] = make([]float64, len(times))
	}
	for i, x := range times {
		for m, s := range dg.survivalAt(x) {
			table[m][i] = s
		}
	}
	return table
}

// Survival returns Pr[sojourn > x | n others present on arrival].  A start beyond
// the truncation survives with probability one, as in the recursion
func (dg *DefectiveGenerator) Survival(x float64, ahead int) float64 {
	m := ahead + 1
	if m >= dg.infty {
		return 1.0
	}
	return dg.survivalAt(x)[m]
}

// MixedSurvival returns W(x) = sum_n weights[n] Survival(x, n) at every time point,
// for n below min(len(weights), infty)
func (dg *DefectiveGenerator) MixedSurvival(weights, times []float64) []float64 {
	top := min(len(weights), dg.infty)
	surv := make([]float64, len(times))
	for i, x := range times {
		byStart := dg.survivalAt(x)
		sum := 0.0
		for n := 0; n < top; n++ {
			if n+1 < dg.infty {
				sum += weights[n] * byStart[n+1]
			} else {
				sum += weights[n]
			}
		}
		surv[i] = sum
	}
	return surv
}
