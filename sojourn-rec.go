package jsqps

// sojourn-rec.go implements the conditional sojourn-time recursion of
//
//	Masuyama, Takine. "Sojourn time distribution in a MAP/M/1 processor-sharing
//	queue." Operations Research Letters 31.5 (2003): 406-412.
//
// A tagged job that finds n others at its server is followed through the chain
// uniformized at rate lambdaMax+mu.  h(n,k) is the probability that the tagged job is
// still present after k uniformized steps.  Per step, with U = lambdaMax+mu and the
// server holding n+1 jobs:
//
//	one of the n others leaves    n/(n+1) * mu/U       -> h(n-1, k-1)
//	the tagged job leaves         1/(n+1) * mu/U       -> absorbed
//	an arrival joins              lambda(n+1)/U        -> h(n+1, k-1)
//	fictitious self-transition    (lambdaMax-lambda(n+1))/U -> h(n, k-1)
//
// with h(n,0) = 1, h(-1,k) = 0 and h(n,k) = 1 for n >= infty.  The table is
// filled bottom-up in k, so depth is never a concern.

import (
	"gonum.org/v1/gonum/floats"
	"math"
)

// Kernel holds the h(n,k) table for one (mu, lambda(.)) pair and one truncation.
// A Kernel is owned by the analysis that built it and is never reused for another
// rate sequence
type Kernel struct {
	infty   int
	uniform float64   // lambdaMax + mu
	table   []float64 // h(n,k) at table[k*infty+n]
}

// NewKernel fills the state-dependent table for the sequence rates = lambda(0..infty-1),
// where infty = len(rates), and service rate mu.  lambda(infty) is taken equal to lambda(infty-1)
func NewKernel(rates []float64, mu float64) (*Kernel, error) {
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

	lambdaMax := floats.Max(rates)
	uniform := lambdaMax + mu

	down := make([]float64, infty)
	stay := make([]float64, infty)
	up := make([]float64, infty)
	for n := 0; n < infty; n++ {
		next := rates[infty-1]
		if n+1 < infty {
			next = rates[n+1]
		}
		down[n] = float64(n) / float64(n+1) * mu / uniform
		stay[n] = (lambdaMax - next) / uniform
		up[n] = next / uniform
	}
	return fillKernel(infty, uniform, down, stay, up), nil
}

// NewHomogeneousKernel fills the table of the M/M/1-PS queue with constant arrival rate lambda,
// where the recursion has no self-transition term:
// h(n,k) = n/(n+1) mu/(lambda+mu) h(n-1,k-1) + lambda/(lambda+mu) h(n+1,k-1)
func NewHomogeneousKernel(lambda, mu float64, infty int) (*Kernel, error) {
	if infty < 1 {
		return nil, configErr("infty", infty, "must be at least 1")
	}
	if !(mu > 0.0) || lambda < 0.0 {
		return nil, configErr("rates", [2]float64{lambda, mu}, "need lambda >= 0 and mu > 0")
	}
	uniform := lambda + mu

	down := make([]float64, infty)
	up := make([]float64, infty)
	for n := 0; n < infty; n++ {
		down[n] = float64(n) / float64(n+1) * mu / uniform
		up[n] = lambda / uniform
	}
	return fillKernel(infty, uniform, down, nil, up), nil
}

// fillKernel computes h(n,k) layer by layer.  stay may be nil
func fillKernel(infty int, uniform float64, down, stay, up []float64) *Kernel {
	kn := &Kernel{infty: infty, uniform: uniform, table: make([]float64, infty*infty)}

	for n := 0; n < infty; n++ {
		kn.table[n] = 1.0
	}
	for k := 1; k < infty; k++ {
		prev := kn.table[(k-1)*infty : k*infty]
		cur := kn.table[k*infty : (k+1)*infty]
		for n := 0; n < infty; n++ {
			below := 0.0
			if n > 0 {
				below = prev[n-1]
			}
			above := 1.0
			if n+1 < infty {
				above = prev[n+1]
			}
			h := down[n]*below + up[n]*above
			if stay != nil {
				h += stay[n] * prev[n]
			}
			cur[n] = h
		}
	}
	return kn
}

// Infty returns the truncation of the table
func (kn *Kernel) Infty() int { return kn.infty }

// UniformRate returns lambdaMax + mu
func (kn *Kernel) UniformRate() float64 { return kn.uniform }

// H returns h(n,k), applying the boundary values outside the table.  k >= infty
// is outside the series and treated like the last computed layer
func (kn *Kernel) H(n, k int) float64 {
	switch {
	case k <= 0:
		return 1.0
	case n < 0:
		return 0.0
	case n >= kn.infty:
		return 1.0
	case k >= kn.infty:
		k = kn.infty - 1
	}
	return kn.table[k*kn.infty+n]
}

// Survival returns Pr[sojourn > x | n others present on arrival]:
// the Poisson(U x) mixture of h(n,k) over k in [0, infty)
func (kn *Kernel) Survival(x float64, ahead int) float64 {
	pois := poissonWeights(kn.uniform*x, kn.infty)
	sum := 0.0
	for k, w := range pois {
		sum += w * kn.H(ahead, k)
	}
	return sum
}

// MixedSurvival returns W(x) = sum_n weights[n] Survival(x, n) at every time point,
// for n below min(len(weights), infty)
func (kn *Kernel) MixedSurvival(weights, times []float64) []float64 {
	top := min(len(weights), kn.infty)

	// g(k) = sum_n weights[n] h(n,k), shared by every time point
	g := make([]float64, kn.infty)
	for k := 0; k < kn.infty; k++ {
		layer := kn.table[k*kn.infty : k*kn.infty+top]
		g[k] = floats.Dot(weights[:top], layer)
	}

	surv := make([]float64, len(times))
	for i, x := range times {
		surv[i] = floats.Dot(poissonWeights(kn.uniform*x, kn.infty), g)
	}
	return surv
}

// PoissonTail returns the Poisson mass beyond infty at time x, the part of the
// mixture MixedSurvival drops.  A tail that is not negligible at the largest time
// of interest means infty is too small for it
func (kn *Kernel) PoissonTail(x float64) float64 {
	return math.Max(0.0, 1.0-floats.Sum(poissonWeights(kn.uniform*x, kn.infty)))
}

// poissonWeights returns e^-a a^k / k! for k in [0, count), computed in log space
func poissonWeights(a float64, count int) []float64 {
	w := make([]float64, count)
	if a <= 0.0 {
		w[0] = 1.0
		return w
	}
	logA := math.Log(a)
	for k := 0; k < count; k++ {
		lg, _ := math.Lgamma(float64(k + 1))
		w[k] = math.Exp(float64(k)*logA - a - lg)
	}
	return w
}
