package jsqps

// metrics.go holds the comparison tools: the time grid shared by analytic and
// simulated CDFs, the empirical CDF of sojourn samples, and the discretized
// Wasserstein-1 distance between two CDFs on the same grid.

import (
	"fmt"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"math"
)

// TimeGrid returns 0, step, 2 step, ... up to and including tmax (within half a step)
func TimeGrid(tmax, step float64) ([]float64, error) {
	if !(step > 0.0) || math.IsInf(step, 0) {
		return nil, configErr("step", step, "must be positive and finite")
	}
	if tmax < 0.0 || math.IsNaN(tmax) || math.IsInf(tmax, 0) {
		return nil, configErr("tmax", tmax, "must be finite and non-negative")
	}
	count := int(math.Floor(tmax/step+0.5)) + 1
	times := make([]float64, count)
	for i := range times {
		times[i] = float64(i) * step
	}
	return times, nil
}

// EmpiricalCDF evaluates, at each time, the fraction of samples strictly below it
// (the 'strict' percentile of score).  Once the CDF reaches one every later point is one
func EmpiricalCDF(samples, times []float64) []float64 {
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	cdf := make([]float64, len(times))
	if len(sorted) == 0 {
		return cdf
	}
	reached := false
	for i, t := range times {
		if reached {
			cdf[i] = 1.0
			continue
		}
		// BinarySearch gives the first index whose value is >= t, the count strictly below t
		below, _ := slices.BinarySearch(sorted, t)
		cdf[i] = float64(below) / float64(len(sorted))
		reached = cdf[i] >= 1.0
	}
	return cdf
}

// WassersteinDistance returns sum_i |u_i - v_i| * gap, the L1 distance of two CDFs
// evaluated on the same grid with spacing gap
func WassersteinDistance(u, v []float64, gap float64) (float64, error) {
	if len(u) != len(v) {
		return 0.0, configErr("cdf", fmt.Sprintf("%d vs %d points", len(u), len(v)), "lengths differ")
	}
	if gap < 0.0 || math.IsNaN(gap) {
		return 0.0, configErr("gap", gap, "must be non-negative")
	}
	diffs := make([]float64, len(u))
	floats.SubTo(diffs, u, v)
	return floats.Norm(diffs, 1) * gap, nil
}

// IsCDF reports whether vals is non-decreasing and within [0,1], up to tol
func IsCDF(vals []float64, tol float64) bool {
	for i, v := range vals {
		if v < -tol || v > 1.0+tol || math.IsNaN(v) {
			return false
		}
		if i > 0 && v < vals[i-1]-tol {
			return false
		}
	}
	return true
}
