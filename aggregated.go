package jsqps

// aggregated.go holds the pooled counterpart of the farm: one M/M/R-PS queue in
// which every present customer shares the R servers, so the total service rate
// with j customers present is min(j,R) mu.  Its occupancy is the reference the
// total occupancy of the JSQ chain is set against.

import (
	"fmt"
	"math"
)

// ErlangC returns the probability that an arrival to an M/M/R queue offered A
// erlangs finds every server busy.  A must lie in [0, R)
func ErlangC(R int, A float64) (float64, error) {
	if R < 1 {
		return 0.0, configErr("servers", R, "must be at least 1")
	}
	if A < 0.0 || math.IsNaN(A) || !(A < float64(R)) {
		return 0.0, configErr("load", A, fmt.Sprintf("must lie in [0, %d)", R))
	}

	// Erlang B by B(k) = A B(k-1) / (k + A B(k-1)), which never forms A^R/R!
	b := 1.0
	for k := 1; k <= R; k++ {
		b = A * b / (float64(k) + A*b)
	}
	r := float64(R)
	return r * b / (r - A*(1.0-b)), nil
}

// AggregatedOccupancy returns p(j), the stationary probability of j customers in
// the pooled M/M/R-PS queue, for j in [0, limit).  The tail beyond limit is cut,
// not folded back, so the entries sum to slightly less than one
func AggregatedOccupancy(lambda, mu float64, R, limit int) ([]float64, error) {
	errs := []error{}
	if lambda < 0.0 || math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		errs = append(errs, configErr("lambda", lambda, "must be finite and non-negative"))
	}
	if !(mu > 0.0) || math.IsInf(mu, 0) {
		errs = append(errs, configErr("mu", mu, "must be positive and finite"))
	}
	if limit < 1 {
		errs = append(errs, configErr("limit", limit, "must be at least 1"))
	}
	if err := ReportErrs(errs); err != nil {
		return nil, err
	}

	A := lambda / mu
	erlang, err := ErlangC(R, A)
	if err != nil {
		return nil, err
	}

	probs := make([]float64, limit)
	if A == 0.0 {
		probs[0] = 1.0
		return probs, nil
	}

	// every server busy: p(j) = C (1-rho) rho^(j-R)
	rho := A / float64(R)
	busy := erlang * (1.0 - rho)
	for j := R; j < limit; j++ {
		probs[j] = busy * math.Pow(rho, float64(j-R))
	}

	// below R, p(j) = p(j+1) (j+1)/A
	next := busy
	for j := R - 1; j >= 0; j-- {
		next *= float64(j+1) / A
		if j < limit {
			probs[j] = next
		}
	}

	if err := checkFinite("aggregated occupancy", probs); err != nil {
		return nil, err
	}
	return probs, nil
}
