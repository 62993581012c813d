// Package jsqps computes sojourn-time distributions of join-shortest-queue
// processor-sharing (JSQ-PS) server farms.
//
// A farm of R processor-sharing servers receives Poisson arrivals at rate
// Lambda; each arrival joins a least-occupied server (ties split uniformly) and
// every non-empty server completes work at rate Mu.  The package builds the
// truncated continuous-time Markov chain of per-server occupancies, solves it for
// its stationary distribution, derives the arrival rate seen by one server as a
// function of its occupancy, and turns that into the sojourn-time CDF either by
// the Masuyama-Takine h(n,k) recursion or by the matrix exponential of a
// defective birth-death generator.
//
// A discrete-event simulation of the same farm (built on evtm) provides an
// empirical CDF for validation, and a sweep driver evaluates many (R, rho)
// configurations in parallel.
package jsqps

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// DefaultZero is the numerical zero used when Params.Zero is left unset
const DefaultZero = 1e-14

// SolveMethod selects how the stationary distribution is computed
type SolveMethod int

const (
	// LeastSquares solves the stacked system [P^T - I ; 1...1] pi = [0 ; 1] by QR
	LeastSquares SolveMethod = iota

	// Direct replaces the last balance equation with the normalization row and solves by LU
	Direct
)

var solveMethodToStr map[SolveMethod]string = map[SolveMethod]string{LeastSquares: "lstsq", Direct: "direct"}

func (sm SolveMethod) String() string {
	str, present := solveMethodToStr[sm]
	if !present {
		return fmt.Sprintf("SolveMethod(%d)", int(sm))
	}
	return str
}

// ParseSolveMethod maps a configuration string onto a SolveMethod.  The empty string
// selects LeastSquares
func ParseSolveMethod(name string) (SolveMethod, error) {
	switch strings.ToLower(name) {
	case "", "lstsq", "leastsquares", "least-squares":
		return LeastSquares, nil
	case "direct", "exact", "lu":
		return Direct, nil
	}
	return LeastSquares, configErr("solver", name, "is not one of lstsq, direct")
}

// Params carries everything needed to analyze one (lambda, mu, R, limit, infty)
// configuration.  A Params value is read-only; every structure derived from it
// is created fresh for the call that uses it.
type Params struct {
	Lambda  float64 // external arrival rate
	Mu      float64 // service rate of each server
	Servers int     // number of parallel PS servers, R

	// Limit is the per-server occupancy truncation of the Markov chain; states
	// have coordinates in [0, Limit)
	Limit int

	// Infty is the truncation used for the sojourn recursion, the Poisson series
	// and the defective generator
	Infty int

	// Zero is the numerical zero used by division guards and the CDF clip.
	// Zero == 0 selects DefaultZero
	Zero float64

	Solver SolveMethod

	// Logger receives warnings and progress; nil selects slog.Default()
	Logger *slog.Logger
}

// Rho returns the per-server load lambda/(R mu)
func (p Params) Rho() float64 {
	return p.Lambda / (float64(p.Servers) * p.Mu)
}

func (p Params) zero() float64 {
	if p.Zero > 0.0 {
		return p.Zero
	}
	return DefaultZero
}

func (p Params) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// validate checks the parameters that every analysis needs, and Limit as well
// when a Markov chain is going to be built
func (p Params) validate(needChain bool) error {
	errs := []error{}
	if p.Servers < 1 {
		errs = append(errs, configErr("servers", p.Servers, "must be at least 1"))
	}
	if !(p.Mu > 0.0) || math.IsInf(p.Mu, 0) {
		errs = append(errs, configErr("mu", p.Mu, "must be positive and finite"))
	}
	// lambda = 0 is an empty farm: the chain's only closed class is the empty state
	if p.Lambda < 0.0 || math.IsNaN(p.Lambda) || math.IsInf(p.Lambda, 0) {
		errs = append(errs, configErr("lambda", p.Lambda, "must be finite and non-negative"))
	}
	if p.Infty < 1 {
		errs = append(errs, configErr("infty", p.Infty, "must be at least 1"))
	}
	if p.Zero < 0.0 || math.IsNaN(p.Zero) {
		errs = append(errs, configErr("zero", p.Zero, "must be non-negative"))
	}
	if needChain && p.Limit < 1 {
		errs = append(errs, configErr("limit", p.Limit, "must be at least 1"))
	}
	return ReportErrs(errs)
}
