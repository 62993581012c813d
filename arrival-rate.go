package jsqps

// arrival-rate.go derives lambda(n), the rate at which one server of the farm
// receives new customers while it holds n of them, and the occupancy-on-arrival
// weights that go with a rate sequence.

import (
	"fmt"
	"gonum.org/v1/gonum/floats"
	"math"
)

// RateStrategy selects how lambda(n) is obtained
type RateStrategy int

const (
	// ExactRates reads lambda(n) off the solved Markov chain
	ExactRates RateStrategy = iota

	// ApproxRates uses the closed-form fits of Gupta et al. (2007) in rho and R;
	// no chain is solved
	ApproxRates

	// ConstantRates uses lambda(n) = Lambda/R: each server of a randomly routed
	// farm is an M/M/1-PS queue
	ConstantRates
)

var rateStrategyToStr map[RateStrategy]string = map[RateStrategy]string{
	ExactRates: "exact", ApproxRates: "approx", ConstantRates: "constant"}

func (rs RateStrategy) String() string {
	str, present := rateStrategyToStr[rs]
	if !present {
		return fmt.Sprintf("RateStrategy(%d)", int(rs))
	}
	return str
}

// ArrivalRates is a rate sequence lambda(0..Infty-1).  Flags lists conditions
// worth a human look (e.g. a fit used outside the range it was fitted on); a
// flagged sequence is still returned unmodified
type ArrivalRates struct {
	Rates []float64
	Flags []string
}

// Max returns the largest rate of the sequence
func (ar *ArrivalRates) Max() float64 {
	if len(ar.Rates) == 0 {
		return 0.0
	}
	return floats.Max(ar.Rates)
}

// ExactArrivalRates scales the arrival shares of a solved chain by the external rate.
// The share at the top occupancy Limit-1 is a truncation artefact (arrivals there
// are blocked), so lambda(n) = Lambda*share(min(n, Limit-2)), repeating the last kept
// value out to infty
func ExactArrivalRates(lambda float64, shares []float64, infty int) *ArrivalRates {
	last := len(shares) - 2
	if last < 0 {
		last = 0
	}
	known := make([]float64, last+1)
	for n := 0; n <= last && n < len(shares); n++ {
		known[n] = lambda * shares[n]
	}
	return &ArrivalRates{Rates: extendFlat(known, infty)}
}

// ConstantArrivalRates returns lambda(n) = lambda for n in [0, infty)
func ConstantArrivalRates(lambda float64, infty int) *ArrivalRates {
	return &ArrivalRates{Rates: extendFlat([]float64{lambda}, infty)}
}

// extendFlat returns a sequence of length infty that agrees with known and then
// repeats its last entry
func extendFlat(known []float64, infty int) []float64 {
	rates := make([]float64, infty)
	if len(known) == 0 {
		return rates
	}
	for n := 0; n < infty; n++ {
		if n < len(known) {
			rates[n] = known[n]
		} else {
			rates[n] = known[len(known)-1]
		}
	}
	return rates
}

// ApproxArrivalRates evaluates the curve fits of
//
//	Gupta, Harchol-Balter, Sigman, Whitt. "Analysis of join-the-shortest-queue routing
//	for web server farms." Performance Evaluation 64.9-12 (2007): 1062-1081.
//
// eq. (12) for n=0, (9) for n=1, (11) for n=2 and (7), rho^R mu, for n >= 3.
// The coefficients are empirical and reproduced as published.  rho outside (0,1) is
// rejected; R < 2 or a negative fitted rate is flagged but left as computed
func ApproxArrivalRates(rho, mu float64, servers, infty int) (*ArrivalRates, error) {
	if !(rho > 0.0 && rho < 1.0) {
		return nil, configErr("rho", rho, "must lie in (0,1) for the fitted arrival rates")
	}
	if servers < 1 {
		return nil, configErr("servers", servers, "must be at least 1")
	}
	if infty < 1 {
		return nil, configErr("infty", infty, "must be at least 1")
	}

	R := float64(servers)
	pow := math.Pow

	lamb2 := func() float64 {
		c3 := -.29
		c2 := .8822
		c1 := -.5349
		c0 := 1.0112
		c2_ := -.1864
		c1_ := 1.195
		c0_ := -.016

		up := c3*pow(rho, 3) + c2*pow(rho, 2) + c1*rho + c0
		vp := c2_*pow(rho, 2) + c1_*rho + c0_
		return mu * (up * pow(vp, R))
	}

	lamb0 := func() float64 {
		ap := rho / (1 - rho)
		bp := (-.0263*pow(rho, 2) + .0054*rho + .1155) / (pow(rho, 2) - 1.939*rho + .9534)
		cp := -6.2973*pow(rho, 4) + 14.3382*pow(rho, 3) - 12.3532*pow(rho, 2) + 6.2557*rho - 1.005
		dp := (-226.1839*pow(rho, 2) + 342.3814*rho + 10.2851) /
			(pow(rho, 3) - 146.2751*pow(rho, 2) - 481.1256*rho + 599.9166)
		ep := .4462*pow(rho, 3) - 1.8317*pow(rho, 2) + 2.4376*rho - .0512
		return mu * (ap - bp*pow(cp, R) - dp*pow(ep, R))
	}

	l0 := lamb0()
	l2 := lamb2()
	num := mu/l0*(rho-pow(rho, R+1))/(1-rho) + pow(rho, R) - 1
	den := 1 + l2/mu - pow(rho, R)
	l1 := mu * num / den
	tail := pow(rho, R) * mu

	known := []float64{l0, l1, l2, tail}
	if err := checkFinite("fitted arrival rate", known); err != nil {
		return nil, err
	}

	ar := &ArrivalRates{Rates: extendFlat(known, infty)}
	if servers < 2 {
		ar.Flags = append(ar.Flags, fmt.Sprintf("fitted arrival rates used with R=%d, fits were made for farms of 2 or more servers", servers))
	}
	for n, v := range known[:3] {
		if v < 0.0 {
			ar.Flags = append(ar.Flags, fmt.Sprintf("fitted lambda(%d)=%g is negative at rho=%g R=%d", n, v, rho, servers))
		}
	}
	return ar, nil
}

// ProductFormWeights returns the birth-death occupancy distribution
// A(n) = p0 prod_{i<n} lambda(i)/mu over n in [0, len(rates)), normalized to sum
// to one.  Products are accumulated as logarithms so long sequences do not overflow
func ProductFormWeights(rates []float64, mu float64) ([]float64, error) {
	if len(rates) == 0 {
		return nil, configErr("rates", 0, "sequence is empty")
	}
	logW := make([]float64, len(rates))
	for n := 1; n < len(rates); n++ {
		r := rates[n-1]
		if r < 0.0 {
			return nil, &InstabilityError{Stage: "product-form weight rate", Index: n - 1, Value: r}
		}
		logW[n] = logW[n-1] + math.Log(r/mu)
	}

	top := floats.Max(logW)
	weights := make([]float64, len(rates))
	for n, lw := range logW {
		weights[n] = math.Exp(lw - top)
	}
	total := floats.Sum(weights)
	floats.Scale(1.0/total, weights)

	if err := checkFinite("product-form weights", weights); err != nil {
		return nil, err
	}
	return weights, nil
}
