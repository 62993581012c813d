package jsqps

// sim-dists.go holds the samplers the simulation draws inter-arrival times and
// service requirements from.  Every sample is an inverse transform of one U01
// draw from an rngstream, so a stream fully determines a run.

import (
	"github.com/iti/rngstream"
	"gonum.org/v1/gonum/stat/distuv"
	"strings"
)

// a sampler maps a U01 draw to a sample
type sampler func(u01 float64) float64

// service distribution names accepted by the simulation
const (
	ExponentialService   = "exponential"
	UniformService       = "uniform"
	DeterministicService = "deterministic"
)

// newSampler returns the inverse transform of the named distribution with the given mean.
// "uniform" is uniform on [0, 2 mean]
func newSampler(dist string, mean float64) (sampler, error) {
	if !(mean > 0.0) {
		return nil, configErr("mean", mean, "must be positive")
	}
	switch strings.ToLower(dist) {
	case "", ExponentialService, "exp", "expon":
		d := distuv.Exponential{Rate: 1.0 / mean}
		return d.Quantile, nil

	case UniformService, "unif":
		d := distuv.Uniform{Min: 0.0, Max: 2.0 * mean}
		return d.Quantile, nil

	case DeterministicService, "constant", "const":
		return func(float64) float64 { return mean }, nil
	}
	return nil, configErr("service", dist, "is not one of exponential, uniform, deterministic")
}

// draw samples from s using the next U01 value of the stream
func (s sampler) draw(rng *rngstream.RngStream) float64 {
	return s(rng.RandU01())
}
