package jsqps

// transition.go holds the instantaneous transition rates of the JSQ-PS farm.
//
// Only two kinds of transitions exist.  A departure lowers one coordinate by one,
// and happens at rate Mu at every non-empty server: processor sharing serves all
// jobs present at aggregate rate Mu, whatever their number.  An arrival raises one
// coordinate by one, and only a coordinate that currently holds the minimum can
// receive it; with c servers tied at the minimum each receives Lambda/c.

// JSQRates is the transition-rate model for external arrival rate Lambda
// and per-server service rate Mu
type JSQRates struct {
	Lambda float64
	Mu     float64
}

// Rate returns the rate of the transition from state 'from' to state 'to'.
// Both must have the same length.  Anything other than a single +1 or -1 step in
// one coordinate has rate 0, as does an arrival at a non-minimal server
func (jr JSQRates) Rate(from, to []int) float64 {
	if len(from) != len(to) {
		return 0.0
	}

	changed := -1
	for pos := range from {
		if from[pos] == to[pos] {
			continue
		}
		if changed != -1 {
			// more than one coordinate moved
			return 0.0
		}
		changed = pos
	}
	if changed == -1 {
		return 0.0
	}

	switch to[changed] - from[changed] {
	case -1:
		return jr.Mu
	case 1:
		least, tied := minOccupancy(from)
		if from[changed] != least {
			return 0.0
		}
		return jr.Lambda / float64(tied)
	}
	return 0.0
}
