package jsqps

// aggregate.go reduces a stationary distribution over occupancy tuples to
// distributions over a single integer: total occupancy, occupancy of the
// least-loaded server, occupancy of one designated server, and the share of
// arrivals a server receives while it holds n customers.

import "math"

// Aggregator computes occupancy summaries of a StationaryDistribution.
// Entries smaller than Zero count as zero in the division guards
type Aggregator struct {
	dist *StationaryDistribution
	zero float64

	// Guarded counts the occupancies for which ArrivalShares substituted 0
	// because of a near-zero denominator
	Guarded int
}

// NewAggregator is a constructor.  zero <= 0 selects DefaultZero
func NewAggregator(dist *StationaryDistribution, zero float64) *Aggregator {
	if zero <= 0.0 {
		zero = DefaultZero
	}
	return &Aggregator{dist: dist, zero: zero}
}

// TotalOccupancy returns the probability of each total number of customers,
// indexed 0..R(Limit-1)
func (ag *Aggregator) TotalOccupancy() []float64 {
	space := ag.dist.Space
	probs := make([]float64, space.Servers()*(space.Limit()-1)+1)
	for idx, p := range ag.dist.Probs {
		probs[totalOccupancy(space.State(idx))] += p
	}
	return probs
}

// MinOccupancy returns n_probs: the probability that the least-loaded server
// holds n customers, for n in [0, Limit).  This is the occupancy an arrival
// finds at the server it joins.  Negative round-off in the solved
// distribution is floored at zero
func (ag *Aggregator) MinOccupancy() []float64 {
	space := ag.dist.Space
	probs := make([]float64, space.Limit())
	for idx, p := range ag.dist.Probs {
		least, _ := minOccupancy(space.State(idx))
		probs[least] += math.Max(p, 0.0)
	}
	return probs
}

// MarginalOccupancy returns the distribution of the number of customers at one server
func (ag *Aggregator) MarginalOccupancy(server int) []float64 {
	space := ag.dist.Space
	probs := make([]float64, space.Limit())
	if server < 0 || server >= space.Servers() {
		return probs
	}
	for idx, p := range ag.dist.Probs {
		probs[space.State(idx)[server]] += math.Max(p, 0.0)
	}
	return probs
}

// ArrivalShares returns, for each n in [0, Limit), the probability that an arrival
// is routed to server 0 given that server 0 holds n customers.  By symmetry the
// designated server is arbitrary.  When the probability of server 0 holding n, or
// the routed mass, is below the numerical zero the share is 0 and Guarded is incremented
func (ag *Aggregator) ArrivalShares() []float64 {
	space := ag.dist.Space
	limit := space.Limit()
	held := make([]float64, limit)
	routed := make([]float64, limit)

	for idx, p := range ag.dist.Probs {
		state := space.State(idx)
		n := state[0]
		held[n] += p
		least, tied := minOccupancy(state)
		if n == least {
			routed[n] += p / float64(tied)
		}
	}

	shares := make([]float64, limit)
	for n := 0; n < limit; n++ {
		if held[n] <= ag.zero || routed[n] <= ag.zero {
			ag.Guarded++
			continue
		}
		share := routed[n] / held[n]
		if share <= ag.zero {
			ag.Guarded++
			continue
		}
		shares[n] = share
	}
	return shares
}
