package jsqps

// sim-oracle.go is a discrete-event simulation of the JSQ-PS farm, used as the
// reference the analytic methods are compared against.  Customers arrive as a
// Poisson stream, join a server holding the fewest jobs (ties broken uniformly at
// random), and share that server's unit capacity equally with the jobs already there.

import (
	"fmt"
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	"github.com/iti/rngstream"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
	"math"
	"sync"
)

// SimConfig describes one simulation run
type SimConfig struct {
	Lambda  float64 // external arrival rate
	Mu      float64 // service rate, the reciprocal of the mean requirement
	Servers int
	MaxTime float64 // simulated horizon
	Warmup  float64 // records arriving within Warmup of either end are discarded
	Service string  // exponential, uniform or deterministic

	// Seed labels the random streams of the run.  Every stream created is a fresh
	// substream of the generator, so no two runs share random numbers
	Seed string
}

func (sc *SimConfig) validate() error {
	errs := []error{}
	if !(sc.Lambda > 0.0) {
		errs = append(errs, configErr("lambda", sc.Lambda, "must be positive"))
	}
	if !(sc.Mu > 0.0) {
		errs = append(errs, configErr("mu", sc.Mu, "must be positive"))
	}
	if sc.Servers < 1 {
		errs = append(errs, configErr("servers", sc.Servers, "must be at least 1"))
	}
	if !(sc.MaxTime > 0.0) || math.IsInf(sc.MaxTime, 0) {
		errs = append(errs, configErr("maxtime", sc.MaxTime, "must be positive and finite"))
	}
	if sc.Warmup < 0.0 || !(2.0*sc.Warmup < sc.MaxTime) {
		errs = append(errs, configErr("warmup", sc.Warmup, "must be non-negative and less than half of maxtime"))
	}
	return ReportErrs(errs)
}

// SojournRecord is what the simulation keeps about one completed job
type SojournRecord struct {
	Server    int     `json:"server" yaml:"server"`
	Arrival   float64 `json:"arrival" yaml:"arrival"`
	Departure float64 `json:"departure" yaml:"departure"`
}

// Sojourn returns the time the job spent in the system
func (sr SojournRecord) Sojourn() float64 {
	return sr.Departure - sr.Arrival
}

// rngstream's package state is shared, so streams are created one at a time
var streamMu sync.Mutex

func newStream(name string) *rngstream.RngStream {
	streamMu.Lock()
	defer streamMu.Unlock()
	return rngstream.New(name)
}

// Simulation holds the state of one run of the farm
type Simulation struct {
	cfg     SimConfig
	evtMgr  *evtm.EventManager
	servers []*psServer

	// separate streams for arrivals, routing and service keep each
	// random process unaffected by how often the others are sampled
	arrivalRng *rngstream.RngStream
	routeRng   *rngstream.RngStream
	serviceRng *rngstream.RngStream

	interArrival sampler
	service      sampler

	nextID  int
	records []SojournRecord
	tied    []*psServer // scratch space for routing
}

// NewSimulation builds a farm ready to Run
func NewSimulation(cfg SimConfig) (*Simulation, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	interArrival, err := newSampler(ExponentialService, 1.0/cfg.Lambda)
	if err != nil {
		return nil, err
	}
	service, err := newSampler(cfg.Service, 1.0/cfg.Mu)
	if err != nil {
		return nil, err
	}

	sim := new(Simulation)
	sim.cfg = cfg
	sim.evtMgr = evtm.New()
	sim.interArrival = interArrival
	sim.service = service
	sim.arrivalRng = newStream(cfg.Seed + "-arrival")
	sim.routeRng = newStream(cfg.Seed + "-route")
	sim.serviceRng = newStream(cfg.Seed + "-service")

	sim.servers = make([]*psServer, cfg.Servers)
	for idx := range sim.servers {
		sim.servers[idx] = createPSServer(idx, sim.departure(idx))
	}
	sim.tied = make([]*psServer, 0, cfg.Servers)
	return sim, nil
}

// departure returns the callback server idx makes when a job leaves it.
// Only jobs whose arrival falls inside the observation window are recorded
func (sim *Simulation) departure(idx int) func(*job, float64) {
	return func(jb *job, now float64) {
		if jb.arrival > sim.cfg.Warmup && jb.arrival < sim.cfg.MaxTime-sim.cfg.Warmup {
			sim.records = append(sim.records, SojournRecord{Server: idx, Arrival: jb.arrival, Departure: now})
		}
	}
}

// route returns a server with the fewest jobs, chosen uniformly among ties
func (sim *Simulation) route() *psServer {
	sim.tied = sim.tied[:0]
	least := math.MaxInt
	for _, srv := range sim.servers {
		occ := srv.occupancy()
		if occ < least {
			least = occ
			sim.tied = sim.tied[:0]
		}
		if occ == least {
			sim.tied = append(sim.tied, srv)
		}
	}
	if len(sim.tied) == 1 {
		return sim.tied[0]
	}
	pick := int(sim.routeRng.RandU01() * float64(len(sim.tied)))
	return sim.tied[min(pick, len(sim.tied)-1)]
}

// jobArrival is the event handler for a new customer.  It routes the job,
// puts it into service and schedules the next arrival
func jobArrival(evtMgr *evtm.EventManager, context any, data any) any {
	sim := context.(*Simulation)
	jb := &job{id: sim.nextID, arrival: evtMgr.CurrentSeconds()}
	sim.nextID++

	srv := sim.route()
	srv.admit(evtMgr, jb, sim.service.draw(sim.serviceRng))

	gap := sim.interArrival.draw(sim.arrivalRng)
	evtMgr.Schedule(sim, nil, jobArrival, vrtime.SecondsToTime(gap))
	return nil
}

// Run simulates the farm up to MaxTime and returns the records of the jobs that
// arrived inside the observation window and completed before MaxTime
func (sim *Simulation) Run() []SojournRecord {
	gap := sim.interArrival.draw(sim.arrivalRng)
	sim.evtMgr.Schedule(sim, nil, jobArrival, vrtime.SecondsToTime(gap))
	sim.evtMgr.Run(sim.cfg.MaxTime)
	return sim.records
}

// Sojourns returns the sojourn times of the records kept so far
func (sim *Simulation) Sojourns() []float64 {
	return sojourns(sim.records)
}

func sojourns(records []SojournRecord) []float64 {
	vals := make([]float64, len(records))
	for i, rec := range records {
		vals[i] = rec.Sojourn()
	}
	return vals
}

// SimSummary describes the sojourn sample of one repetition
type SimSummary struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	Median float64 `json:"median" yaml:"median"`
	P95    float64 `json:"p95" yaml:"p95"`
}

// Summarize computes the summary statistics of a sojourn sample
func Summarize(samples []float64) SimSummary {
	ss := SimSummary{Count: len(samples)}
	if len(samples) == 0 {
		return ss
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	ss.Mean, ss.StdDev = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		ss.StdDev = 0.0
	}
	ss.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	ss.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return ss
}

// SimResult gathers the empirical CDFs of independent repetitions on one time grid
type SimResult struct {
	Servers   int          `json:"servers" yaml:"servers"`
	Lambda    float64      `json:"lambda" yaml:"lambda"`
	Mu        float64      `json:"mu" yaml:"mu"`
	Service   string       `json:"service" yaml:"service"`
	Times     []float64    `json:"times" yaml:"times"`
	CDFs      [][]float64  `json:"cdfs" yaml:"cdfs"`
	Summaries []SimSummary `json:"summaries" yaml:"summaries"`
}

// MeanCDF returns the pointwise average of the repetitions' CDFs
func (sr *SimResult) MeanCDF() []float64 {
	mean := make([]float64, len(sr.Times))
	if len(sr.CDFs) == 0 {
		return mean
	}
	col := make([]float64, len(sr.CDFs))
	for i := range sr.Times {
		for rep, cdf := range sr.CDFs {
			col[rep] = cdf[i]
		}
		mean[i] = stat.Mean(col, nil)
	}
	return mean
}

// Simulate runs repetitions independent simulations of cfg and evaluates the
// empirical sojourn-time CDF of each on times.  Each repetition draws from its own
// substreams, labelled with cfg.Seed and the repetition number
func Simulate(cfg SimConfig, repetitions int, times []float64) (*SimResult, error) {
	if repetitions < 1 {
		return nil, configErr("repetitions", repetitions, "must be at least 1")
	}
	res := &SimResult{Servers: cfg.Servers, Lambda: cfg.Lambda, Mu: cfg.Mu,
		Service: cfg.Service, Times: slices.Clone(times)}

	for rep := 0; rep < repetitions; rep++ {
		repCfg := cfg
		repCfg.Seed = fmt.Sprintf("%s-rep%d", cfg.Seed, rep)
		sim, err := NewSimulation(repCfg)
		if err != nil {
			return nil, err
		}
		samples := sojourns(sim.Run())
		res.CDFs = append(res.CDFs, EmpiricalCDF(samples, times))
		res.Summaries = append(res.Summaries, Summarize(samples))
	}
	return res, nil
}
