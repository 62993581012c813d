package jsqps

// sweep.go evaluates every (method, R, rho) of a SweepCfg on a bounded pool of
// workers.  Each analysis builds its own chain, rates and engine, so jobs share
// nothing but the read-only configuration.

import (
	"context"
	"fmt"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"time"
)

// SweepJob identifies one analysis of a sweep
type SweepJob struct {
	Method  Method
	Servers int
	Rho     float64
}

// Jobs expands the configuration into its analyses, ordered by method, R and rho
func (sc *SweepCfg) Jobs() ([]SweepJob, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	jobs := []SweepJob{}
	for _, name := range sc.Methods {
		m, err := MethodByName(name)
		if err != nil {
			return nil, err
		}
		for _, R := range sc.Sizes() {
			for _, rho := range sc.Loads() {
				jobs = append(jobs, SweepJob{Method: m, Servers: R, Rho: rho})
			}
		}
	}
	return jobs, nil
}

// workerLimit maps the configured worker count onto errgroup.SetLimit
func (sc *SweepCfg) workerLimit() int {
	if sc.Workers < 1 {
		return -1
	}
	return sc.Workers
}

// Sweep runs every analysis of sc.  A job that fails stops the sweep and its error
// is returned; cancellation of ctx is checked before each job starts.  Results are
// ordered by method (in configuration order), then R, then rho
func Sweep(ctx context.Context, sc *SweepCfg, runLog *RunLog, logger *slog.Logger) ([]*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	jobs, err := sc.Jobs()
	if err != nil {
		return nil, err
	}
	times, err := sc.Times()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	logger.Info("sweep starting", "name", sc.Name, "jobs", len(jobs), "workers", sc.Workers)

	results := make([]*Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.workerLimit())
	for idx, job := range jobs {
		idx, job := idx, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			params, err := sc.Params(job.Servers, job.Rho, logger)
			if err != nil {
				return err
			}
			res, err := job.Method.Analyze(params, times)
			if err != nil {
				return fmt.Errorf("%s R=%d rho=%g: %w", job.Method.Name, job.Servers, job.Rho, err)
			}
			// report the grid load rather than lambda/(R mu), which may differ in the last bit
			res.Rho = job.Rho
			runLog.AddRun(res)
			logger.Debug("sweep job done", "method", res.Method, "servers", res.Servers, "rho", res.Rho, "runtime", res.Runtime)
			results[idx] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	order := make(map[string]int, len(sc.Methods))
	for i, name := range sc.Methods {
		m, _ := MethodByName(name)
		if _, present := order[m.Name]; !present {
			order[m.Name] = i
		}
	}
	slices.SortStableFunc(results, func(a, b *Result) int {
		switch {
		case order[a.Method] != order[b.Method]:
			return order[a.Method] - order[b.Method]
		case a.Servers != b.Servers:
			return a.Servers - b.Servers
		case a.Rho < b.Rho:
			return -1
		case a.Rho > b.Rho:
			return 1
		}
		return 0
	})

	logger.Info("sweep complete", "name", sc.Name, "jobs", len(jobs), "elapsed", time.Since(start))
	return results, nil
}

// WriteSweep writes the CDF table of every result under sc.OutDir and returns the paths written
func WriteSweep(sc *SweepCfg, results []*Result) ([]string, error) {
	paths := make([]string, 0, len(results))
	for _, res := range results {
		filename, err := WriteCDFTable(sc.OutDir, res)
		if err != nil {
			return paths, err
		}
		paths = append(paths, filename)
	}
	return paths, nil
}

// Comparison pairs an analytic CDF with the simulated one on the same grid
type Comparison struct {
	Method   string     `json:"method" yaml:"method"`
	Servers  int        `json:"servers" yaml:"servers"`
	Rho      float64    `json:"rho" yaml:"rho"`
	Distance float64    `json:"distance" yaml:"distance"`
	Analytic *Result    `json:"analytic" yaml:"analytic"`
	Sim      *SimResult `json:"sim" yaml:"sim"`
}

// Compare runs the sweep of sc, simulates each (R, rho) it covers once, and measures
// the Wasserstein distance between every analytic CDF and the mean simulated CDF
func Compare(ctx context.Context, sc *SweepCfg, runLog *RunLog, logger *slog.Logger) ([]Comparison, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results, err := Sweep(ctx, sc, runLog, logger)
	if err != nil {
		return nil, err
	}
	times, err := sc.Times()
	if err != nil {
		return nil, err
	}
	reps := max(sc.Repetitions, 1)

	type farmLoad struct {
		servers int
		rho     float64
	}
	cases := []farmLoad{}
	for _, R := range sc.Sizes() {
		for _, rho := range sc.Loads() {
			cases = append(cases, farmLoad{servers: R, rho: rho})
		}
	}

	sims := make([]*SimResult, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.workerLimit())
	for idx, fl := range cases {
		idx, fl := idx, fl
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sr, err := Simulate(sc.SimConfig(fl.servers, fl.rho), reps, times)
			if err != nil {
				return fmt.Errorf("simulation R=%d rho=%g: %w", fl.servers, fl.rho, err)
			}
			logger.Debug("simulation done", "servers", fl.servers, "rho", fl.rho, "samples", sr.Summaries[0].Count)
			sims[idx] = sr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	comps := make([]Comparison, 0, len(results))
	for _, res := range results {
		idx := slices.IndexFunc(cases, func(fl farmLoad) bool { return fl.servers == res.Servers && fl.rho == res.Rho })
		if idx < 0 {
			return nil, fmt.Errorf("no simulation for R=%d rho=%g", res.Servers, res.Rho)
		}
		sr := sims[idx]
		dist, err := WassersteinDistance(res.CDF, sr.MeanCDF(), sc.SojournStep)
		if err != nil {
			return nil, err
		}
		comps = append(comps, Comparison{Method: res.Method, Servers: res.Servers, Rho: res.Rho,
			Distance: dist, Analytic: res, Sim: sr})
	}
	return comps, nil
}
