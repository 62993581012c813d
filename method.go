package jsqps

// method.go composes an analysis from three independent choices: where lambda(n)
// comes from, which occupancy-on-arrival weights A(n) are used, and which engine
// turns them into Pr[sojourn > x].  The named presets are the methods A-F of the
// JSQ-PS study plus the plain M/M/1-PS baseline.

import (
	"fmt"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"math"
	"strings"
	"time"
)

// tailTolerance is the Poisson mass beyond infty accepted at the largest time point
const tailTolerance = 1e-6

// WeightStrategy selects the occupancy-on-arrival weights A(n)
type WeightStrategy int

const (
	// StationaryWeights takes A(n) = Pr[least-loaded server holds n] from the solved chain
	StationaryWeights WeightStrategy = iota

	// ProductWeights takes the birth-death product form A(n) ~ prod_{i<n} lambda(i)/mu
	ProductWeights
)

var weightStrategyToStr map[WeightStrategy]string = map[WeightStrategy]string{
	StationaryWeights: "stationary", ProductWeights: "product"}

func (ws WeightStrategy) String() string {
	str, present := weightStrategyToStr[ws]
	if !present {
		return fmt.Sprintf("WeightStrategy(%d)", int(ws))
	}
	return str
}

// EngineKind selects how the conditional survival function is evaluated
type EngineKind int

const (
	// RecursiveEngine uses the h(n,k) recursion and its Poisson mixture
	RecursiveEngine EngineKind = iota

	// DefectiveEngine uses the matrix exponential of the defective generator
	DefectiveEngine
)

var engineKindToStr map[EngineKind]string = map[EngineKind]string{
	RecursiveEngine: "recursive", DefectiveEngine: "defective"}

func (ek EngineKind) String() string {
	str, present := engineKindToStr[ek]
	if !present {
		return fmt.Sprintf("EngineKind(%d)", int(ek))
	}
	return str
}

// A SurvivalEngine evaluates Pr[sojourn > x | n others present on arrival] and
// its mixture over a weight vector
type SurvivalEngine interface {
	Survival(x float64, ahead int) float64
	MixedSurvival(weights, times []float64) []float64
}

// Method is one combination of rate strategy, weight strategy and engine
type Method struct {
	Name    string
	Rates   RateStrategy
	Weights WeightStrategy
	Engine  EngineKind
}

var methods []Method = []Method{
	{Name: "methodA", Rates: ExactRates, Weights: StationaryWeights, Engine: DefectiveEngine},
	{Name: "methodB", Rates: ExactRates, Weights: ProductWeights, Engine: DefectiveEngine},
	{Name: "methodC", Rates: ApproxRates, Weights: ProductWeights, Engine: DefectiveEngine},
	{Name: "methodD", Rates: ExactRates, Weights: StationaryWeights, Engine: RecursiveEngine},
	{Name: "methodE", Rates: ExactRates, Weights: ProductWeights, Engine: RecursiveEngine},
	{Name: "methodF", Rates: ApproxRates, Weights: ProductWeights, Engine: RecursiveEngine},
	{Name: "mm1ps", Rates: ConstantRates, Weights: ProductWeights, Engine: RecursiveEngine},
}

// MethodNames lists the names of the preset methods
func MethodNames() []string {
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		names = append(names, m.Name)
	}
	return names
}

// MethodByName looks up a preset.  "methodD", "D" and "d" all name method D
func MethodByName(name string) (Method, error) {
	want := strings.ToLower(name)
	if len(want) == 1 {
		want = "method" + want
	}
	idx := slices.IndexFunc(methods, func(m Method) bool { return strings.ToLower(m.Name) == want })
	if idx < 0 {
		return Method{}, configErr("method", name, "is not one of "+strings.Join(MethodNames(), ","))
	}
	return methods[idx], nil
}

// needsChain reports whether the method solves the Markov chain
func (m Method) needsChain() bool {
	return m.Rates == ExactRates || m.Weights == StationaryWeights
}

// Result is the output of one analysis: a CDF aligned with the time grid, the
// intermediate sequences that produced it, and the wall time it took
type Result struct {
	Method  string        `json:"method" yaml:"method"`
	Servers int           `json:"servers" yaml:"servers"`
	Lambda  float64       `json:"lambda" yaml:"lambda"`
	Mu      float64       `json:"mu" yaml:"mu"`
	Rho     float64       `json:"rho" yaml:"rho"`
	Limit   int           `json:"limit" yaml:"limit"`
	Infty   int           `json:"infty" yaml:"infty"`
	Times   []float64     `json:"times" yaml:"times"`
	CDF     []float64     `json:"cdf" yaml:"cdf"`
	Rates   []float64     `json:"rates" yaml:"rates"`
	Weights []float64     `json:"weights" yaml:"weights"`
	Flags   []string      `json:"flags,omitempty" yaml:"flags,omitempty"`
	Runtime time.Duration `json:"runtime" yaml:"runtime"`
}

// Analyze computes the sojourn-time CDF at every point of times.  Every structure
// it builds (chain, rate sequence, kernel or generator) belongs to this call alone,
// so two calls with the same arguments produce the same result
func (m Method) Analyze(p Params, times []float64) (*Result, error) {
	start := time.Now()
	logger := p.logger().With("method", m.Name, "servers", p.Servers, "lambda", p.Lambda)

	errs := []error{p.validate(m.needsChain())}
	if m.Rates != ExactRates && m.Weights == StationaryWeights {
		errs = append(errs, configErr("weights", m.Weights.String(), "need the solved chain, which "+m.Rates.String()+" rates do not provide"))
	}
	for i, x := range times {
		if x < 0.0 || math.IsNaN(x) || math.IsInf(x, 0) {
			errs = append(errs, configErr(fmt.Sprintf("times[%d]", i), x, "must be finite and non-negative"))
			break
		}
	}
	if err := ReportErrs(errs); err != nil {
		return nil, err
	}

	res := &Result{Method: m.Name, Servers: p.Servers, Lambda: p.Lambda, Mu: p.Mu,
		Rho: p.Rho(), Infty: p.Infty, Times: slices.Clone(times)}

	var ag *Aggregator
	if m.needsChain() {
		res.Limit = p.Limit
		chain, err := SolveChain(p)
		if err != nil {
			return nil, err
		}
		ag = NewAggregator(chain.Dist, p.zero())
	}

	var rates *ArrivalRates
	switch m.Rates {
	case ExactRates:
		rates = ExactArrivalRates(p.Lambda, ag.ArrivalShares(), p.Infty)
		if ag.Guarded > 0 {
			logger.Debug("arrival shares guarded against near-zero mass", "count", ag.Guarded)
		}
	case ApproxRates:
		var err error
		rates, err = ApproxArrivalRates(p.Rho(), p.Mu, p.Servers, p.Infty)
		if err != nil {
			return nil, err
		}
	case ConstantRates:
		rates = ConstantArrivalRates(p.Lambda/float64(p.Servers), p.Infty)
	default:
		return nil, configErr("rates", m.Rates, "is not a known rate strategy")
	}
	for _, flag := range rates.Flags {
		logger.Warn("arrival rate flag", "flag", flag)
	}
	res.Rates = rates.Rates
	res.Flags = append(res.Flags, rates.Flags...)

	switch m.Weights {
	case StationaryWeights:
		res.Weights = ag.MinOccupancy()
	case ProductWeights:
		weights, err := ProductFormWeights(rates.Rates, p.Mu)
		if err != nil {
			return nil, err
		}
		res.Weights = weights
	default:
		return nil, configErr("weights", m.Weights, "is not a known weight strategy")
	}

	engine, err := m.engine(rates.Rates, p)
	if err != nil {
		return nil, err
	}

	if kn, ok := engine.(*Kernel); ok && len(times) > 0 {
		tmax := floats.Max(times)
		if tail := kn.PoissonTail(tmax); tail > tailTolerance {
			logger.Warn("poisson series truncated by infty", "infty", p.Infty, "x", tmax, "tail", tail)
			res.Flags = append(res.Flags, fmt.Sprintf("poisson mass %.3g lies beyond infty=%d at x=%g, raise infty", tail, p.Infty, tmax))
		}
	}

	zero := p.zero()
	surv := engine.MixedSurvival(res.Weights, times)
	res.CDF = make([]float64, len(times))
	for i, w := range surv {
		res.CDF[i] = math.Max(zero, 1.0-w)
	}
	if err := checkFinite("sojourn-time cdf", res.CDF); err != nil {
		return nil, err
	}
	for i, c := range res.CDF {
		if c > 1.0+probTolerance {
			return nil, &InstabilityError{Stage: "sojourn-time cdf", Index: i, Value: c}
		}
	}

	res.Runtime = time.Since(start)
	logger.Debug("analysis complete", "points", len(times), "runtime", res.Runtime)
	return res, nil
}

// engine builds the survival engine selected by m for one rate sequence
func (m Method) engine(rates []float64, p Params) (SurvivalEngine, error) {
	switch m.Engine {
	case RecursiveEngine:
		if m.Rates == ConstantRates {
			return NewHomogeneousKernel(p.Lambda/float64(p.Servers), p.Mu, p.Infty)
		}
		return NewKernel(rates, p.Mu)
	case DefectiveEngine:
		return NewDefectiveGenerator(rates, p.Mu)
	}
	return nil, configErr("engine", m.Engine, "is not a known engine")
}
