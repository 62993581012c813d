package jsqps

// desc-sweep.go holds the description of a sweep over farm sizes and loads, and
// its serialization to and from YAML or JSON.

import (
	"encoding/json"
	"fmt"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
	"log/slog"
	"math"
	"os"
	"path"
	"strconv"
)

// A SweepCfg describes a batch of analyses: every named method is evaluated for
// every farm size R in [RMin, RMax] and every load rho on the grid
// RhoMin, RhoMin+RhoStep, ... RhoMax, with lambda = R rho Mu
type SweepCfg struct {
	// Name identifies the sweep in logs and run records
	Name string `json:"name" yaml:"name"`

	// Methods lists preset names, see MethodByName
	Methods []string `json:"method" yaml:"method"`

	RMin    int     `json:"rmin" yaml:"rmin"`
	RMax    int     `json:"rmax" yaml:"rmax"`
	RhoMin  float64 `json:"rhomin" yaml:"rhomin"`
	RhoMax  float64 `json:"rhomax" yaml:"rhomax"`
	RhoStep float64 `json:"rhostep" yaml:"rhostep"`
	Mu      float64 `json:"mu" yaml:"mu"`

	// MCLimit gives the chain truncation per farm size, keyed by R written as a
	// decimal string.  The key "default" covers sizes not listed
	MCLimit map[string]int `json:"mclimit" yaml:"mclimit"`

	Infty       int     `json:"infty" yaml:"infty"`
	SojournMax  float64 `json:"sojournmax" yaml:"sojournmax"`
	SojournStep float64 `json:"sojournstep" yaml:"sojournstep"`
	Zero        float64 `json:"zero" yaml:"zero"`
	Solver      string  `json:"solver" yaml:"solver"`

	// simulation settings, used when comparing against the simulated farm
	MaxTime     float64 `json:"maxtime" yaml:"maxtime"`
	Warmup      float64 `json:"warmup" yaml:"warmup"`
	Repetitions int     `json:"repetitions" yaml:"repetitions"`
	Service     string  `json:"service" yaml:"service"`
	Seed        string  `json:"seed" yaml:"seed"`

	// Workers bounds the number of analyses run at once; 0 means one per job
	Workers int    `json:"workers" yaml:"workers"`
	OutDir  string `json:"outdir" yaml:"outdir"`
}

// CreateSweepCfg is a constructor.  The values it fills in are those used for
// the published comparisons of the methods
func CreateSweepCfg(name string) *SweepCfg {
	sc := new(SweepCfg)
	sc.Name = name
	sc.Methods = []string{"methodD"}
	sc.RMin = 2
	sc.RMax = 2
	sc.RhoMin = 0.5
	sc.RhoMax = 0.9
	sc.RhoStep = 0.1
	sc.Mu = 1.0
	sc.MCLimit = map[string]int{"default": 10, "2": 30, "3": 16, "4": 10}
	sc.Infty = 200
	sc.SojournMax = 50.0
	sc.SojournStep = 0.1
	sc.Zero = DefaultZero
	sc.Solver = LeastSquares.String()
	sc.MaxTime = 10000.0
	sc.Warmup = 500.0
	sc.Repetitions = 1
	sc.Service = ExponentialService
	sc.Seed = name
	sc.OutDir = "output"
	return sc
}

// WriteToFile stores the SweepCfg struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (sc *SweepCfg) WriteToFile(filename string) error {
	return writeByExt(filename, sc)
}

// ReadSweepCfg deserializes a byte slice holding a representation of a SweepCfg struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  A deserialized representation is returned, or an error if one is generated
// from a file read or the deserialization.
func ReadSweepCfg(filename string, useYAML bool, dict []byte) (*SweepCfg, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := SweepCfg{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}

	if err != nil {
		return nil, err
	}

	return &example, nil
}

// IsYAML reports whether the extension of filename selects YAML
func IsYAML(filename string) bool {
	pathExt := path.Ext(filename)
	return pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml"
}

// writeByExt serializes obj to json or to yaml, selected by the extension of filename
func writeByExt(filename string, obj any) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if IsYAML(filename) {
		bytes, merr = yaml.Marshal(obj)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(obj, "", "\t")
	} else {
		return fmt.Errorf("cannot tell serialization of %s from extension %q", filename, pathExt)
	}

	if merr != nil {
		return merr
	}

	return os.WriteFile(filename, bytes, 0o644)
}

// Validate checks every field a sweep reads, reporting all problems at once
func (sc *SweepCfg) Validate() error {
	errs := []error{}
	if len(sc.Methods) == 0 {
		errs = append(errs, configErr("method", sc.Methods, "names no method"))
	}
	for _, name := range sc.Methods {
		_, err := MethodByName(name)
		errs = append(errs, err)
	}
	if sc.RMin < 1 || sc.RMax < sc.RMin {
		errs = append(errs, configErr("rmin,rmax", fmt.Sprintf("%d,%d", sc.RMin, sc.RMax), "need 1 <= rmin <= rmax"))
	}
	if !(sc.RhoMin > 0.0) || sc.RhoMax < sc.RhoMin {
		errs = append(errs, configErr("rhomin,rhomax", fmt.Sprintf("%g,%g", sc.RhoMin, sc.RhoMax), "need 0 < rhomin <= rhomax"))
	}
	if !(sc.RhoStep > 0.0) {
		errs = append(errs, configErr("rhostep", sc.RhoStep, "must be positive"))
	}
	if !(sc.Mu > 0.0) {
		errs = append(errs, configErr("mu", sc.Mu, "must be positive"))
	}
	if sc.Infty < 1 {
		errs = append(errs, configErr("infty", sc.Infty, "must be at least 1"))
	}
	if sc.SojournMax < 0.0 || !(sc.SojournStep > 0.0) {
		errs = append(errs, configErr("sojournmax,sojournstep", fmt.Sprintf("%g,%g", sc.SojournMax, sc.SojournStep),
			"need a non-negative horizon and a positive step"))
	}
	if sc.Zero < 0.0 {
		errs = append(errs, configErr("zero", sc.Zero, "must be non-negative"))
	}
	if _, err := ParseSolveMethod(sc.Solver); err != nil {
		errs = append(errs, err)
	}
	if sc.Workers < 0 {
		errs = append(errs, configErr("workers", sc.Workers, "must be non-negative"))
	}
	if sc.RMin >= 1 && sc.RMax >= sc.RMin {
		for R := sc.RMin; R <= sc.RMax; R++ {
			_, err := sc.LimitFor(R)
			errs = append(errs, err)
		}
	}
	for key := range sc.MCLimit {
		if key == "default" {
			continue
		}
		if _, err := strconv.Atoi(key); err != nil {
			errs = append(errs, configErr("mclimit", key, "key is neither a farm size nor \"default\""))
		}
	}
	return ReportErrs(errs)
}

// LimitFor returns the chain truncation configured for a farm of R servers
func (sc *SweepCfg) LimitFor(R int) (int, error) {
	limit, present := sc.MCLimit[strconv.Itoa(R)]
	if !present {
		limit, present = sc.MCLimit["default"]
	}
	if !present {
		return 0, configErr("mclimit", R, "has no entry for this farm size and no default")
	}
	if limit < 1 {
		return 0, configErr("mclimit", limit, fmt.Sprintf("must be at least 1 (R=%d)", R))
	}
	return limit, nil
}

// Loads returns the grid of per-server loads.  Points are rounded to ten decimal
// places so that e.g. 0.1+0.2 lands on 0.3 and the grid includes RhoMax
func (sc *SweepCfg) Loads() []float64 {
	if !(sc.RhoStep > 0.0) || sc.RhoMax < sc.RhoMin {
		return nil
	}
	count := int(math.Floor((sc.RhoMax-sc.RhoMin)/sc.RhoStep+1e-9)) + 1
	loads := make([]float64, count)
	for i := range loads {
		loads[i] = math.Round((sc.RhoMin+float64(i)*sc.RhoStep)*1e10) / 1e10
	}
	return slices.Compact(loads)
}

// Sizes returns the farm sizes of the sweep
func (sc *SweepCfg) Sizes() []int {
	sizes := []int{}
	for R := sc.RMin; R <= sc.RMax; R++ {
		sizes = append(sizes, R)
	}
	return sizes
}

// Times returns the grid on which every CDF of the sweep is evaluated
func (sc *SweepCfg) Times() ([]float64, error) {
	return TimeGrid(sc.SojournMax, sc.SojournStep)
}

// Params returns the analysis parameters of farm size R at load rho
func (sc *SweepCfg) Params(R int, rho float64, logger *slog.Logger) (Params, error) {
	limit, err := sc.LimitFor(R)
	if err != nil {
		return Params{}, err
	}
	solver, err := ParseSolveMethod(sc.Solver)
	if err != nil {
		return Params{}, err
	}
	return Params{Lambda: float64(R) * rho * sc.Mu, Mu: sc.Mu, Servers: R, Limit: limit,
		Infty: sc.Infty, Zero: sc.Zero, Solver: solver, Logger: logger}, nil
}

// SimConfig returns the simulation settings of farm size R at load rho
func (sc *SweepCfg) SimConfig(R int, rho float64) SimConfig {
	return SimConfig{Lambda: float64(R) * rho * sc.Mu, Mu: sc.Mu, Servers: R,
		MaxTime: sc.MaxTime, Warmup: sc.Warmup, Service: sc.Service,
		Seed: fmt.Sprintf("%s-R%d-rho%g", sc.Seed, R, rho)}
}
