package jsqps

// runlog.go gathers what a sweep leaves behind: per-run timing records, and the
// CDF tables of every (method, R, rho) evaluated.

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// RunRecord describes one analysis of a sweep
type RunRecord struct {
	Method  string  `json:"method" yaml:"method"`
	Servers int     `json:"servers" yaml:"servers"`
	Rho     float64 `json:"rho" yaml:"rho"`
	Infty   int     `json:"infty" yaml:"infty"`
	Limit   int     `json:"limit" yaml:"limit"`
	Runtime float64 `json:"runtime" yaml:"runtime"` // seconds
}

// RunLog gathers RunRecords.  It is safe for concurrent use by the workers of a sweep
type RunLog struct {
	// log is being kept
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of the sweep
	Name string `json:"name" yaml:"name"`

	Records []RunRecord `json:"records" yaml:"records"`

	mu sync.Mutex
}

// CreateRunLog is a constructor.  It saves the name of the sweep and a flag
// indicating whether the log is active, so calls to AddRun can stay in place
// when no log is wanted
func CreateRunLog(name string, active bool) *RunLog {
	rl := new(RunLog)
	rl.InUse = active
	rl.Name = name
	rl.Records = make([]RunRecord, 0)
	return rl
}

// Active tells the caller whether the log is being kept
func (rl *RunLog) Active() bool {
	return rl != nil && rl.InUse
}

// AddRun records the timing of one analysis
func (rl *RunLog) AddRun(res *Result) {
	if !rl.Active() {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.Records = append(rl.Records, RunRecord{Method: res.Method, Servers: res.Servers,
		Rho: res.Rho, Infty: res.Infty, Limit: res.Limit, Runtime: res.Runtime.Seconds()})
}

// WriteToFile stores the RunLog to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
// Nothing is written for an inactive log
func (rl *RunLog) WriteToFile(filename string) (bool, error) {
	if !rl.Active() {
		return false, nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if err := writeByExt(filename, rl); err != nil {
		return false, err
	}
	return true, nil
}

// CDFTableName returns the name of the file holding the CDF of one analysis
func CDFTableName(res *Result) string {
	return fmt.Sprintf("mc_limit=%d-infty=%d-R=%d-rho=%g.csv", res.Limit, res.Infty, res.Servers, res.Rho)
}

// WriteCDFTable writes the (sojourn_time, cdf) pairs of res as CSV to
// outdir/<method>/CDFTableName(res), creating directories as needed,
// and returns the path written
func WriteCDFTable(outdir string, res *Result) (string, error) {
	dir := filepath.Join(outdir, res.Method)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filename := filepath.Join(dir, CDFTableName(res))

	f, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := make([][]string, 0, len(res.Times)+1)
	rows = append(rows, []string{"sojourn_time", "cdf"})
	for i, t := range res.Times {
		rows = append(rows, []string{strconv.FormatFloat(t, 'g', -1, 64), strconv.FormatFloat(res.CDF[i], 'g', -1, 64)})
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return filename, f.Close()
}

// WriteResult stores one analysis to the file whose name is given, as json or
// yaml according to its extension
func WriteResult(filename string, res *Result) error {
	return writeByExt(filename, res)
}

// WriteComparisons stores the outcome of Compare to the file whose name is given,
// as json or yaml according to its extension
func WriteComparisons(filename string, comps []Comparison) error {
	return writeByExt(filename, comps)
}
