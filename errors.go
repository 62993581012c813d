package jsqps

// errors.go holds the error taxonomy shared by the solver, the sojourn-time
// engines and the configuration readers.

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidConfiguration is wrapped by every error reporting malformed
// server counts, truncation limits or rates.  No computation is attempted.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrNumericalInstability is wrapped by every error reporting a negative rate,
// a non-finite value or a probability outside [0,1].  Retrying with a different
// truncation (limit, infty) or numerical zero is the caller's decision.
var ErrNumericalInstability = errors.New("numerical instability")

// A ConfigError names the parameter that was rejected
type ConfigError struct {
	Param  string
	Value  any
	Reason string
}

func (ce *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s=%v %s", ErrInvalidConfiguration, ce.Param, ce.Value, ce.Reason)
}

func (ce *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// configErr is a constructor
func configErr(param string, value any, reason string) error {
	return &ConfigError{Param: param, Value: value, Reason: reason}
}

// An InstabilityError records the stage of the computation that produced
// an out-of-range value, and the index (state, occupancy, or time point) at which it appeared
type InstabilityError struct {
	Stage string
	Index int
	Value float64
}

func (ie *InstabilityError) Error() string {
	return fmt.Sprintf("%v: %s produced %g at index %d", ErrNumericalInstability, ie.Stage, ie.Value, ie.Index)
}

func (ie *InstabilityError) Unwrap() error {
	return ErrNumericalInstability
}

// checkFinite returns an InstabilityError for the first NaN or Inf in vals
func checkFinite(stage string, vals []float64) error {
	for idx, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InstabilityError{Stage: stage, Index: idx, Value: v}
		}
	}
	return nil
}

// ReportErrs transforms a list of errors and transforms the non-nil ones into a single error
// with comma-separated report of all the constituent errors, and returns it.  The
// result still matches errors.Is against the taxonomy sentinels of its members.
func ReportErrs(errs []error) error {
	errMsg := make([]string, 0)
	kept := make([]error, 0)
	for _, err := range errs {
		if err != nil {
			errMsg = append(errMsg, err.Error())
			kept = append(kept, err)
		}
	}
	if len(errMsg) == 0 {
		return nil
	}
	return &joinedErr{msg: strings.Join(errMsg, ","), errs: kept}
}

type joinedErr struct {
	msg  string
	errs []error
}

func (je *joinedErr) Error() string   { return je.msg }
func (je *joinedErr) Unwrap() []error { return je.errs }
