package cluster

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates an empty feature matrix.
	ErrEmptyInput = errors.New("empty feature matrix")
	// ErrPredictUnsupported is returned by models that only label the rows they were fit on.
	ErrPredictUnsupported = errors.New("strategy does not support prediction on new records")
	// ErrUnknownStrategy indicates an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("unknown clustering strategy")
)

// ParameterError reports parameters under which no partition can be computed.
type ParameterError struct {
	Param  string
	Value  any
	Reason string
	Err    error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Param, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error { return e.Err }

// Warning is a non-fatal diagnostic about a degenerate but computable result.
type Warning struct {
	Code    string `yaml:"code" json:"code"`
	Message string `yaml:"message" json:"message"`
}

func (w Warning) String() string { return w.Code + ": " + w.Message }

const (
	WarnKExceedsDistinct = "k_exceeds_distinct_points"
	WarnEmptyCluster     = "empty_cluster"
	WarnAllNoise         = "all_noise"
	WarnSingleCluster    = "single_cluster"
)
