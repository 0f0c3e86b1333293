// Package cluster partitions scaled feature vectors with k-means or DBSCAN.
package cluster

import (
	"context"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Noise labels rows that belong to no dense region.
const Noise = -1

const (
	StrategyKMeans = "kmeans"
	StrategyDBSCAN = "dbscan"

	DefaultMaxIter = 300
	DefaultNInit   = 10
)

// Params selects a strategy and its parameters. Unused fields are ignored.
type Params struct {
	Strategy   string  `yaml:"strategy" mapstructure:"strategy"`
	K          int     `yaml:"k,omitempty" mapstructure:"k"`
	Seed       int64   `yaml:"seed,omitempty" mapstructure:"seed"`
	MaxIter    int     `yaml:"max_iter,omitempty" mapstructure:"max_iter"`
	NInit      int     `yaml:"n_init,omitempty" mapstructure:"n_init"`
	Eps        float64 `yaml:"eps,omitempty" mapstructure:"eps"`
	MinSamples int     `yaml:"min_samples,omitempty" mapstructure:"min_samples"`
}

// Strategy fits a model to a feature matrix.
type Strategy interface {
	Name() string
	Fit(ctx context.Context, X [][]float64) (Model, error)
}

// Model is the outcome of a fit.
type Model interface {
	// Labels returns one label per fitted row.
	Labels() []int
	Warnings() []Warning
	// Predict labels a new scaled vector without changing the model.
	Predict(x []float64) (int, error)
}

// NormalizeStrategy maps accepted aliases to a canonical strategy name.
func NormalizeStrategy(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kmeans", "k-means", "partition":
		return StrategyKMeans, nil
	case "dbscan", "density":
		return StrategyDBSCAN, nil
	}
	return "", fmt.Errorf("%w %q (use kmeans or dbscan)", ErrUnknownStrategy, s)
}

// New validates p and returns the selected strategy.
func New(p Params) (Strategy, error) {
	name, err := NormalizeStrategy(p.Strategy)
	if err != nil {
		return nil, err
	}
	switch name {
	case StrategyKMeans:
		if p.K < 1 {
			return nil, &ParameterError{Param: "k", Value: p.K, Reason: "must be at least 1"}
		}
		km := &KMeans{K: p.K, Seed: p.Seed, MaxIter: p.MaxIter, NInit: p.NInit}
		if km.MaxIter <= 0 {
			km.MaxIter = DefaultMaxIter
		}
		if km.NInit <= 0 {
			km.NInit = DefaultNInit
		}
		return km, nil
	default:
		if p.Eps <= 0 {
			return nil, &ParameterError{Param: "eps", Value: p.Eps, Reason: "must be positive"}
		}
		if p.MinSamples < 1 {
			return nil, &ParameterError{Param: "min_samples", Value: p.MinSamples, Reason: "must be at least 1"}
		}
		return &DBSCAN{Eps: p.Eps, MinSamples: p.MinSamples}, nil
	}
}

func checkMatrix(X [][]float64, param string, need int) error {
	if len(X) == 0 {
		return &ParameterError{Param: "rows", Value: 0, Reason: "nothing to cluster", Err: ErrEmptyInput}
	}
	d := len(X[0])
	if d == 0 {
		return &ParameterError{Param: "features", Value: 0, Reason: "no feature columns", Err: ErrEmptyInput}
	}
	for i, row := range X {
		if len(row) != d {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), d)
		}
	}
	if len(X) < need {
		return &ParameterError{Param: param, Value: need, Reason: fmt.Sprintf("exceeds the %d available rows", len(X))}
	}
	return nil
}

func distance(a, b []float64) float64 { return floats.Distance(a, b, 2) }

func distinctPoints(X [][]float64) int {
	seen := make(map[string]struct{}, len(X))
	for _, row := range X {
		seen[fmt.Sprint(row)] = struct{}{}
	}
	return len(seen)
}
