package features

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrWidth is returned when a vector does not match the fitted feature count.
var ErrWidth = errors.New("feature vector width mismatch")

// Scaler standardizes features to zero mean and unit variance using the population
// standard deviation. A zero-variance feature scales to 0.
type Scaler struct {
	Columns []string  `yaml:"columns"`
	Mean    []float64 `yaml:"mean"`
	Std     []float64 `yaml:"std"`
}

// FitScaler computes per-column statistics over every row of X.
func FitScaler(columns []string, X [][]float64) (*Scaler, error) {
	if len(X) == 0 {
		return nil, errors.New("fit scaler: no rows")
	}
	d := len(columns)
	s := &Scaler{Columns: append([]string(nil), columns...), Mean: make([]float64, d), Std: make([]float64, d)}
	col := make([]float64, len(X))
	for j := 0; j < d; j++ {
		for i, row := range X {
			if len(row) != d {
				return nil, fmt.Errorf("fit scaler: row %d: %w (got %d, want %d)", i, ErrWidth, len(row), d)
			}
			col[i] = row[j]
		}
		mean, variance := stat.MeanVariance(col, nil)
		s.Mean[j] = mean
		n := float64(len(col))
		if len(col) < 2 {
			continue
		}
		std := math.Sqrt(variance * (n - 1) / n)
		if std <= 1e-12*math.Max(1, math.Abs(mean)) || math.IsNaN(std) {
			std = 0
		}
		s.Std[j] = std
	}
	return s, nil
}

// Transform scales one vector.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scale: %w (got %d, want %d)", ErrWidth, len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		if s.Std[j] == 0 {
			continue
		}
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

// TransformAll scales every row of X into a new matrix.
func (s *Scaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		z, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = z
	}
	return out, nil
}

// Inverse maps a scaled vector back to original units.
func (s *Scaler) Inverse(z []float64) ([]float64, error) {
	if len(z) != len(s.Mean) {
		return nil, fmt.Errorf("inverse scale: %w (got %d, want %d)", ErrWidth, len(z), len(s.Mean))
	}
	out := make([]float64, len(z))
	for j, v := range z {
		out[j] = v*s.Std[j] + s.Mean[j]
	}
	return out, nil
}
