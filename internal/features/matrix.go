package features

import (
	"fmt"

	"github.com/KaramelBytes/salescluster-cli/internal/dataset"
)

// Layout fixes the order of features: numeric columns first, then encoded
// categorical columns.
type Layout struct {
	Numeric  []string   `yaml:"numeric"`
	Encoders []*Encoder `yaml:"encoders,omitempty"`
}

// Columns returns feature names in vector order.
func (l Layout) Columns() []string {
	out := append([]string(nil), l.Numeric...)
	for _, e := range l.Encoders {
		out = append(out, e.Column)
	}
	return out
}

// FitEncoders learns an encoder per categorical column of a cleaned table.
func FitEncoders(t *dataset.Table, columns []string) ([]*Encoder, error) {
	out := make([]*Encoder, 0, len(columns))
	for _, c := range columns {
		vals, err := t.Column(c)
		if err != nil {
			return nil, err
		}
		out = append(out, FitEncoder(c, vals))
	}
	return out, nil
}

// Extract builds the unscaled feature matrix of a cleaned table.
func Extract(t *dataset.Table, l Layout) ([][]float64, error) {
	cols := make([][]float64, 0, len(l.Numeric)+len(l.Encoders))
	for _, c := range l.Numeric {
		v, err := t.Floats(c)
		if err != nil {
			return nil, err
		}
		cols = append(cols, v)
	}
	for _, e := range l.Encoders {
		vals, err := t.Column(e.Column)
		if err != nil {
			return nil, err
		}
		codes, err := e.TransformAll(vals)
		if err != nil {
			return nil, err
		}
		v := make([]float64, len(codes))
		for i, c := range codes {
			v[i] = float64(c)
		}
		cols = append(cols, v)
	}
	X := make([][]float64, t.Len())
	for i := range X {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = cols[j][i]
		}
		X[i] = row
	}
	return X, nil
}

// Vector builds the unscaled feature vector of a single record given as column=value.
func Vector(record map[string]string, l Layout, nf dataset.NumberFormat) ([]float64, error) {
	out := make([]float64, 0, len(l.Numeric)+len(l.Encoders))
	for _, c := range l.Numeric {
		raw, ok := record[c]
		if !ok || dataset.IsMissing(raw) {
			return nil, fmt.Errorf("record: %w %q", dataset.ErrMissingColumn, c)
		}
		f, ok := dataset.ParseNumber(raw, nf)
		if !ok {
			return nil, fmt.Errorf("record: column %q: cannot parse %q as a number", c, raw)
		}
		out = append(out, f)
	}
	for _, e := range l.Encoders {
		raw, ok := record[e.Column]
		if !ok {
			return nil, fmt.Errorf("record: %w %q", dataset.ErrMissingColumn, e.Column)
		}
		code, err := e.Transform(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, float64(code))
	}
	return out, nil
}
