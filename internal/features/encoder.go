package features

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownCategory is returned when a value was not seen while fitting.
var ErrUnknownCategory = errors.New("unknown category")

// Encoder maps the distinct values of one categorical column to integer codes.
// Classes are sorted, and a value's code is its index in Classes.
type Encoder struct {
	Column  string   `yaml:"column"`
	Classes []string `yaml:"classes"`
}

// FitEncoder learns the classes of a column.
func FitEncoder(column string, values []string) *Encoder {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	classes := make([]string, 0, len(set))
	for v := range set {
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return &Encoder{Column: column, Classes: classes}
}

// Transform returns the code for v.
func (e *Encoder) Transform(v string) (int, error) {
	i := sort.SearchStrings(e.Classes, v)
	if i < len(e.Classes) && e.Classes[i] == v {
		return i, nil
	}
	return 0, fmt.Errorf("encode %s: %w %q", e.Column, ErrUnknownCategory, v)
}

// TransformAll encodes a whole column.
func (e *Encoder) TransformAll(values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		c, err := e.Transform(v)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Inverse returns the class for a code.
func (e *Encoder) Inverse(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("decode %s: code %d out of range [0,%d)", e.Column, code, len(e.Classes))
	}
	return e.Classes[code], nil
}
