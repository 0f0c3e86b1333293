// Package summary aggregates per-cluster counts and feature means.
package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// NoiseLabel matches cluster.Noise.
const NoiseLabel = -1

// Row holds the aggregates of one label. Means follow Summary.Columns.
type Row struct {
	Label int       `yaml:"label" json:"label"`
	Count int       `yaml:"count" json:"count"`
	Means []float64 `yaml:"means" json:"means"`
}

// Summary lists every label present, ascending.
type Summary struct {
	Columns []string `yaml:"columns" json:"columns"`
	Rows    []Row    `yaml:"rows" json:"rows"`
	Total   int      `yaml:"total" json:"total"`
}

// Aggregate groups rows by label. data holds one slice of unscaled values per column,
// each with one value per label.
func Aggregate(labels []int, columns []string, data [][]float64) (*Summary, error) {
	if len(columns) != len(data) {
		return nil, fmt.Errorf("aggregate: %d columns but %d value slices", len(columns), len(data))
	}
	for j, col := range data {
		if len(col) != len(labels) {
			return nil, fmt.Errorf("aggregate: column %q has %d values for %d labels", columns[j], len(col), len(labels))
		}
	}
	members := map[int][]int{}
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	keys := make([]int, 0, len(members))
	for l := range members {
		keys = append(keys, l)
	}
	sort.Ints(keys)

	s := &Summary{Columns: append([]string(nil), columns...), Total: len(labels)}
	buf := make([]float64, 0, len(labels))
	for _, l := range keys {
		idx := members[l]
		r := Row{Label: l, Count: len(idx), Means: make([]float64, len(columns))}
		for j, col := range data {
			buf = buf[:0]
			for _, i := range idx {
				buf = append(buf, col[i])
			}
			r.Means[j] = stat.Mean(buf, nil)
		}
		s.Rows = append(s.Rows, r)
	}
	return s, nil
}

// Counts returns rows per label.
func (s *Summary) Counts() map[int]int {
	m := make(map[int]int, len(s.Rows))
	for _, r := range s.Rows {
		m[r.Label] = r.Count
	}
	return m
}

// Mean returns the mean of column for label.
func (s *Summary) Mean(label int, column string) (float64, bool) {
	j := -1
	for i, c := range s.Columns {
		if c == column {
			j = i
		}
	}
	if j < 0 {
		return 0, false
	}
	for _, r := range s.Rows {
		if r.Label == label {
			return r.Means[j], true
		}
	}
	return 0, false
}

// LabelName renders a label for display.
func LabelName(l int) string {
	if l == NoiseLabel {
		return "noise"
	}
	return fmt.Sprintf("%d", l)
}

// Round formats v with the given number of decimal places.
func Round(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// Markdown renders the counts and means tables.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[CLUSTER COUNTS]\n")
	b.WriteString("| cluster | rows | share |\n|---|---:|---:|\n")
	for _, r := range s.Rows {
		share := 0.0
		if s.Total > 0 {
			share = float64(r.Count) * 100 / float64(s.Total)
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %s%% |\n", LabelName(r.Label), r.Count, Round(share, 1)))
	}
	if len(s.Columns) == 0 {
		return b.String()
	}
	b.WriteString("\n[CLUSTER MEANS]\n| cluster |")
	for _, c := range s.Columns {
		b.WriteString(" " + strings.ReplaceAll(c, "|", "/") + " |")
	}
	b.WriteString("\n|---|" + strings.Repeat("---:|", len(s.Columns)) + "\n")
	for _, r := range s.Rows {
		b.WriteString("| " + LabelName(r.Label) + " |")
		for _, m := range r.Means {
			b.WriteString(" " + Round(m, 2) + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}
