// Package analysis profiles the columns of a loaded table so an operator can pick
// feature and categorical columns before clustering.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/salescluster-cli/internal/dataset"
)

// Options control profiling.
type Options struct {
	Number      dataset.NumberFormat
	DateLayouts []string
	// Outlier detection via robust Z-score (MAD). Counts |z|>threshold; 3.5 when 0.
	Outliers         bool
	OutlierThreshold float64
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
}

// DefaultOptions returns reasonable defaults for profiling.
func DefaultOptions() Options {
	return Options{Outliers: true, OutlierThreshold: 3.5, Correlations: true}
}

// Report is the profile of one table.
type Report struct {
	Name string
	Rows int
	Cols []ColumnSummary
	Corr *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|datetime|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	// Numeric stats over parseable values
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

const maxTopValues = 8

// Profile summarizes every column of t. A column is numeric or datetime when most of
// its non-missing cells parse that way.
func Profile(t *dataset.Table, opt Options) *Report {
	rep := &Report{Name: t.Name, Rows: t.Len()}
	numeric := map[string][]float64{}
	var numCols []string
	for _, name := range t.Columns() {
		vals, _ := t.Column(name)
		s, nums := profileColumn(name, vals, opt)
		if s.Kind == "numeric" {
			numeric[name] = nums
			numCols = append(numCols, name)
		}
		rep.Cols = append(rep.Cols, s)
	}
	if opt.Correlations && len(numCols) > 1 {
		rep.Corr = correlations(t, numCols, opt.Number)
	}
	return rep
}

func profileColumn(name string, vals []string, opt Options) (ColumnSummary, []float64) {
	s := ColumnSummary{Name: name}
	cats := map[string]int{}
	var nums []float64
	dates := 0
	for _, v := range vals {
		if dataset.IsMissing(v) {
			s.Missing++
			continue
		}
		s.NonNull++
		v = strings.TrimSpace(v)
		cats[v]++
		if f, ok := dataset.ParseNumber(v, opt.Number); ok {
			nums = append(nums, f)
		} else if _, ok := dataset.ParseDate(v, opt.DateLayouts); ok {
			dates++
		}
	}
	s.Unique = len(cats)
	switch {
	case s.NonNull == 0:
		s.Kind = "empty"
	case len(nums)*2 > s.NonNull:
		s.Kind = "numeric"
		s.Min, s.Max = nums[0], nums[0]
		for _, f := range nums {
			s.Min = math.Min(s.Min, f)
			s.Max = math.Max(s.Max, f)
		}
		s.Mean, s.Std = stat.MeanStdDev(nums, nil)
		if len(nums) < 2 {
			s.Std = 0
		}
		if opt.Outliers && len(nums) >= 8 {
			s.OutlierThreshold = opt.OutlierThreshold
			if s.OutlierThreshold <= 0 {
				s.OutlierThreshold = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(nums, s.OutlierThreshold)
		}
	case dates*2 > s.NonNull:
		s.Kind = "datetime"
	case s.Unique < s.NonNull && (s.Unique <= 50 || s.Unique*2 <= s.NonNull):
		s.Kind = "categorical"
		s.TopValues = topValues(cats)
	default:
		s.Kind = "text"
	}
	return s, nums
}

func topValues(cats map[string]int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > maxTopValues {
		tops = tops[:maxTopValues]
	}
	return tops
}

// robustOutliers counts values whose robust z-score 0.6745*(x-median)/MAD exceeds thr.
func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		maxAbsZ = math.Max(maxAbsZ, az)
	}
	return count, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = stat.Quantile(0.5, stat.Empirical, cp, nil)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = stat.Quantile(0.5, stat.Empirical, dev, nil)
	return
}

// correlations uses only rows where both columns parse.
func correlations(t *dataset.Table, cols []string, nf dataset.NumberFormat) *CorrMatrix {
	parsed := make([][]float64, len(cols))
	ok := make([][]bool, len(cols))
	for i, c := range cols {
		vals, _ := t.Column(c)
		parsed[i] = make([]float64, len(vals))
		ok[i] = make([]bool, len(vals))
		for r, v := range vals {
			parsed[i][r], ok[i][r] = dataset.ParseNumber(v, nf)
		}
	}
	m := &CorrMatrix{Columns: cols, Values: make([][]float64, len(cols))}
	for i := range cols {
		m.Values[i] = make([]float64, len(cols))
		m.Values[i][i] = 1
	}
	for i := range cols {
		for j := 0; j < i; j++ {
			var x, y []float64
			for r := range parsed[i] {
				if ok[i][r] && ok[j][r] {
					x = append(x, parsed[i][r])
					y = append(y, parsed[j][r])
				}
			}
			r := math.NaN()
			if len(x) > 2 {
				r = stat.Correlation(x, y, nil)
			}
			m.Values[i][j], m.Values[j][i] = r, r
		}
	}
	return m
}

// Markdown renders the profile.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[SCHEMA]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d, Columns: %d\n", r.Rows, len(r.Cols)))
	for _, c := range r.Cols {
		missPct := 0.0
		if total := c.NonNull + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeVal(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(", min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
			}
		case "categorical":
			b.WriteString(", top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		case "text":
			b.WriteString(fmt.Sprintf(", unique=%d", c.Unique))
		}
		b.WriteString("\n")
	}
	if r.Corr != nil {
		b.WriteString("\n[CORRELATIONS]\n| |")
		for _, c := range r.Corr.Columns {
			b.WriteString(" " + safeVal(c) + " |")
		}
		b.WriteString("\n|---|" + strings.Repeat("---:|", len(r.Corr.Columns)) + "\n")
		for i, c := range r.Corr.Columns {
			b.WriteString("| " + safeVal(c) + " |")
			for _, v := range r.Corr.Values[i] {
				if math.IsNaN(v) {
					b.WriteString(" n/a |")
				} else {
					b.WriteString(fmt.Sprintf(" %.2f |", v))
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
