// Package chart renders a static HTML scatter plot of clustered rows.
package chart

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/KaramelBytes/salescluster-cli/internal/summary"
)

// Scatter describes one plot: two unscaled columns and a label per point.
type Scatter struct {
	Title  string
	XName  string
	YName  string
	X      []float64
	Y      []float64
	Labels []int
}

// Render writes an HTML page with one series per label, ordered by label.
func Render(w io.Writer, s Scatter) error {
	if len(s.X) != len(s.Y) || len(s.X) != len(s.Labels) {
		return fmt.Errorf("scatter: %d x, %d y and %d labels", len(s.X), len(s.Y), len(s.Labels))
	}
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: s.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: s.XName}),
		charts.WithYAxisOpts(opts.YAxis{Name: s.YName}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true)}),
	)

	series := make(map[int][]opts.ScatterData)
	for i, l := range s.Labels {
		series[l] = append(series[l], opts.ScatterData{Value: []interface{}{s.X[i], s.Y[i]}})
	}
	keys := make([]int, 0, len(series))
	for l := range series {
		keys = append(keys, l)
	}
	sort.Ints(keys)
	for _, l := range keys {
		sc.AddSeries("Cluster "+summary.LabelName(l), series[l])
	}
	if err := sc.Render(w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
