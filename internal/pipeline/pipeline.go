// Package pipeline runs load, clean, encode, scale, cluster and summarize as one
// batch and produces an immutable fitted pipeline for later prediction.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/salescluster-cli/internal/cluster"
	"github.com/KaramelBytes/salescluster-cli/internal/dataset"
	"github.com/KaramelBytes/salescluster-cli/internal/features"
	"github.com/KaramelBytes/salescluster-cli/internal/logger"
	"github.com/KaramelBytes/salescluster-cli/internal/summary"
)

// Metrics describe partition quality.
type Metrics struct {
	Clusters          int     `yaml:"clusters" json:"clusters"`
	Noise             int     `yaml:"noise" json:"noise"`
	Inertia           float64 `yaml:"inertia" json:"inertia"`
	Silhouette        float64 `yaml:"silhouette" json:"silhouette"`
	SilhouetteDefined bool    `yaml:"silhouette_defined" json:"silhouette_defined"`
}

func computeMetrics(Z [][]float64, labels []int) Metrics {
	m := Metrics{Inertia: cluster.Inertia(Z, labels)}
	seen := map[int]bool{}
	for _, l := range labels {
		if l == cluster.Noise {
			m.Noise++
			continue
		}
		seen[l] = true
	}
	m.Clusters = len(seen)
	m.Silhouette, m.SilhouetteDefined = cluster.Silhouette(Z, labels)
	return m
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Source   string
	Config   Config
	Clean    *dataset.CleanReport
	Table    *dataset.Table
	Encoders []*features.Encoder
	Labels   []int
	Summary  *summary.Summary
	Warnings []cluster.Warning
	Metrics  Metrics
	Started  time.Time
	Took     time.Duration
}

// Inspect loads and cleans src without clustering.
func Inspect(ctx context.Context, src string, cfg Config) (*dataset.Table, *dataset.CleanReport, error) {
	st := &State{RunID: uuid.NewString(), Source: src, Config: cfg}
	err := NewRunner(LoadStep{}, CleanStep{}).Execute(ctx, st)
	return st.Table, st.Clean, err
}

// Run executes the whole pipeline on src.
func Run(ctx context.Context, src string, cfg Config) (*Fitted, *Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	st := &State{RunID: uuid.NewString(), Source: src, Config: cfg}
	return execute(ctx, st, LoadStep{}, CleanStep{})
}

// Fit runs encode, scale, cluster and summarize on an already cleaned table.
func Fit(ctx context.Context, t *dataset.Table, cfg Config) (*Fitted, *Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	st := &State{RunID: uuid.NewString(), Source: t.Name, Config: cfg, Table: t}
	return execute(ctx, st)
}

func execute(ctx context.Context, st *State, before ...Step) (*Fitted, *Result, error) {
	started := time.Now()
	log := logger.FromContext(ctx).With().Str("run_id", st.RunID).Logger()
	ctx = logger.WithContext(ctx, log)
	log.Info().Str("source", st.Source).Str("strategy", st.Config.Describe()).Msg("run started")

	steps := append(before, EncodeStep{}, ScaleStep{}, ClusterStep{}, SummarizeStep{})
	if err := NewRunner(steps...).Execute(ctx, st); err != nil {
		log.Error().Err(err).Msg("run failed")
		return nil, &Result{RunID: st.RunID, Source: st.Source, Config: st.Config, Clean: st.Clean}, err
	}
	fitted, err := newFitted(st)
	if err != nil {
		return nil, nil, err
	}
	res := &Result{
		RunID:    st.RunID,
		Source:   st.Source,
		Config:   st.Config,
		Clean:    st.Clean,
		Table:    st.Table,
		Encoders: st.Encoders,
		Labels:   st.Labels,
		Summary:  st.Summary,
		Warnings: st.Model.Warnings(),
		Metrics:  st.Metrics,
		Started:  started,
		Took:     time.Since(started),
	}
	log.Info().Int("rows", len(st.Labels)).Int("clusters", st.Metrics.Clusters).Int("noise", st.Metrics.Noise).
		Dur("took", res.Took).Msg("run finished")
	return fitted, res, nil
}

// Augmented returns the cleaned table with the label column and one <col>_code
// column per categorical column.
func (r *Result) Augmented() (*dataset.Table, error) {
	t, err := r.Table.WithIntColumn(r.Config.LabelColumn, r.Labels)
	if err != nil {
		return nil, err
	}
	for _, e := range r.Encoders {
		vals, err := r.Table.Column(e.Column)
		if err != nil {
			return nil, err
		}
		codes, err := e.TransformAll(vals)
		if err != nil {
			return nil, err
		}
		if t, err = t.WithIntColumn(e.Column+"_code", codes); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Markdown renders the run report.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[RUN]\n")
	b.WriteString(fmt.Sprintf("ID: %s\n", r.RunID))
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Strategy: %s\n", r.Config.Describe()))
	b.WriteString(fmt.Sprintf("Features: %s\n", strings.Join(r.Config.Features, ", ")))
	if len(r.Config.Categorical) > 0 {
		b.WriteString(fmt.Sprintf("Categorical: %s\n", strings.Join(r.Config.Categorical, ", ")))
	}
	b.WriteString(fmt.Sprintf("Rows clustered: %d\n\n", len(r.Labels)))
	if r.Clean != nil {
		b.WriteString(r.Clean.Markdown())
		b.WriteString("\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("[WARNINGS]\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w.String() + "\n")
		}
		b.WriteString("\n")
	}
	if r.Summary != nil {
		b.WriteString(r.Summary.Markdown())
		b.WriteString("\n")
	}
	b.WriteString("[METRICS]\n")
	b.WriteString(fmt.Sprintf("- clusters: %d\n- noise rows: %d\n- inertia: %s\n", r.Metrics.Clusters, r.Metrics.Noise, summary.Round(r.Metrics.Inertia, 3)))
	if r.Metrics.SilhouetteDefined {
		b.WriteString(fmt.Sprintf("- silhouette: %s\n", summary.Round(r.Metrics.Silhouette, 3)))
	} else {
		b.WriteString("- silhouette: n/a (fewer than two clusters)\n")
	}
	return b.String()
}
