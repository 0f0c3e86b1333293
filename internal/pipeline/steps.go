package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/KaramelBytes/salescluster-cli/internal/cluster"
	"github.com/KaramelBytes/salescluster-cli/internal/dataset"
	"github.com/KaramelBytes/salescluster-cli/internal/features"
	"github.com/KaramelBytes/salescluster-cli/internal/logger"
	"github.com/KaramelBytes/salescluster-cli/internal/summary"
)

// Step is one stage of a run.
type Step interface {
	Name() string
	Execute(ctx context.Context, st *State) error
}

// State carries data between steps. Each run owns its State.
type State struct {
	RunID  string
	Source string
	Config Config

	Raw   *dataset.Table
	Table *dataset.Table
	Clean *dataset.CleanReport

	// Encoders covers every categorical column; Layout only those used as features.
	Encoders []*features.Encoder
	Layout   features.Layout

	X       [][]float64
	Z       [][]float64
	Scaler  *features.Scaler
	Model   cluster.Model
	Labels  []int
	Summary *summary.Summary
	Metrics Metrics
}

// Runner executes steps in order and stops at the first failure.
type Runner struct {
	steps []Step
}

func NewRunner(steps ...Step) *Runner { return &Runner{steps: steps} }

func (r *Runner) Execute(ctx context.Context, st *State) error {
	log := logger.FromContext(ctx)
	for _, s := range r.steps {
		start := time.Now()
		if err := s.Execute(ctx, st); err != nil {
			return fmt.Errorf("pipeline step %s failed: %w", s.Name(), err)
		}
		log.Debug().Str("run_id", st.RunID).Str("step", s.Name()).Dur("took", time.Since(start)).Msg("step done")
	}
	return nil
}

type LoadStep struct{}

func (LoadStep) Name() string { return "load" }

func (LoadStep) Execute(ctx context.Context, st *State) error {
	opt := st.Config.Load
	opt.Logger = logger.FromContext(ctx)
	t, err := dataset.Load(ctx, st.Source, opt)
	if err != nil {
		return err
	}
	st.Raw = t
	return nil
}

type CleanStep struct{}

func (CleanStep) Name() string { return "clean" }

func (CleanStep) Execute(ctx context.Context, st *State) error {
	opt := st.Config.cleanOptions()
	opt.Logger = logger.FromContext(ctx).With().Str("run_id", st.RunID).Str("step", "clean").Logger()
	t, rep, err := dataset.Clean(st.Raw, opt)
	st.Clean = rep
	if err != nil {
		return err
	}
	st.Table = t
	return nil
}

type EncodeStep struct{}

func (EncodeStep) Name() string { return "encode" }

func (EncodeStep) Execute(_ context.Context, st *State) error {
	if err := st.Table.Require(st.Config.Features...); err != nil {
		return err
	}
	if err := st.Table.Require(st.Config.summaryColumns()...); err != nil {
		return err
	}
	enc, err := features.FitEncoders(st.Table, st.Config.Categorical)
	if err != nil {
		return err
	}
	st.Encoders = enc
	st.Layout = features.Layout{Numeric: append([]string(nil), st.Config.Features...)}
	if st.Config.EncodeCategoricals {
		st.Layout.Encoders = enc
	}
	X, err := features.Extract(st.Table, st.Layout)
	if err != nil {
		return err
	}
	st.X = X
	return nil
}

type ScaleStep struct{}

func (ScaleStep) Name() string { return "scale" }

func (ScaleStep) Execute(_ context.Context, st *State) error {
	s, err := features.FitScaler(st.Layout.Columns(), st.X)
	if err != nil {
		return err
	}
	Z, err := s.TransformAll(st.X)
	if err != nil {
		return err
	}
	st.Scaler, st.Z = s, Z
	return nil
}

type ClusterStep struct{}

func (ClusterStep) Name() string { return "cluster" }

func (ClusterStep) Execute(ctx context.Context, st *State) error {
	strategy, err := cluster.New(st.Config.Cluster)
	if err != nil {
		return err
	}
	m, err := strategy.Fit(ctx, st.Z)
	if err != nil {
		return err
	}
	st.Model = m
	st.Labels = m.Labels()
	log := logger.FromContext(ctx)
	for _, w := range m.Warnings() {
		log.Warn().Str("run_id", st.RunID).Str("step", "cluster").Str("code", w.Code).Msg(w.Message)
	}
	st.Metrics = computeMetrics(st.Z, st.Labels)
	return nil
}

type SummarizeStep struct{}

func (SummarizeStep) Name() string { return "summarize" }

func (SummarizeStep) Execute(_ context.Context, st *State) error {
	cols := st.Config.summaryColumns()
	data := make([][]float64, len(cols))
	for j, c := range cols {
		v, err := st.Table.Floats(c)
		if err != nil {
			return err
		}
		data[j] = v
	}
	s, err := summary.Aggregate(st.Labels, cols, data)
	if err != nil {
		return err
	}
	st.Summary = s
	return nil
}
