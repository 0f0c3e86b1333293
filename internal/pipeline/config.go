package pipeline

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/salescluster-cli/internal/cluster"
	"github.com/KaramelBytes/salescluster-cli/internal/dataset"
)

// DefaultLabelColumn names the label column added to the augmented output.
const DefaultLabelColumn = "Cluster"

// ErrNoFeatures is returned when no feature columns are configured.
var ErrNoFeatures = errors.New("no feature columns configured")

// Config fixes every choice for one run.
type Config struct {
	Cluster            cluster.Params       `yaml:"cluster"`
	Features           []string             `yaml:"features"`
	Categorical        []string             `yaml:"categorical,omitempty"`
	EncodeCategoricals bool                 `yaml:"encode_categoricals"`
	DateColumns        []string             `yaml:"date_columns,omitempty"`
	DateLayouts        []string             `yaml:"date_layouts,omitempty"`
	Required           []string             `yaml:"required,omitempty"`
	SummaryColumns     []string             `yaml:"summary_columns,omitempty"`
	LabelColumn        string               `yaml:"label_column,omitempty"`
	Number             dataset.NumberFormat `yaml:"number,omitempty"`

	Load dataset.LoadOptions `yaml:"-"`
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if len(c.Features) == 0 {
		return ErrNoFeatures
	}
	for _, f := range c.Features {
		for _, g := range c.Categorical {
			if f == g {
				return fmt.Errorf("column %q is both a numeric feature and categorical", f)
			}
		}
	}
	name, err := cluster.NormalizeStrategy(c.Cluster.Strategy)
	if err != nil {
		return err
	}
	c.Cluster.Strategy = name
	if _, err := cluster.New(c.Cluster); err != nil {
		return err
	}
	if c.LabelColumn == "" {
		c.LabelColumn = DefaultLabelColumn
	}
	return nil
}

func (c *Config) summaryColumns() []string {
	if len(c.SummaryColumns) > 0 {
		return c.SummaryColumns
	}
	return c.Features
}

func (c *Config) numericColumns() []string {
	out := append([]string(nil), c.Features...)
	for _, s := range c.SummaryColumns {
		dup := false
		for _, f := range out {
			dup = dup || f == s
		}
		if !dup {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) cleanOptions() dataset.CleanOptions {
	return dataset.CleanOptions{
		Numeric:     c.numericColumns(),
		Dates:       c.DateColumns,
		Required:    append(append([]string(nil), c.Categorical...), c.Required...),
		DateLayouts: c.DateLayouts,
		Number:      c.Number,
	}
}

// Describe renders the strategy and its parameters.
func (c *Config) Describe() string {
	switch c.Cluster.Strategy {
	case cluster.StrategyDBSCAN:
		return fmt.Sprintf("dbscan eps=%g min_samples=%d", c.Cluster.Eps, c.Cluster.MinSamples)
	default:
		return fmt.Sprintf("kmeans k=%d seed=%d", c.Cluster.K, c.Cluster.Seed)
	}
}
