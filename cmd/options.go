package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salescluster-cli/internal/cluster"
	cfgpkg "github.com/KaramelBytes/salescluster-cli/internal/config"
	"github.com/KaramelBytes/salescluster-cli/internal/dataset"
	"github.com/KaramelBytes/salescluster-cli/internal/gcs"
	"github.com/KaramelBytes/salescluster-cli/internal/pipeline"
	"github.com/KaramelBytes/salescluster-cli/internal/presets"
)

// pipelineFlags are the column, parameter and parsing flags shared by every command
// that loads a dataset. Each command owns its own copy.
type pipelineFlags struct {
	preset      string
	strategy    string
	k           int
	eps         float64
	minSamples  int
	seed        int64
	maxIter     int
	nInit       int
	features    string
	categorical string
	dateColumns string
	required    string
	summaryCols string
	labelColumn string
	encodeCats  bool
	delimiter   string
	decimal     string
	thousands   string
	encoding    string
	sheet       string
}

func (o *pipelineFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.preset, "preset", "", "named preset (see 'salescluster presets')")
	f.StringVar(&o.strategy, "strategy", "", "clustering strategy: kmeans or dbscan")
	f.IntVarP(&o.k, "k", "k", 0, "number of clusters (kmeans)")
	f.Float64Var(&o.eps, "eps", 0, "neighbourhood radius in standardized units (dbscan)")
	f.IntVar(&o.minSamples, "min-samples", 0, "points within eps needed for a core point, itself included (dbscan)")
	f.Int64Var(&o.seed, "seed", 0, "random seed (kmeans)")
	f.IntVar(&o.maxIter, "max-iter", 0, "iteration cap per kmeans run")
	f.IntVar(&o.nInit, "n-init", 0, "kmeans restarts; the lowest inertia wins")
	f.StringVar(&o.features, "features", "", "comma-separated numeric feature columns")
	f.StringVar(&o.categorical, "categorical", "", "comma-separated categorical columns to encode")
	f.StringVar(&o.dateColumns, "date-columns", "", "comma-separated columns that must parse as dates")
	f.StringVar(&o.required, "required", "", "comma-separated columns that must not be missing")
	f.StringVar(&o.summaryCols, "summary-columns", "", "comma-separated columns averaged per cluster (default: features)")
	f.StringVar(&o.labelColumn, "label-column", "", "name of the added label column")
	f.BoolVar(&o.encodeCats, "encode-categoricals", true, "include encoded categorical columns in the feature matrix")
	f.StringVar(&o.delimiter, "delimiter", "", "field delimiter: , ; | or tab (default: sniffed)")
	f.StringVar(&o.decimal, "decimal", "", "decimal separator: '.' or 'comma' (default: auto)")
	f.StringVar(&o.thousands, "thousands", "", "thousands separator: ',' '.' or 'space' (default: auto)")
	f.StringVar(&o.encoding, "encoding", "", "input encoding: utf-8, latin1 or windows-1252")
	f.StringVar(&o.sheet, "sheet", "", "XLSX worksheet name")
}

// build merges built-in defaults, the preset, explicit config keys and flags, in
// increasing precedence.
func (o *pipelineFlags) build(cmd *cobra.Command) (pipeline.Config, presets.Preset, error) {
	g := cfg
	if g == nil {
		g = &cfgpkg.Global{}
	}
	var pc pipeline.Config
	var pre presets.Preset
	name := g.Preset
	if o.preset != "" {
		name = o.preset
	}
	if name != "" {
		p, err := presets.Get(name)
		if err != nil {
			return pc, pre, err
		}
		pre, pc = p, p.Config
	}

	take := func(key string, zero bool) bool { return zero || g.IsSet(key) }
	if take("strategy", pc.Cluster.Strategy == "") {
		pc.Cluster.Strategy = g.Strategy
	}
	if take("k", pc.Cluster.K == 0) {
		pc.Cluster.K = g.K
	}
	if take("eps", pc.Cluster.Eps == 0) {
		pc.Cluster.Eps = g.Eps
	}
	if take("min_samples", pc.Cluster.MinSamples == 0) {
		pc.Cluster.MinSamples = g.MinSamples
	}
	if take("seed", pc.Cluster.Seed == 0) {
		pc.Cluster.Seed = g.Seed
	}
	if take("max_iter", pc.Cluster.MaxIter == 0) {
		pc.Cluster.MaxIter = g.MaxIter
	}
	if take("n_init", pc.Cluster.NInit == 0) {
		pc.Cluster.NInit = g.NInit
	}
	lists := []struct {
		key string
		dst *[]string
		src []string
	}{
		{"features", &pc.Features, g.Features},
		{"categorical", &pc.Categorical, g.Categorical},
		{"date_columns", &pc.DateColumns, g.DateColumns},
		{"date_layouts", &pc.DateLayouts, g.DateLayouts},
		{"required", &pc.Required, g.Required},
		{"summary_columns", &pc.SummaryColumns, g.SummaryColumns},
	}
	for _, l := range lists {
		if take(l.key, len(*l.dst) == 0) {
			*l.dst = append([]string(nil), l.src...)
		}
	}
	if take("label_column", pc.LabelColumn == "") {
		pc.LabelColumn = g.LabelColumn
	}
	if take("encode_categoricals", name == "") {
		pc.EncodeCategoricals = g.EncodeCategoricals
	}

	// flags win
	f := cmd.Flags()
	if f.Changed("strategy") {
		pc.Cluster.Strategy = o.strategy
	}
	if f.Changed("k") {
		pc.Cluster.K = o.k
	}
	if f.Changed("eps") {
		pc.Cluster.Eps = o.eps
	}
	if f.Changed("min-samples") {
		pc.Cluster.MinSamples = o.minSamples
	}
	if f.Changed("seed") {
		pc.Cluster.Seed = o.seed
	}
	if f.Changed("max-iter") {
		pc.Cluster.MaxIter = o.maxIter
	}
	if f.Changed("n-init") {
		pc.Cluster.NInit = o.nInit
	}
	if f.Changed("features") {
		pc.Features = splitList(o.features)
	}
	if f.Changed("categorical") {
		pc.Categorical = splitList(o.categorical)
	}
	if f.Changed("date-columns") {
		pc.DateColumns = splitList(o.dateColumns)
	}
	if f.Changed("required") {
		pc.Required = splitList(o.required)
	}
	if f.Changed("summary-columns") {
		pc.SummaryColumns = splitList(o.summaryCols)
	}
	if f.Changed("label-column") {
		pc.LabelColumn = o.labelColumn
	}
	if f.Changed("encode-categoricals") {
		pc.EncodeCategoricals = o.encodeCats
	}

	pick := func(flag, conf string) string {
		if flag != "" {
			return flag
		}
		return conf
	}
	var err error
	if pc.Load.Delimiter, err = dataset.ParseDelimiter(pick(o.delimiter, g.Delimiter)); err != nil {
		return pc, pre, err
	}
	if pc.Number.Decimal, err = parseDecimal(pick(o.decimal, g.Decimal)); err != nil {
		return pc, pre, err
	}
	if pc.Number.Thousands, err = parseThousands(pick(o.thousands, g.Thousands)); err != nil {
		return pc, pre, err
	}
	pc.Load.Encoding = pick(o.encoding, g.Encoding)
	pc.Load.Sheet = pick(o.sheet, g.Sheet)
	return pc, pre, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", s)
}

func parseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "space", " ":
		return ' ', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", s)
}

// objectStore returns a GCS client when any of uris is a gs:// URI, nil otherwise.
func objectStore(ctx context.Context, uris ...string) (*gcs.Store, error) {
	for _, u := range uris {
		if gcs.IsURI(u) {
			creds := ""
			if cfg != nil {
				creds = cfg.GCPCredentials
			}
			return gcs.NewStore(ctx, creds)
		}
	}
	return nil, nil
}

// explain adds an operator hint to the error kinds the pipeline reports.
func explain(err error) error {
	var inErr *dataset.InputError
	var parErr *cluster.ParameterError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &inErr) && errors.Is(err, dataset.ErrMissingColumn):
		return fmt.Errorf("column not found; check --features/--categorical against the file header: %w", err)
	case errors.Is(err, dataset.ErrEmptyDataset):
		return fmt.Errorf("no usable rows; see the cleaning report for why rows were dropped: %w", err)
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported input; use .csv, .tsv, .txt, .xlsx or a gs:// URI: %w", err)
	case errors.Is(err, pipeline.ErrNoFeatures):
		return fmt.Errorf("set --features, a --preset, or 'features' in the config file: %w", err)
	case errors.As(err, &parErr):
		return fmt.Errorf("invalid %s; adjust the flag or config key and retry: %w", parErr.Param, err)
	case errors.Is(err, cluster.ErrPredictUnsupported):
		return fmt.Errorf("this model cannot label new records; refit with --strategy kmeans: %w", err)
	}
	return err
}
