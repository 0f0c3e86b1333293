package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salescluster-cli/internal/chart"
	"github.com/KaramelBytes/salescluster-cli/internal/gcs"
	"github.com/KaramelBytes/salescluster-cli/internal/pipeline"
	"github.com/KaramelBytes/salescluster-cli/internal/presets"
	"github.com/KaramelBytes/salescluster-cli/internal/sink"
	"github.com/KaramelBytes/salescluster-cli/internal/utils"
)

// outputFlags select where a finished run is written.
type outputFlags struct {
	output   string
	xlsx     string
	sqlite   string
	bigquery string
	modelOut string
	chart    string
	chartX   string
	chartY   string
	report   string
	quiet    bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "", "write the labelled table as CSV to a path or gs:// URI")
	f.StringVar(&o.xlsx, "xlsx", "", "write clusters, counts and means sheets to an XLSX file")
	f.StringVar(&o.sqlite, "sqlite", "", "record the run in a SQLite database (overrides sqlite_path)")
	f.StringVar(&o.bigquery, "bigquery", "", "stream assignments to project.dataset.table")
	f.StringVar(&o.modelOut, "model-out", "", "save the fitted model as YAML for 'predict'")
	f.StringVar(&o.chart, "chart", "", "write an HTML scatter chart")
	f.StringVar(&o.chartX, "chart-x", "", "x axis column for --chart")
	f.StringVar(&o.chartY, "chart-y", "", "y axis column for --chart")
	f.StringVar(&o.report, "report", "", "write the Markdown report to a file")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "do not print the report to stdout")
}

var (
	runPipeline pipelineFlags
	runOutputs  outputFlags
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Clean, cluster and summarize a sales dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pc, pre, err := runPipeline.build(cmd)
		if err != nil {
			return err
		}
		return runOnce(commandContext(cmd), cmd, args[0], pc, pre, &runOutputs)
	},
}

func init() {
	runPipeline.register(runCmd)
	runOutputs.register(runCmd)
	rootCmd.AddCommand(runCmd)
}

// runOnce executes the pipeline on src and writes every requested output.
func runOnce(ctx context.Context, cmd *cobra.Command, src string, pc pipeline.Config, pre presets.Preset, out *outputFlags) error {
	store, err := objectStore(ctx, src, out.output)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		pc.Load.Remote = store
	}
	w := cmd.OutOrStdout()

	fitted, res, err := pipeline.Run(ctx, src, pc)
	if err != nil {
		if res != nil && res.Clean != nil && !out.quiet {
			fmt.Fprint(w, res.Clean.Markdown())
		}
		return explain(err)
	}
	md := res.Markdown()
	if !out.quiet {
		fmt.Fprintln(w, md)
	} else {
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "⚠ Warning: %s\n", warn)
		}
	}
	if out.report != "" {
		if err := utils.SafeWriteFile(out.report, []byte(md)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(w, "✓ Wrote report to %s\n", out.report)
	}

	if out.output != "" {
		aug, err := res.Augmented()
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := aug.WriteCSV(&buf); err != nil {
			return err
		}
		if gcs.IsURI(out.output) {
			err = store.Upload(ctx, out.output, &buf)
		} else {
			err = utils.SafeWriteFile(out.output, buf.Bytes())
		}
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(w, "✓ Wrote %d labelled rows to %s\n", len(res.Labels), out.output)
	}

	if out.xlsx != "" {
		if err := writeXLSX(out.xlsx, res); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Wrote workbook to %s\n", out.xlsx)
	}

	dbPath := out.sqlite
	if dbPath == "" && cfg != nil {
		dbPath = cfg.SQLitePath
	}
	if dbPath != "" {
		db, err := sink.OpenSQLite(ctx, dbPath)
		if err != nil {
			return err
		}
		err = db.Write(ctx, res)
		db.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Recorded run %s in %s\n", res.RunID, dbPath)
	}

	if target, ok, err := bigQueryTarget(out.bigquery); err != nil {
		return err
	} else if ok {
		creds := ""
		if cfg != nil {
			creds = cfg.GCPCredentials
		}
		bq, err := sink.NewBigQuery(ctx, target[0], target[1], target[2], creds)
		if err != nil {
			return err
		}
		err = bq.Write(ctx, res)
		bq.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Streamed %d rows to %s\n", len(res.Labels), strings.Join(target[:], "."))
	}

	if out.modelOut != "" {
		if err := fitted.Save(out.modelOut); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Saved model to %s\n", out.modelOut)
	}

	if out.chart != "" {
		if err := writeChart(out, pre, res); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Wrote chart to %s\n", out.chart)
	}
	return nil
}

func writeXLSX(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create xlsx: %w", err)
	}
	if err := sink.WriteXLSX(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// bigQueryTarget resolves project.dataset.table from the flag or the config keys.
func bigQueryTarget(flag string) ([3]string, bool, error) {
	var t [3]string
	if flag != "" {
		parts := strings.Split(flag, ".")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return t, false, fmt.Errorf("invalid --bigquery %q (use project.dataset.table)", flag)
		}
		copy(t[:], parts)
		return t, true, nil
	}
	if cfg == nil || cfg.BigQueryProject == "" || cfg.BigQueryDataset == "" || cfg.BigQueryTable == "" {
		return t, false, nil
	}
	return [3]string{cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable}, true, nil
}

func writeChart(out *outputFlags, pre presets.Preset, res *pipeline.Result) error {
	x, y := out.chartX, out.chartY
	if x == "" {
		x = pre.ChartX
	}
	if y == "" {
		y = pre.ChartY
	}
	feats := res.Config.Features
	if x == "" && len(feats) > 0 {
		x = feats[0]
	}
	if y == "" && len(feats) > 1 {
		y = feats[1]
	}
	if x == "" || y == "" {
		return fmt.Errorf("chart needs two columns; set --chart-x and --chart-y")
	}
	xs, err := res.Table.Floats(x)
	if err != nil {
		return err
	}
	ys, err := res.Table.Floats(y)
	if err != nil {
		return err
	}
	f, err := os.Create(out.chart)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	err = chart.Render(f, chart.Scatter{
		Title:  fmt.Sprintf("%s (%s)", res.Source, res.Config.Describe()),
		XName:  x,
		YName:  y,
		X:      xs,
		Y:      ys,
		Labels: res.Labels,
	})
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
