package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salescluster-cli/internal/analysis"
	"github.com/KaramelBytes/salescluster-cli/internal/pipeline"
)

var (
	inspectPipeline pipelineFlags
	inspectOutput   string
	inspectProfile  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Load and clean a dataset and report dropped rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pc, _, err := inspectPipeline.build(cmd)
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		store, err := objectStore(ctx, args[0])
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
			pc.Load.Remote = store
		}
		w := cmd.OutOrStdout()
		t, rep, err := pipeline.Inspect(ctx, args[0], pc)
		if rep != nil {
			fmt.Fprint(w, rep.Markdown())
		}
		if err != nil {
			return explain(err)
		}
		if inspectProfile {
			opt := analysis.DefaultOptions()
			opt.Number = pc.Number
			opt.DateLayouts = pc.DateLayouts
			fmt.Fprint(w, "\n"+analysis.Profile(t, opt).Markdown())
		} else {
			fmt.Fprintf(w, "\nColumns: %v\n", t.Columns())
		}
		if inspectOutput != "" {
			f, err := os.Create(inspectOutput)
			if err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if err := t.WriteCSV(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(w, "✓ Wrote %d cleaned rows to %s\n", t.Len(), inspectOutput)
		}
		return nil
	},
}

func init() {
	inspectPipeline.register(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectProfile, "profile", true, "profile the cleaned columns")
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "", "write the cleaned table as CSV")
	rootCmd.AddCommand(inspectCmd)
}
