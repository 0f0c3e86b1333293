package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salescluster-cli/internal/pipeline"
)

var (
	sweepPipeline pipelineFlags
	sweepKMin     int
	sweepKMax     int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <file>",
	Short: "Report k-means inertia and silhouette for a range of k",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pc, _, err := sweepPipeline.build(cmd)
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
		t, _, err := pipeline.Inspect(ctx, args[0], pc)
		if err != nil {
			return explain(err)
		}
		points, err := pipeline.Sweep(ctx, t, pc, sweepKMin, sweepKMax)
		if err != nil {
			return explain(err)
		}
		fmt.Fprint(cmd.OutOrStdout(), pipeline.SweepMarkdown(points))
		return nil
	},
}

func init() {
	sweepPipeline.register(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepKMin, "k-min", 2, "smallest k")
	sweepCmd.Flags().IntVar(&sweepKMax, "k-max", 10, "largest k")
	rootCmd.AddCommand(sweepCmd)
}
