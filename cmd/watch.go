package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salescluster-cli/internal/dataset"
	"github.com/KaramelBytes/salescluster-cli/internal/watch"
)

var (
	watchPipeline pipelineFlags
	watchOutputs  outputFlags
	watchEvery    time.Duration
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-run whenever the file changes or on a schedule",
	Long: `watch runs the pipeline once, then again whenever the file is written and, with
--every, on a fixed interval. Runs never overlap; changes during a run queue one
follow-up run. gs:// sources can only be re-run on a schedule.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]
		pc, pre, err := watchPipeline.build(cmd)
		if err != nil {
			return err
		}
		if err := pc.Validate(); err != nil {
			return explain(err)
		}
		opt := watch.Options{Every: watchEvery, Debounce: watchDebounce, Logger: log}
		if !dataset.IsRemote(src) {
			opt.Path = src
		} else if watchEvery <= 0 {
			return fmt.Errorf("remote sources need --every")
		}
		w := watch.New(opt, func(ctx context.Context, reason string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "--- run (%s) at %s ---\n", reason, time.Now().Format(time.RFC3339))
			err := runOnce(ctx, cmd, src, pc, pre, &watchOutputs)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "✗ Error:", err)
			}
			return err
		})
		return w.Start(commandContext(cmd))
	},
}

func init() {
	watchPipeline.register(watchCmd)
	watchOutputs.register(watchCmd)
	watchCmd.Flags().DurationVar(&watchEvery, "every", 0, "also re-run on this interval, e.g. 10m")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "wait for writes to settle before re-running")
	rootCmd.AddCommand(watchCmd)
}
