package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salescluster-cli/internal/pipeline"
)

var predictModel string

var predictCmd = &cobra.Command{
	Use:   "predict --model model.yaml <column=value>...",
	Short: "Assign a cluster to one record using a saved model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if predictModel == "" {
			return fmt.Errorf("--model is required")
		}
		record := make(map[string]string, len(args))
		for _, a := range args {
			k, v, ok := strings.Cut(a, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return fmt.Errorf("invalid field %q (use column=value)", a)
			}
			record[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		f, err := pipeline.LoadFitted(predictModel)
		if err != nil {
			return err
		}
		label, err := f.Predict(record)
		if err != nil {
			return explain(err)
		}
		log.Debug().Str("run_id", f.RunID).Int("label", label).Msg("predicted")
		fmt.Fprintln(cmd.OutOrStdout(), label)
		return nil
	},
}

func init() {
	predictCmd.Flags().StringVarP(&predictModel, "model", "m", "", "model file written by 'run --model-out'")
	rootCmd.AddCommand(predictCmd)
}
