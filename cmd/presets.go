package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/salescluster-cli/internal/presets"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "List built-in presets or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, n := range presets.Names() {
				p, _ := presets.Get(n)
				fmt.Fprintf(w, "%-24s %s\n", p.Name, p.Description)
			}
			return nil
		}
		p, err := presets.Get(args[0])
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(p.Config)
		if err != nil {
			return fmt.Errorf("marshal preset: %w", err)
		}
		fmt.Fprintf(w, "# %s\n# %s\n%s", p.Name, p.Description, b)
		if p.ChartX != "" {
			fmt.Fprintf(w, "# chart: %s vs %s\n", p.ChartX, p.ChartY)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
