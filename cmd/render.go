package cmd

import (
	"github.com/spf13/cobra"
)

var (
	renderFrames int
	renderStats  bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Export the deck as SVG frame sequences",
	Long: `Renders every step of the deck into a sequence of SVG frames in the
output directory, sampling each step's transitions and reveal animations
in virtual time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, _, _, pres, err := loadPresentation(ctx)
		if err != nil {
			return err
		}
		defer pres.Close()

		if renderFrames > 0 {
			cfg.FramesPerStep = renderFrames
		}
		if renderStats {
			cfg.ShowStats = true
		}

		return pres.ExportFrames(ctx)
	},
}

func init() {
	renderCmd.Flags().IntVar(&renderFrames, "frames", 0, "frames per step (overrides config)")
	renderCmd.Flags().BoolVar(&renderStats, "stats", false, "print a performance report")
	rootCmd.AddCommand(renderCmd)
}
