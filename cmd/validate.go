package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [deck file]",
	Short: "Check a deck file for errors",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := deckFile
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			path = cfg.DeckFile
		}

		deck, err := config.ReadDeck(path)
		if err != nil {
			return err
		}
		if err := deck.Validate(); err != nil {
			return err
		}
		fmt.Printf("[+++] %s: %d steps, OK\n", path, len(deck.Steps))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
