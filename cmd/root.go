package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/bus"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/engine"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/system"
)

var (
	cfgFile  string
	deckFile string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "scrolly",
	Short: "Scroll-driven data visualization renderer",
	Long: `Scrolly turns a YAML deck of narrative steps into an animated,
scroll-driven presentation: a world map with view transitions and city
timelines, data charts with staggered updates, and per-step images.
Decks can be exported as SVG frame sequences or served live.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "scrolly.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&deckFile, "deck", "", "deck file (overrides config, defaults to the newest deck in the data dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadPresentation builds the full object graph: config, deck, bus, store
// and engine, with all datasets loaded.
func loadPresentation(ctx context.Context) (*config.Config, *config.Deck, *bus.Bus, *engine.Presentation, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}

	path := deckFile
	if path == "" {
		path = cfg.DeckFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		found, ferr := system.FindLatestDeck(cfg.DataDir)
		if ferr != nil {
			return nil, nil, nil, nil, fmt.Errorf("deck %s not found and %v", path, ferr)
		}
		if verbose {
			fmt.Printf("[*] Using newest deck: %s\n", found)
		}
		path = found
	}

	deck, err := config.ReadDeck(path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading deck: %w", err)
	}
	if err := deck.Validate(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("invalid deck %s: %w", path, err)
	}

	b := bus.New()
	store := data.NewStore(cfg.DataDir, b)
	pres := engine.New(cfg, deck, b, store)
	if err := pres.Load(ctx); err != nil {
		pres.Close()
		return nil, nil, nil, nil, fmt.Errorf("loading datasets: %w", err)
	}
	return cfg, deck, b, pres, nil
}
