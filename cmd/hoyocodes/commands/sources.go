package commands

import (
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/internal/extract"
	"hoyocodes-backend/internal/sources"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources [game]",
	Short: "Prints the source registry, optionally for a single game.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		registry, err := sources.Load(cfg.Sources)
		if err != nil {
			return err
		}

		games := registry.Games()
		if len(args) == 1 {
			game, err := codes.ParseGame(args[0])
			if err != nil {
				return err
			}
			games = []codes.Game{game}
		}

		t := newTable()
		t.AppendHeader(table.Row{"Game", "Source", "Strategy", "URL"})
		for _, game := range games {
			list, err := registry.Enumerate(game)
			if err != nil {
				return err
			}
			for _, src := range list {
				strategy, err := extract.StrategyOf(src.Source)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{game, src.Source, strategy, src.URL})
			}
		}
		t.Render()
		return nil
	},
}
