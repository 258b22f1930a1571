package main

import (
	"fmt"

	"github.com/spf13/cobra"

	fsresults "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/filesystem/resultstore"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/report"
)

func (c *cli) newReportCmd() *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the persisted result documents as tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := report.ParseColorMode(color)
			if err != nil {
				return err
			}
			cfg, err := c.loadOffline()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			results := fsresults.NewStore(cfg.ResultsDir)
			ops, okOps, err := results.LoadOperations(ctx)
			if err != nil {
				return err
			}
			search, okSearch, err := results.LoadSearch(ctx)
			if err != nil {
				return err
			}
			if !okOps && !okSearch {
				return fmt.Errorf("no result documents in %s; run vsbench run first", cfg.ResultsDir)
			}
			return report.Render(cmd.OutOrStdout(), ops, search, report.Options{Color: mode, Strategies: cfg.Strategies})
		},
	}
	cmd.Flags().StringVar(&color, "color", "auto", "color output (auto|always|never)")
	return cmd
}
