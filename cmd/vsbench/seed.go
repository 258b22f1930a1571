package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/seed"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/fixtures"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/config"
)

func (c *cli) newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate both schemas with a catalog of makes, models and trims",
		Long: `seed writes the same catalog rows, under the same ids, into every
strategy's schema. Level L writes (L+1)^2 makes, (L+6)*5^(L+1) models and
(L+11)*10^(L+1) trims.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.load()
			if err != nil {
				return err
			}
			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			p := seed.NewPopulator(s, fixtures.New(), seed.Options{Strategies: cfg.Strategies})
			counts, err := p.Populate(cmd.Context(), cfg.SeedLevel)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s into %v\n", counts, cfg.Strategies)
			return nil
		},
	}
	cmd.Flags().Int("level", 0, "catalog size (0..2)")
	cmd.Flags().StringSlice("strategies", nil, "strategies to seed")
	c.bind(cmd.Flags(), "level", config.KeySeedLevel)
	c.bind(cmd.Flags(), "strategies", config.KeyStrategies)
	return cmd
}
