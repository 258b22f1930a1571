package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	fsresults "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/filesystem/resultstore"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/runner"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/seed"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/fixtures"
	platformclock "github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/clock"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/config"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/report"
)

// phaseOptions are the flags every benchmark command shares.
type phaseOptions struct {
	seedFirst bool
	quiet     bool
}

func (c *cli) addPhaseFlags(cmd *cobra.Command, o *phaseOptions) {
	f := cmd.Flags()
	f.StringSlice("strategies", nil, "strategies to run, in order (view,trigger)")
	f.BoolVar(&o.seedFirst, "seed", false, "populate the catalog at --seed-level before running")
	f.Int("seed-level", 0, "catalog size used with --seed (0..2)")
	f.BoolVar(&o.quiet, "quiet", false, "do not print the results tables")
	c.bind(f, "strategies", config.KeyStrategies)
	c.bind(f, "seed-level", config.KeySeedLevel)
}

func (c *cli) newRunCmd() *cobra.Command {
	var o phaseOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scenario, operation and search phases for every strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runPhases(cmd.Context(), o, runner.AllPhases...)
		},
	}
	c.addPhaseFlags(cmd, &o)
	cmd.Flags().Bool("verify", true, "verify search documents after every operation batch")
	c.bind(cmd.Flags(), "verify", config.KeyVerify)
	return cmd
}

func (c *cli) newOperationsCmd() *cobra.Command {
	var o phaseOptions
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "Time insert, update and delete batches for make, model and trim",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runPhases(cmd.Context(), o, runner.PhaseOperations)
		},
	}
	c.addPhaseFlags(cmd, &o)
	f := cmd.Flags()
	f.IntSlice("insert-sizes", nil, "insert and update batch sizes")
	f.IntSlice("delete-sizes", nil, "delete batch sizes (each must also be an insert size)")
	f.Bool("verify", true, "verify search documents after every batch")
	c.bind(f, "insert-sizes", config.KeyInsertSizes)
	c.bind(f, "delete-sizes", config.KeyDeleteSizes)
	c.bind(f, "verify", config.KeyVerify)
	return cmd
}

func (c *cli) newSearchCmd() *cobra.Command {
	var o phaseOptions
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Time single probes and concurrent probe loads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runPhases(cmd.Context(), o, runner.PhaseSearch)
		},
	}
	c.addPhaseFlags(cmd, &o)
	cmd.Flags().IntSlice("load-sizes", nil, "concurrent probe load sizes")
	cmd.Flags().Int("probe-limit", 0, "sample size requested by each probe")
	c.bind(cmd.Flags(), "load-sizes", config.KeySearchLoadSizes)
	c.bind(cmd.Flags(), "probe-limit", config.KeyProbeLimit)
	return cmd
}

func (c *cli) newVerifyCmd() *cobra.Command {
	var o phaseOptions
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Walk one make through insert, rename and delete, checking every probe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.quiet = true
			return c.runPhases(cmd.Context(), o, runner.PhaseScenario)
		},
	}
	cmd.Flags().StringSlice("strategies", nil, "strategies to verify, in order (view,trigger)")
	c.bind(cmd.Flags(), "strategies", config.KeyStrategies)
	return cmd
}

func (c *cli) runPhases(ctx context.Context, o phaseOptions, phases ...runner.Phase) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	gen := fixtures.New()
	if o.seedFirst {
		counts, err := seed.NewPopulator(s, gen, seed.Options{Strategies: cfg.Strategies}).Populate(ctx, cfg.SeedLevel)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "seeded %s per strategy\n", counts)
	}

	out := fsresults.NewStore(cfg.ResultsDir)
	r := runner.New(s, gen, platformclock.NewSystemClock(), out, runnerOptions(cfg, phases...))
	rep, err := r.Run(ctx)
	if err != nil {
		return err
	}
	if !o.quiet {
		agg := r.Aggregator()
		if err := report.Render(os.Stdout, agg.Operations(), agg.Search(), report.Options{Strategies: cfg.Strategies}); err != nil {
			return err
		}
	}
	for _, p := range rep.Phases {
		status := "ok"
		if p.Err != nil {
			status = "FAILED: " + p.Err.Error()
		}
		fmt.Fprintf(os.Stderr, "%-8s %-10s %10s  %s\n", p.Strategy, p.Phase, p.Duration.Round(time.Millisecond), status)
	}
	return rep.Err()
}
