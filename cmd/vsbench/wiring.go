package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	memstore "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/memory/store"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/postgres"
	pgstore "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/postgres/store"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/runner"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/config"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

const configKeyAnnotation = "vsbench.config-key"

// bind marks flag name of fs as the command-line source of a config key.
// Several subcommands share keys, so binding happens in bindFlags once the
// executing command is known.
func (c *cli) bind(fs *pflag.FlagSet, name, key string) {
	if err := fs.SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
		panic(fmt.Sprintf("annotate flag %s: %v", name, err))
	}
}

// bindFlags binds every annotated flag of the executing command into viper.
func (c *cli) bindFlags(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[configKeyAnnotation]
		if len(keys) == 0 || err != nil {
			return
		}
		err = c.v.BindPFlag(keys[0], f)
	})
	return err
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memstore.New(memstore.Options{
			PoolSize:       int64(cfg.PoolSize),
			AcquireTimeout: cfg.AcquireTimeout,
		}), nil
	default:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{
			MaxConns:   int32(cfg.PoolSize),
			SearchPath: cfg.SearchPath,
		})
		if err != nil {
			return nil, fmt.Errorf("invalid postgres config: %w", err)
		}
		return pgstore.NewStore(pool, cfg.AcquireTimeout), nil
	}
}

func runnerOptions(cfg config.Config, phases ...runner.Phase) runner.Options {
	return runner.Options{
		Strategies:      cfg.Strategies,
		Phases:          phases,
		InsertSizes:     cfg.InsertSizes,
		DeleteSizes:     cfg.DeleteSizes,
		SearchLoadSizes: cfg.SearchLoadSizes,
		ProbeLimit:      cfg.ProbeLimit,
		Verify:          cfg.Verify,
	}
}
