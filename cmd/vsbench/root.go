package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/config"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/logging"
)

// cli carries the state shared by every subcommand.
type cli struct {
	configFile string
	envFile    string
	v          *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:   "vsbench",
		Short: "Benchmark and verify vehicle search maintenance strategies",
		Long: `vsbench drives timed insert, update and delete batches against a
trigger-maintained and a view-derived Make/Model/Trim search schema, probes
both after every write to confirm the search documents match the source
tables, and records the timings as JSON documents.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "optional YAML config file")
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	flags.String("backend", "", "storage backend (postgres|memory)")
	flags.String("database-url", "", "Postgres connection string (default $DATABASE_URL)")
	flags.Int("pool-size", 0, "store connection slots")
	flags.String("results-dir", "", "directory the result documents are written to")
	flags.String("log-level", "", "loggo specification, e.g. <root>=INFO;vsbench.app.oracle=DEBUG")
	c.bind(flags, "backend", config.KeyBackend)
	c.bind(flags, "database-url", config.KeyDatabaseURL)
	c.bind(flags, "pool-size", config.KeyPoolSize)
	c.bind(flags, "results-dir", config.KeyResultsDir)
	c.bind(flags, "log-level", config.KeyLogLevel)

	root.AddCommand(
		c.newRunCmd(),
		c.newOperationsCmd(),
		c.newSearchCmd(),
		c.newVerifyCmd(),
		c.newSeedCmd(),
		c.newReportCmd(),
		c.newServeCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := c.bindFlags(cmd.Flags()); err != nil {
		return err
	}
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", c.envFile, err)
		}
	}
	if err := config.ReadFile(c.v, c.configFile); err != nil {
		return err
	}
	spec := c.v.GetString(config.KeyLogLevel)
	if spec == "" {
		spec = logging.DefaultSpec
	}
	return logging.Setup(os.Stderr, spec)
}

// load validates the configuration for commands that talk to a store.
func (c *cli) load() (config.Config, error) {
	return config.Load(c.v)
}

// loadOffline validates the configuration for commands that only read the
// results directory, so no DATABASE_URL is needed.
func (c *cli) loadOffline() (config.Config, error) {
	c.v.Set(config.KeyBackend, config.BackendMemory)
	return config.Load(c.v)
}
