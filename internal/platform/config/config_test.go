package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
)

func TestLoad_DefaultsForMemoryBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, 1, cfg.PoolSize)
	assert.Equal(t, 2*time.Minute, cfg.AcquireTimeout)
	assert.Equal(t, "trigger,view,public", cfg.SearchPath)
	assert.Equal(t, []domain.Strategy{domain.StrategyView, domain.StrategyTrigger}, cfg.Strategies)
	assert.Equal(t, []int{1, 100, 10000}, cfg.InsertSizes)
	assert.Equal(t, []int{100, 10000}, cfg.DeleteSizes)
	assert.Equal(t, []int{100, 1000}, cfg.SearchLoadSizes)
	assert.Equal(t, 10, cfg.ProbeLimit)
	assert.True(t, cfg.Verify)
	assert.Equal(t, "load", cfg.ResultsDir)
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("DATABASE_URL", "")

	_, err := Load(New())
	var ce *Error
	require.True(t, errors.As(err, &ce), "err=%v", err)
	assert.Equal(t, KeyDatabaseURL, ce.Field)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://bench@localhost/bench")
	t.Setenv("VSBENCH_POOL_SIZE", "4")
	t.Setenv("VSBENCH_ACQUIRE_TIMEOUT", "30s")
	t.Setenv("VSBENCH_STRATEGIES", "trigger")
	t.Setenv("VSBENCH_INSERT_SIZES", "1, 10")
	t.Setenv("VSBENCH_DELETE_SIZES", "10")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://bench@localhost/bench", cfg.DatabaseURL)
	assert.Equal(t, 4, cfg.PoolSize)
	assert.Equal(t, 30*time.Second, cfg.AcquireTimeout)
	assert.Equal(t, []domain.Strategy{domain.StrategyTrigger}, cfg.Strategies)
	assert.Equal(t, []int{1, 10}, cfg.InsertSizes)
	assert.Equal(t, []int{10}, cfg.DeleteSizes)
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	path := filepath.Join(t.TempDir(), "vsbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: memory\nseed_level: 2\ninsert_sizes: [1, 5]\ndelete_sizes: [5]\n"), 0o644))

	v := New()
	require.NoError(t, ReadFile(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.SeedLevel)
	assert.Equal(t, []int{1, 5}, cfg.InsertSizes)
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	valid := Config{
		Backend:         BackendMemory,
		PoolSize:        1,
		AcquireTimeout:  time.Minute,
		ResultsDir:      "load",
		Strategies:      []domain.Strategy{domain.StrategyTrigger},
		InsertSizes:     []int{1, 100},
		DeleteSizes:     []int{100},
		SearchLoadSizes: []int{100},
		ProbeLimit:      10,
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name  string
		mut   func(c *Config)
		field string
	}{
		{"unknown backend", func(c *Config) { c.Backend = "sqlite" }, KeyBackend},
		{"pool size", func(c *Config) { c.PoolSize = 0 }, KeyPoolSize},
		{"acquire timeout", func(c *Config) { c.AcquireTimeout = 0 }, KeyAcquireTimeout},
		{"seed level high", func(c *Config) { c.SeedLevel = 3 }, KeySeedLevel},
		{"seed level negative", func(c *Config) { c.SeedLevel = -1 }, KeySeedLevel},
		{"no strategies", func(c *Config) { c.Strategies = nil }, KeyStrategies},
		{"duplicate strategy", func(c *Config) { c.Strategies = []domain.Strategy{"view", "view"} }, KeyStrategies},
		{"unknown strategy", func(c *Config) { c.Strategies = []domain.Strategy{"matview"} }, KeyStrategies},
		{"zero insert size", func(c *Config) { c.InsertSizes = []int{0} }, KeyInsertSizes},
		{"orphan delete size", func(c *Config) { c.DeleteSizes = []int{50} }, KeyDeleteSizes},
		{"probe limit", func(c *Config) { c.ProbeLimit = -1 }, KeyProbeLimit},
	}
	for _, tc := range cases {
		c := valid
		tc.mut(&c)
		err := c.Validate()
		var ce *Error
		if !errors.As(err, &ce) || ce.Field != tc.field {
			t.Fatalf("%s: err=%v, want field %s", tc.name, err, tc.field)
		}
	}
}
