package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Keys shared by flags, environment and the optional config file.
const (
	KeyBackend         = "backend"
	KeyDatabaseURL     = "database_url"
	KeyPoolSize        = "pool_size"
	KeyAcquireTimeout  = "acquire_timeout"
	KeySearchPath      = "search_path"
	KeySeedLevel       = "seed_level"
	KeyResultsDir      = "results_dir"
	KeyStrategies      = "strategies"
	KeyInsertSizes     = "insert_sizes"
	KeyDeleteSizes     = "delete_sizes"
	KeySearchLoadSizes = "search_load_sizes"
	KeyProbeLimit      = "probe_limit"
	KeyVerify          = "verify"
	KeyLogLevel        = "log_level"
	KeyHTTPAddr        = "http_addr"
)

const envPrefix = "VSBENCH"

// MaxSeedLevel bounds the seed populator; level 2 already writes tens of thousands of rows.
const MaxSeedLevel = 2

// Config is the validated run configuration.
type Config struct {
	Backend     string
	DatabaseURL string

	PoolSize       int
	AcquireTimeout time.Duration
	SearchPath     string

	SeedLevel  int
	ResultsDir string

	Strategies []domain.Strategy
	// InsertSizes drive both insert and update batches.
	InsertSizes     []int
	DeleteSizes     []int
	SearchLoadSizes []int
	ProbeLimit      int
	Verify          bool

	LogLevel string
	HTTPAddr string
}

// Error is a configuration problem detected before any store is touched.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// New returns a viper instance with every default and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyBackend, BackendPostgres)
	v.SetDefault(KeyPoolSize, 1)
	v.SetDefault(KeyAcquireTimeout, "2m")
	v.SetDefault(KeySearchPath, "trigger,view,public")
	v.SetDefault(KeySeedLevel, 0)
	v.SetDefault(KeyResultsDir, "load")
	v.SetDefault(KeyStrategies, "view,trigger")
	v.SetDefault(KeyInsertSizes, "1,100,10000")
	v.SetDefault(KeyDeleteSizes, "100,10000")
	v.SetDefault(KeySearchLoadSizes, "100,1000")
	v.SetDefault(KeyProbeLimit, 10)
	v.SetDefault(KeyVerify, true)
	v.SetDefault(KeyLogLevel, "<root>=INFO")
	v.SetDefault(KeyHTTPAddr, ":8080")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// Names shared with the rest of the deployment.
	_ = v.BindEnv(KeyDatabaseURL, "DATABASE_URL", envPrefix+"_DATABASE_URL")
	_ = v.BindEnv(KeyBackend, "STORAGE_BACKEND", envPrefix+"_BACKEND")
	return v
}

// ReadFile merges an optional YAML config file into v.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load parses and validates everything v holds.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Backend:     strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend))),
		DatabaseURL: strings.TrimSpace(v.GetString(KeyDatabaseURL)),
		SearchPath:  strings.TrimSpace(v.GetString(KeySearchPath)),
		ResultsDir:  strings.TrimSpace(v.GetString(KeyResultsDir)),
		Verify:      v.GetBool(KeyVerify),
		LogLevel:    strings.TrimSpace(v.GetString(KeyLogLevel)),
		HTTPAddr:    strings.TrimSpace(v.GetString(KeyHTTPAddr)),
	}

	var err error
	if cfg.PoolSize, err = intValue(v, KeyPoolSize); err != nil {
		return Config{}, err
	}
	if cfg.SeedLevel, err = intValue(v, KeySeedLevel); err != nil {
		return Config{}, err
	}
	if cfg.ProbeLimit, err = intValue(v, KeyProbeLimit); err != nil {
		return Config{}, err
	}
	if raw := strings.TrimSpace(v.GetString(KeyAcquireTimeout)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, &Error{Field: KeyAcquireTimeout, Reason: fmt.Sprintf("must be a duration (e.g. 2m): %v", err)}
		}
		cfg.AcquireTimeout = d
	}
	for _, raw := range listValue(v, KeyStrategies) {
		s, err := domain.ParseStrategy(raw)
		if err != nil {
			return Config{}, &Error{Field: KeyStrategies, Reason: err.Error()}
		}
		cfg.Strategies = append(cfg.Strategies, s)
	}
	if cfg.InsertSizes, err = sizesValue(v, KeyInsertSizes); err != nil {
		return Config{}, err
	}
	if cfg.DeleteSizes, err = sizesValue(v, KeyDeleteSizes); err != nil {
		return Config{}, err
	}
	if cfg.SearchLoadSizes, err = sizesValue(v, KeySearchLoadSizes); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field as an *Error.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return &Error{Field: KeyDatabaseURL, Reason: "required for the postgres backend (set DATABASE_URL)"}
		}
	case BackendMemory:
	default:
		return &Error{Field: KeyBackend, Reason: fmt.Sprintf("unknown backend %q (expected postgres|memory)", c.Backend)}
	}
	if c.PoolSize < 1 {
		return &Error{Field: KeyPoolSize, Reason: "must be at least 1"}
	}
	if c.AcquireTimeout <= 0 {
		return &Error{Field: KeyAcquireTimeout, Reason: "must be positive"}
	}
	if c.SeedLevel < 0 || c.SeedLevel > MaxSeedLevel {
		return &Error{Field: KeySeedLevel, Reason: fmt.Sprintf("must be between 0 and %d", MaxSeedLevel)}
	}
	if c.ResultsDir == "" {
		return &Error{Field: KeyResultsDir, Reason: "must not be empty"}
	}
	if len(c.Strategies) == 0 {
		return &Error{Field: KeyStrategies, Reason: "at least one strategy is required"}
	}
	seen := make(map[domain.Strategy]bool, len(c.Strategies))
	for _, s := range c.Strategies {
		if !s.Valid() {
			return &Error{Field: KeyStrategies, Reason: fmt.Sprintf("unknown strategy %q", s)}
		}
		if seen[s] {
			return &Error{Field: KeyStrategies, Reason: fmt.Sprintf("duplicate strategy %q", s)}
		}
		seen[s] = true
	}
	if len(c.InsertSizes) == 0 {
		return &Error{Field: KeyInsertSizes, Reason: "at least one size is required"}
	}
	inserted := make(map[int]bool, len(c.InsertSizes))
	for _, n := range c.InsertSizes {
		if n < 1 {
			return &Error{Field: KeyInsertSizes, Reason: "sizes must be at least 1"}
		}
		inserted[n] = true
	}
	for _, n := range c.DeleteSizes {
		if !inserted[n] {
			return &Error{Field: KeyDeleteSizes, Reason: fmt.Sprintf("size %d has no insert batch to delete", n)}
		}
	}
	for _, n := range c.SearchLoadSizes {
		if n < 1 {
			return &Error{Field: KeySearchLoadSizes, Reason: "sizes must be at least 1"}
		}
	}
	if c.ProbeLimit < 0 {
		return &Error{Field: KeyProbeLimit, Reason: "must not be negative"}
	}
	return nil
}

func intValue(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Field: key, Reason: fmt.Sprintf("must be an integer, got %q", raw)}
	}
	return n, nil
}

// listValue accepts a YAML list or a comma-separated string.
func listValue(v *viper.Viper, key string) []string {
	var parts []string
	switch raw := v.Get(key).(type) {
	case nil:
	case []string:
		parts = raw
	case []any:
		for _, p := range raw {
			parts = append(parts, fmt.Sprint(p))
		}
	case []int:
		for _, p := range raw {
			parts = append(parts, strconv.Itoa(p))
		}
	default:
		parts = strings.Split(fmt.Sprint(raw), ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sizesValue(v *viper.Viper, key string) ([]int, error) {
	var out []int
	for _, raw := range listValue(v, key) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &Error{Field: key, Reason: fmt.Sprintf("must be a list of integers, got %q", raw)}
		}
		out = append(out, n)
	}
	return out, nil
}
