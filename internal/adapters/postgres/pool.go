// Package postgres holds helpers shared by the pgx adapters.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSearchPath lets unqualified names resolve in either strategy schema.
const DefaultSearchPath = "trigger,view,public"

// PoolOptions sizes the pool. MinConns is pinned to MaxConns so every slot
// is warm before the first batch is timed.
type PoolOptions struct {
	MaxConns   int32
	SearchPath string
}

// NewPool connects and pings. The caller owns Close.
func NewPool(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("empty database url")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	size := opts.MaxConns
	if size < 1 {
		size = 1
	}
	cfg.MaxConns = size
	cfg.MinConns = size

	searchPath := opts.SearchPath
	if searchPath == "" {
		searchPath = DefaultSearchPath
	}
	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = make(map[string]string)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = searchPath

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
