package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PoolConfig sizes the pool and bounds how long NewPool keeps retrying an
// unreachable server.
type PoolConfig struct {
	URL        string
	MaxConns   int32
	MinConns   int32
	MaxElapsed time.Duration
}

// NewPool opens a pool and pings it, retrying with exponential backoff until
// the server answers, MaxElapsed passes or ctx is done.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := waitReady(ctx, pool, cfg.MaxElapsed); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// waitReady pings p until it succeeds. A zero maxElapsed uses the backoff
// package default.
func waitReady(ctx context.Context, p Pinger, maxElapsed time.Duration) error {
	eb := backoff.NewExponentialBackOff()
	if maxElapsed > 0 {
		eb.MaxElapsedTime = maxElapsed
	}
	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return p.Ping(ctx)
	}, backoff.WithContext(eb, ctx), func(err error, wait time.Duration) {
		zerolog.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("database not ready")
	})
}
