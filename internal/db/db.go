package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"wholesale-catalog/internal/retry"
)

// Connect opens a pgx connection pool and verifies connectivity with a ping.
// A database that is still starting gets a few more tries.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	res := retry.Do(ctx, retry.Policy{Retries: 4, Backoff: time.Second}, func(ctx context.Context, _ int) (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, retry.Stop(err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	})
	if !res.OK() {
		return nil, fmt.Errorf("connect after %d attempts: %w", res.Attempts, res.Err)
	}
	return res.Value, nil
}
