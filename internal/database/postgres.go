package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelaskode/kelaskode-backend/internal/config"
	"github.com/rs/zerolog"
)

// NewPostgresPool opens the pgx pool backing the repositories and verifies
// the connection before the server starts taking traffic.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	tunePool(poolCfg, cfg.MaxDBConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Int32("max_conns", poolCfg.MaxConns).
		Int32("min_conns", poolCfg.MinConns).
		Msg("PostgreSQL connected")

	return pool, nil
}

// tunePool sizes the pool for this workload: short repository queries from
// the handlers plus the snapshot worker's long-lived consumer. A quarter of
// the pool stays warm so the state endpoint, hit in bursts on page reloads,
// does not pay connect latency after idle periods.
func tunePool(poolCfg *pgxpool.Config, maxConns int32) {
	if maxConns < 2 {
		maxConns = 2 // one for the handlers, one for the snapshot worker
	}
	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = maxConns / 4
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
}
