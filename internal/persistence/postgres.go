package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/moddy-app/moddysystems/internal/config"
)

// Postgres wraps access to a pgx connection pool. A nil pool is a valid,
// degraded state: the store is treated as unavailable and callers no-op.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres establishes a connection pool when DSN is provided.
func NewPostgres(ctx context.Context, name string, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("database DSN not provided; store features disabled", zap.String("store", name))
		return &Postgres{Pool: nil}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres", zap.String("store", name))
	return &Postgres{Pool: pool}, nil
}

// EnsureTicketsTable creates the tickets table when it does not exist yet.
func (p *Postgres) EnsureTicketsTable(ctx context.Context, logger *zap.Logger) error {
	if p == nil || p.Pool == nil {
		logger.Warn("no ticket store available; skipping schema setup")
		return nil
	}

	const ddl = `
        CREATE TABLE IF NOT EXISTS tickets (
            thread_id   TEXT PRIMARY KEY,
            user_id     TEXT NOT NULL,
            category    VARCHAR(50) NOT NULL,
            claimed_by  TEXT,
            created_at  TIMESTAMPTZ DEFAULT NOW(),
            archived    BOOLEAN DEFAULT FALSE,
            archived_at TIMESTAMPTZ,
            metadata    JSONB DEFAULT '{}'::jsonb
        )`
	if _, err := p.Pool.Exec(ctx, ddl); err != nil {
		return err
	}
	logger.Info("tickets table ready")
	return nil
}

// Ping verifies connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return errors.New("postgres pool not configured")
	}
	return p.Pool.Ping(ctx)
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}
