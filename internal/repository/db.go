package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gostop/gostop-server-go/internal/config"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS round_results (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	room_code    TEXT NOT NULL,
	round_number INT NOT NULL,
	winner_id    TEXT,
	base_points  INT NOT NULL DEFAULT 0,
	final_points INT NOT NULL DEFAULT 0,
	go_count     INT NOT NULL DEFAULT 0,
	nagari_count INT NOT NULL DEFAULT 0,
	ended_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_round_results_room ON round_results(room_code);
CREATE TABLE IF NOT EXISTS round_players (
	result_id    UUID NOT NULL REFERENCES round_results(id),
	player_id    TEXT NOT NULL,
	score        INT NOT NULL,
	gwang_count  INT NOT NULL DEFAULT 0,
	animal_count INT NOT NULL DEFAULT 0,
	ribbon_count INT NOT NULL DEFAULT 0,
	pi_count     INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_round_players_result ON round_players(result_id);
CREATE INDEX IF NOT EXISTS idx_round_players_player ON round_players(player_id);
`

// DB wraps the Postgres connection pool. A nil DB disables persistence;
// every repository built on it degrades to a no-op.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB connects to Postgres and applies the schema. An empty URL returns
// (nil, nil) and the server runs without persistence.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	if cfg.URL == "" {
		logger.Warn("no database configured; round results will not be persisted")
		return nil, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("connected to Postgres", zap.Int32("max_conns", poolCfg.MaxConns))
	return &DB{pool: pool}, nil
}

// Stats returns pool statistics.
func (db *DB) Stats() *pgxpool.Stat {
	return db.pool.Stat()
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db != nil && db.pool != nil {
		db.pool.Close()
	}
}
