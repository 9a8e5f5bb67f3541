package storage

import (
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv (
	k TEXT PRIMARY KEY,
	v TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// newPostgresStore creates a new PostgreSQL backed store
func newPostgresStore(cfg *Config, logger *zap.Logger) (Store, error) {
	db, err := openSQL("pgx", cfg.DSN, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := ensureSchema(db, postgresSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqlStore{
		db:     db,
		driver: "postgres",
		upsert: `INSERT INTO kv (k, v, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = EXCLUDED.updated_at`,
		getQuery: "SELECT v FROM kv WHERE k = $1",
		delQuery: "DELETE FROM kv WHERE k = $1",
		allQuery: "SELECT k, v FROM kv WHERE k LIKE $1 ORDER BY k",
		logger:   logger,
	}, nil
}
