package storage

import (
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS kv (
	k VARCHAR(255) PRIMARY KEY,
	v TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// newMySQLStore creates a new MySQL backed store
func newMySQLStore(cfg *Config, logger *zap.Logger) (Store, error) {
	db, err := openSQL("mysql", cfg.DSN, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := ensureSchema(db, mysqlSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqlStore{
		db:     db,
		driver: "mysql",
		upsert: `INSERT INTO kv (k, v, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = VALUES(updated_at)`,
		getQuery: "SELECT v FROM kv WHERE k = ?",
		delQuery: "DELETE FROM kv WHERE k = ?",
		allQuery: "SELECT k, v FROM kv WHERE k LIKE ? ORDER BY k",
		logger:   logger,
	}, nil
}
