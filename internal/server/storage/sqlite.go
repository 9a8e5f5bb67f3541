package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	k TEXT PRIMARY KEY,
	v TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// newSQLiteStore creates a new SQLite backed store
func newSQLiteStore(cfg *Config, logger *zap.Logger) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := openSQL("sqlite3", addSQLiteParams(cfg.DSN), cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := ensureSchema(db, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqlStore{
		db:     db,
		driver: "sqlite",
		upsert: `INSERT INTO kv (k, v, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`,
		getQuery: "SELECT v FROM kv WHERE k = ?",
		delQuery: "DELETE FROM kv WHERE k = ?",
		allQuery: "SELECT k, v FROM kv WHERE k LIKE ? ORDER BY k",
		logger:   logger,
	}, nil
}

// addSQLiteParams adds SQLite specific connection parameters
func addSQLiteParams(dsn string) string {
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
		"_foreign_keys=1",
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
