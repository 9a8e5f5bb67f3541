package storage

import (
	"context"
	"fmt"

	"akeno/internal/types"

	"go.uber.org/zap"
)

// KV represents one stored key-value pair
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store defines the generic key-value persistence interface shared by the
// credential store, the audit logger and the rate limiter
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context, prefix string) ([]KV, error)

	Ping(ctx context.Context) error
	Close() error
	Driver() string
}

// Config represents the storage configuration
type Config struct {
	Driver string `mapstructure:"driver"` // sqlite, mysql, postgres, memory
	DSN    string `mapstructure:"dsn"`

	MaxOpenConns    int `mapstructure:"max_open_conns"`
	MaxIdleConns    int `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"` // seconds
}

// Validate validates the storage configuration
func (cfg *Config) Validate() error {
	switch cfg.Driver {
	case "sqlite", "mysql", "postgres":
		if cfg.DSN == "" {
			return fmt.Errorf("storage DSN is required for driver %s", cfg.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("%w: %s", types.ErrInvalidDriver, cfg.Driver)
	}
	return nil
}

// New creates a new store instance based on configuration
func New(cfg *Config, logger *zap.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	switch cfg.Driver {
	case "sqlite":
		return newSQLiteStore(cfg, logger)
	case "mysql":
		return newMySQLStore(cfg, logger)
	case "postgres":
		return newPostgresStore(cfg, logger)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidDriver, cfg.Driver)
	}
}
