package ratelimit

import (
	"context"
	"fmt"
	"time"

	"akeno/internal/types"

	"go.uber.org/zap"
)

const (
	// DefaultWindow is the fixed-window width
	DefaultWindow = time.Hour

	// DefaultMaxCommands is the per-user budget within one window
	DefaultMaxCommands = 10
)

// Limiter is the per-user command budget contract. This is deliberately
// a blunt fixed window, not a token bucket: the threat model is a single
// impatient user spamming commands, not burst shaping.
type Limiter interface {
	// Check is read-only and does not consume budget
	Check(ctx context.Context, userID string) (types.RateLimitResult, error)
	// Record consumes one slot and reports whether the call is allowed.
	// The call that reaches the limit is still allowed; the next is not.
	Record(ctx context.Context, userID string) (types.RateLimitResult, error)
}

// Config represents the rate limiter configuration
type Config struct {
	Window      time.Duration `mapstructure:"window"`
	MaxCommands int           `mapstructure:"max_commands"`

	// Backend selects memory (per instance) or redis (shared across
	// instances)
	Backend string `mapstructure:"backend"`

	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig represents the redis backend configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SetDefaults fills in default values
func (cfg *Config) SetDefaults() {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxCommands <= 0 {
		cfg.MaxCommands = DefaultMaxCommands
	}
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
}

// New creates a limiter for the configured backend
func New(cfg Config, logger *zap.Logger) (Limiter, error) {
	cfg.SetDefaults()

	switch cfg.Backend {
	case "memory":
		return NewMemoryLimiter(cfg.Window, cfg.MaxCommands), nil
	case "redis":
		return NewRedisLimiter(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported rate limit backend: %s", cfg.Backend)
	}
}
