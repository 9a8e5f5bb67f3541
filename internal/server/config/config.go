package config

import (
	"fmt"
	"time"

	"akeno/internal/logger"
	"akeno/internal/server/audit"
	"akeno/internal/server/command"
	"akeno/internal/server/credentials"
	"akeno/internal/server/notify"
	"akeno/internal/server/ratelimit"
	"akeno/internal/server/storage"

	"github.com/spf13/viper"
)

// Config represents the complete server configuration
type Config struct {
	Server      ServerConfig       `mapstructure:"server"`
	API         APIConfig          `mapstructure:"api"`
	Storage     storage.Config     `mapstructure:"storage"`
	Generator   command.Defaults   `mapstructure:"generator"`
	Executor    ExecutorConfig     `mapstructure:"executor"`
	Approval    ApprovalConfig     `mapstructure:"approval"`
	RateLimit   ratelimit.Config   `mapstructure:"rate_limit"`
	Credentials credentials.Config `mapstructure:"credentials"`
	Audit       audit.Config       `mapstructure:"audit"`
	Notify      NotifyConfig       `mapstructure:"notify"`
	Log         logger.Config      `mapstructure:"log"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// APIConfig represents the API configuration
type APIConfig struct {
	// Authentication
	Auth AuthConfig `mapstructure:"auth"`

	// CORS settings
	CORS CORSConfig `mapstructure:"cors"`

	// Rate limiting for the HTTP surface itself
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// AuthConfig represents the authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []string `mapstructure:"api_keys"`
}

// CORSConfig represents the CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	MaxAge           int      `mapstructure:"max_age"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// RateLimitConfig represents the HTTP rate limiting configuration
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ExecutorConfig represents the command executor configuration
type ExecutorConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxOutputChars int           `mapstructure:"max_output_chars"`
}

// ApprovalConfig represents the approval gate configuration
type ApprovalConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// NotifyConfig represents the notification configuration
type NotifyConfig struct {
	Discord notify.DiscordConfig `mapstructure:"discord"`
}

// LoadConfig loads server configuration from file
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 30 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 30 * time.Second
	}
	if config.Server.IdleTimeout == 0 {
		config.Server.IdleTimeout = 60 * time.Second
	}

	if config.Storage.Driver == "" {
		config.Storage.Driver = "sqlite"
		if config.Storage.DSN == "" {
			config.Storage.DSN = "akeno.db"
		}
	}

	config.Generator.SetDefaults()
	config.RateLimit.SetDefaults()
	config.Log.SetDefaults()

	if config.Executor.Timeout == 0 {
		config.Executor.Timeout = 30 * time.Second
	}
	if config.Executor.MaxOutputChars == 0 {
		config.Executor.MaxOutputChars = 1900
	}

	if config.Approval.Timeout == 0 {
		config.Approval.Timeout = 60 * time.Second
	}

	if config.Audit.MaxEntries == 0 {
		config.Audit.MaxEntries = audit.DefaultMaxEntries
	}

	if config.API.RateLimit.Window == 0 {
		config.API.RateLimit.Window = time.Minute
	}
	if config.API.RateLimit.Requests == 0 {
		config.API.RateLimit.Requests = 60
	}
	if config.API.CORS.MaxAge == 0 {
		config.API.CORS.MaxAge = 86400
	}
	if len(config.API.CORS.AllowedMethods) == 0 {
		config.API.CORS.AllowedMethods = []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		}
	}
	if len(config.API.CORS.AllowedHeaders) == 0 {
		config.API.CORS.AllowedHeaders = []string{
			"Content-Type", "Authorization", "X-Request-ID", "X-API-Key",
		}
	}
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if err := config.Storage.Validate(); err != nil {
		return err
	}

	if config.Credentials.Secret == "" {
		return fmt.Errorf("credentials secret is required")
	}

	if config.API.Auth.Enabled && len(config.API.Auth.APIKeys) == 0 {
		return fmt.Errorf("API keys are required when auth is enabled")
	}

	if config.Notify.Discord.Enabled && config.Notify.Discord.WebhookURL == "" {
		return fmt.Errorf("discord webhook URL is required")
	}

	if config.Audit.Kafka.Enabled && len(config.Audit.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when the kafka audit sink is enabled")
	}
	if config.Audit.AMQP.Enabled && config.Audit.AMQP.URL == "" {
		return fmt.Errorf("amqp URL is required when the amqp audit sink is enabled")
	}

	if config.RateLimit.Backend == "redis" && config.RateLimit.Redis.Addr == "" {
		return fmt.Errorf("redis address is required for the redis rate limit backend")
	}

	return nil
}
