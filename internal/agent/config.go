package agent

import (
	"fmt"
	"os"
	"time"

	"akeno/internal/logger"

	"github.com/spf13/viper"
)

// Config represents the agent configuration
type Config struct {
	Address    string        `mapstructure:"address"`
	APIKey     string        `mapstructure:"api_key"`
	DeviceName string        `mapstructure:"device_name"`
	Delay      time.Duration `mapstructure:"delay"`
	Log        logger.Config `mapstructure:"log"`
}

// LoadConfig loads agent configuration from file
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

	if config.APIKey == "" {
		return nil, fmt.Errorf("api_key is required")
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(config *Config) {
	if config.Address == "" {
		config.Address = ":5000"
	}
	if config.Delay == 0 {
		config.Delay = 5 * time.Second
	}
	if config.DeviceName == "" {
		if hostname, err := os.Hostname(); err == nil {
			config.DeviceName = hostname
		} else {
			config.DeviceName = "unknown"
		}
	}
	config.Log.SetDefaults()
}
