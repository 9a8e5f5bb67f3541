package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9090"
storage:
  driver: memory
credentials:
  secret: test-master-secret
generator:
  service_name: mybot
  log_lines: 100
rate_limit:
  max_commands: 5
  window: 30m
approval:
  timeout: 90s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "mybot", cfg.Generator.ServiceName)
	assert.Equal(t, 100, cfg.Generator.LogLines)
	assert.Equal(t, 5, cfg.RateLimit.MaxCommands)
	assert.Equal(t, 30*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 90*time.Second, cfg.Approval.Timeout)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
credentials:
  secret: test-master-secret
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Executor.Timeout)
	assert.Equal(t, 1900, cfg.Executor.MaxOutputChars)
	assert.Equal(t, 60*time.Second, cfg.Approval.Timeout)
	assert.Equal(t, 10, cfg.RateLimit.MaxCommands)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, "akeno", cfg.Generator.ServiceName)
}

func TestLoadConfigMissingSecret(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "credentials secret")
}

func TestLoadConfigInvalidStorage(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: cassandra
credentials:
  secret: test-master-secret
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigAuthRequiresKeys(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
credentials:
  secret: test-master-secret
api:
  auth:
    enabled: true
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "API keys")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
