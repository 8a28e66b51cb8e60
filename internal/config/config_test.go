package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.agentdeck.io", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, float64(10), cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, "127.0.0.1:8787", cfg.Console.Addr)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.OTELEnabled)
}

func TestConfig_EnvOverride(t *testing.T) {
	t.Setenv("DECKCTL_API_BASE_URL", "https://staging.agentdeck.io")
	t.Setenv("DECKCTL_RETRY_MAX_ATTEMPTS", "5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.agentdeck.io", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
}

func TestConfig_FileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("api:\n  base_url: https://on-prem.example.com\nconsole:\n  addr: 127.0.0.1:9000\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://on-prem.example.com", cfg.API.BaseURL)
	assert.Equal(t, "127.0.0.1:9000", cfg.Console.Addr)
	// Untouched keys keep their defaults
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestConfig_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		API:   APIConfig{BaseURL: "https://api.agentdeck.io"},
		Retry: RetryConfig{MaxAttempts: 3},
	}
	assert.NoError(t, cfg.Validate())

	cfg.API.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg.API.BaseURL = "https://api.agentdeck.io"
	cfg.Retry.MaxAttempts = 0
	assert.Error(t, cfg.Validate())
}
