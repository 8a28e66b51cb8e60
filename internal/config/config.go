// Package config provides viper-based configuration for deckctl.
// Precedence: flags > DECKCTL_* environment variables > config file >
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	API           APIConfig           `mapstructure:"api"`
	Retry         RetryConfig         `mapstructure:"retry"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Console       ConsoleConfig       `mapstructure:"console"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// APIConfig holds backend endpoint configuration
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RetryConfig holds the default retry policy parameters
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
}

// RateLimitConfig holds the client-side request throttle
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"rps"`
	Burst             int     `mapstructure:"burst"`
}

// ConsoleConfig holds the local dashboard server configuration
type ConsoleConfig struct {
	Addr string `mapstructure:"addr"`
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	OTELEnabled    bool   `mapstructure:"otel_enabled"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

// Dir returns the deckctl config directory ($XDG_CONFIG_HOME/deckctl or
// the platform equivalent). Falls back to the working directory when no
// home is resolvable, so the stores can still degrade gracefully.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".deckctl"
	}
	return filepath.Join(base, "deckctl")
}

// Load reads configuration from an optional file and the environment
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DECKCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicitly named
		// file must exist and parse.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.agentdeck.io")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "100ms")
	v.SetDefault("ratelimit.rps", 10)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("console.addr", "127.0.0.1:8787")
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "text")
	v.SetDefault("observability.otel_enabled", false)
	v.SetDefault("observability.service_name", "deckctl")
	v.SetDefault("observability.service_version", "0.1.0")
}
