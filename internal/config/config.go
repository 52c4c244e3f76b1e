// Package config loads settings for the postcode demo server.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pthm/hxpostcode/loader"
)

// Config holds application configuration.
type Config struct {
	Server ServerConfig
	Loader LoaderConfig
	Widget WidgetConfig
	Log    LogConfig
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr string
	// Key protects registry tokens. Empty means a random per-process key.
	Key string
}

// LoaderConfig holds vendor script settings.
type LoaderConfig struct {
	ScriptURL  string        `mapstructure:"script_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// WidgetConfig holds defaults applied to every binding.
type WidgetConfig struct {
	DefaultQuery string `mapstructure:"default_query"`
	AutoClose    bool   `mapstructure:"auto_close"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// LoaderOptions converts the loader section into loader options.
func (c LoaderConfig) LoaderOptions() []loader.Option {
	return []loader.Option{
		loader.WithConfig(loader.Config{
			ScriptURL:  c.ScriptURL,
			Timeout:    c.Timeout,
			RetryDelay: c.RetryDelay,
		}),
		loader.WithMaxRetries(c.MaxRetries),
	}
}

// Load reads configuration from file and env. Env var overrides use prefix HXPOSTCODE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.key", "")
	v.SetDefault("loader.script_url", loader.DefaultScriptURL)
	v.SetDefault("loader.timeout", loader.DefaultTimeout)
	v.SetDefault("loader.max_retries", loader.DefaultMaxRetries)
	v.SetDefault("loader.retry_delay", time.Duration(0))
	v.SetDefault("widget.default_query", "")
	v.SetDefault("widget.auto_close", true)
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("HXPOSTCODE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	}

	v.SetEnvPrefix("HXPOSTCODE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cfgPath != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Loader.MaxRetries < 0 {
		return Config{}, fmt.Errorf("loader.max_retries must be >= 0, got %d", c.Loader.MaxRetries)
	}
	if c.Loader.Timeout <= 0 {
		return Config{}, fmt.Errorf("loader.timeout must be positive, got %s", c.Loader.Timeout)
	}
	return c, nil
}
