// Package config wraps viper with functional options and typed getters.
// It backs schedule lookups and config-driven client construction.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the wrapper around viper with extra helpers.
type Config struct {
	*viper.Viper

	onChange func()
}

// Option is a functional option for New.
type Option func(*Config) error

// New creates a Config instance. Use options to customize behavior.
// Example:
//
//	cfg, err := config.New(
//	  config.WithDefaults(map[string]any{"client.timeout": "30s"}),
//	  config.WithFile("config.yaml"),
//	  config.WithEnv("APP"),
//	)
func New(opts ...Option) (*Config, error) {
	cfg := &Config{Viper: viper.New()}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config: applying option: %w", err)
		}
	}

	// Read the config file if one was set; missing files are not fatal since
	// defaults, env vars and flags may be the only sources.
	if cfg.ConfigFileUsed() != "" {
		if err := cfg.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", cfg.ConfigFileUsed(), err)
		}
	}

	return cfg, nil
}

// MustNew is New but panics on error. Intended for program start-up.
func MustNew(opts ...Option) *Config {
	cfg, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// WithDefaults sets default values (applied first).
func WithDefaults(defaults map[string]any) Option {
	return func(c *Config) error {
		for k, v := range defaults {
			c.SetDefault(k, v)
		}
		return nil
	}
}

// WithFile sets an exact config file (absolute or relative).
// The extension determines the format.
func WithFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		c.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			c.SetConfigType(ext)
		}
		return nil
	}
}

// WithEnv enables environment variable overrides.
// prefix = "APP" means APP_CLIENT_TIMEOUT overrides client.timeout.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		if prefix != "" {
			c.SetEnvPrefix(prefix)
		}
		c.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		c.AutomaticEnv()
		return nil
	}
}

// WithPFlags binds a pflag.FlagSet. If flags is nil, the default command
// line set is bound. The application defines the flags; we only bind them.
func WithPFlags(flags *pflag.FlagSet) Option {
	return func(c *Config) error {
		if flags == nil {
			flags = pflag.CommandLine
		}
		return c.BindPFlags(flags)
	}
}

// WithDotEnv reads key=val lines from a .env file and merges them in.
// If path is empty, ".env" in the working directory is attempted.
func WithDotEnv(path string) Option {
	return func(c *Config) error {
		if path == "" {
			path = ".env"
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
		envV := viper.New()
		envV.SetConfigFile(path)
		envV.SetConfigType("env")
		if err := envV.ReadInConfig(); err != nil {
			return err
		}
		for _, k := range envV.AllKeys() {
			c.Set(k, envV.Get(k))
		}
		return nil
	}
}

// WithWatch enables hot-reload. onChange is called after a successful reload.
func WithWatch(onChange func()) Option {
	return func(c *Config) error {
		c.WatchConfig()
		c.onChange = onChange
		c.OnConfigChange(func(_ fsnotify.Event) {
			if c.onChange != nil {
				c.onChange()
			}
		})
		return nil
	}
}

/* ---------------------------
   Typed getters with defaults
----------------------------*/

// GetStringD returns the string value or def when unset/empty.
func (c *Config) GetStringD(key, def string) string {
	if val := c.GetString(key); val != "" {
		return val
	}
	return def
}

// GetIntD returns the int value or def when unset.
func (c *Config) GetIntD(key string, def int) int {
	if c.IsSet(key) {
		return c.GetInt(key)
	}
	return def
}

// GetBoolD returns the bool value or def when unset.
func (c *Config) GetBoolD(key string, def bool) bool {
	if c.IsSet(key) {
		return c.GetBool(key)
	}
	return def
}

// GetDurationD returns the duration value or def when unset.
func (c *Config) GetDurationD(key string, def time.Duration) time.Duration {
	if c.IsSet(key) {
		return c.GetDuration(key)
	}
	return def
}

// ValidateRequired ensures keys exist and are non-empty.
func (c *Config) ValidateRequired(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !c.IsSet(k) || c.GetString(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))
	}
	return nil
}
