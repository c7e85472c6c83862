// Package config implements blightd's layered configuration.
//
// Precedence, lowest to highest: built-in defaults, the user config file
// (~/.config/blightd/config.toml), BLIGHTD_* environment variables, and CLI
// flag overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Config is the complete daemon configuration.
type Config struct {
	Notification NotificationConfig `mapstructure:"notification" toml:"notification"`
	Watch        WatchConfig        `mapstructure:"watch" toml:"watch"`
	Log          LogConfig          `mapstructure:"log" toml:"log"`
}

// NotificationConfig controls how settled brightness values are displayed.
type NotificationConfig struct {
	Title     string `mapstructure:"title" toml:"title"`
	Message   string `mapstructure:"message" toml:"message"`
	Icon      string `mapstructure:"icon" toml:"icon"`
	TimeoutMs int    `mapstructure:"timeout_ms" toml:"timeout_ms"`
}

// WatchConfig controls the filesystem poll watch.
type WatchConfig struct {
	PollRateSecs float64 `mapstructure:"pollrate_secs" toml:"pollrate_secs"`
}

// LogConfig controls logging verbosity.
type LogConfig struct {
	Quiet bool `mapstructure:"quiet" toml:"quiet"`
	Debug bool `mapstructure:"debug" toml:"debug"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Notification: NotificationConfig{
			Title:     "Blight",
			Message:   "Brightness adjusted:",
			Icon:      "",
			TimeoutMs: 1000,
		},
		Watch: WatchConfig{
			PollRateSecs: 0.5,
		},
		Log: LogConfig{
			Quiet: false,
			Debug: false,
		},
	}
}

// LoadOptions controls Load.
type LoadOptions struct {
	// ConfigPath overrides the default user config file location.
	ConfigPath string
	// FlagOverrides are dotted-key values from CLI flags; highest precedence.
	FlagOverrides map[string]any
}

// Load builds the effective configuration.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("notification.title", defaults.Notification.Title)
	v.SetDefault("notification.message", defaults.Notification.Message)
	v.SetDefault("notification.icon", defaults.Notification.Icon)
	v.SetDefault("notification.timeout_ms", defaults.Notification.TimeoutMs)
	v.SetDefault("watch.pollrate_secs", defaults.Watch.PollRateSecs)
	v.SetDefault("log.quiet", defaults.Log.Quiet)
	v.SetDefault("log.debug", defaults.Log.Debug)

	path := opts.ConfigPath
	if path == "" {
		path = DefaultConfigPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			// A missing config file is fine; a malformed one is not.
			if !errors.Is(err, os.ErrNotExist) {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return Config{}, fmt.Errorf("reading config %s: %w", path, err)
				}
			}
		}
	}

	v.SetEnvPrefix("BLIGHTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range opts.FlagOverrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfigPath returns the user config file location, or "" when no
// user config directory can be determined.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "blightd", "config.toml")
}

// Validate checks configuration invariants.
func Validate(cfg Config) error {
	var problems []string

	if cfg.Watch.PollRateSecs <= 0 {
		problems = append(problems, fmt.Sprintf("watch.pollrate_secs must be positive, got %v", cfg.Watch.PollRateSecs))
	}
	if cfg.Notification.TimeoutMs < -1 {
		problems = append(problems, fmt.Sprintf("notification.timeout_ms must be >= -1, got %d", cfg.Notification.TimeoutMs))
	}
	if strings.TrimSpace(cfg.Notification.Title) == "" {
		problems = append(problems, "notification.title must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetValue resolves a dotted key against a loaded config.
func GetValue(cfg Config, key string) (any, bool) {
	switch key {
	case "notification.title":
		return cfg.Notification.Title, true
	case "notification.message":
		return cfg.Notification.Message, true
	case "notification.icon":
		return cfg.Notification.Icon, true
	case "notification.timeout_ms":
		return cfg.Notification.TimeoutMs, true
	case "watch.pollrate_secs":
		return cfg.Watch.PollRateSecs, true
	case "log.quiet":
		return cfg.Log.Quiet, true
	case "log.debug":
		return cfg.Log.Debug, true
	default:
		return nil, false
	}
}

// ParseValue converts a raw string into the typed value for a known key.
func ParseValue(key, raw string) (any, error) {
	switch key {
	case "notification.title", "notification.message", "notification.icon":
		return raw, nil
	case "notification.timeout_ms":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer: %w", key, err)
		}
		return n, nil
	case "watch.pollrate_secs":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects a number: %w", key, err)
		}
		return f, nil
	case "log.quiet", "log.debug":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects a boolean: %w", key, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown key %q", key)
	}
}

// WriteValue sets a single dotted key in the TOML config file at path,
// creating the file and parent directories as needed. Other keys in the
// file are preserved.
func WriteValue(path, key string, value any) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return fmt.Errorf("key %q must be section.name", key)
	}

	doc := map[string]map[string]any{}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &doc); err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
	}

	section := doc[parts[0]]
	if section == nil {
		section = map[string]any{}
		doc[parts[0]] = section
	}
	section[parts[1]] = value

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
