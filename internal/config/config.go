package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CurrentVersion is the only supported config schema version
const CurrentVersion = 1

// Config represents the workspace configuration stored in .reqls/config.json
type Config struct {
	Version    int              `json:"version" mapstructure:"version"`
	Extensions []string         `json:"extensions" mapstructure:"extensions"`
	Exclude    []string         `json:"exclude" mapstructure:"exclude"`
	Coverage   CoverageConfig   `json:"coverage" mapstructure:"coverage"`
	Watch      WatchConfig      `json:"watch" mapstructure:"watch"`
	Parse      ParseConfig      `json:"parse" mapstructure:"parse"`
	Completion CompletionConfig `json:"completion" mapstructure:"completion"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// CoverageConfig controls ticket coverage warnings
type CoverageConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	File    string `json:"file" mapstructure:"file"`
}

// WatchConfig controls file watching in check --watch
type WatchConfig struct {
	DebounceMs int `json:"debounceMs" mapstructure:"debounceMs"`
}

// ParseConfig controls the initial workspace load
type ParseConfig struct {
	// Workers caps concurrent parses; 0 means GOMAXPROCS
	Workers int `json:"workers" mapstructure:"workers"`
}

// CompletionConfig controls dependency candidate filtering
type CompletionConfig struct {
	// ScopeFilter is "prefix" or "segment"
	ScopeFilter string `json:"scopeFilter" mapstructure:"scopeFilter"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
	// File, when set, receives logs instead of stderr. Relative paths are
	// resolved against the workspace root.
	File string `json:"file" mapstructure:"file"`
	// MaxSize rotates File once it grows past this size, e.g. "10MB".
	// Empty disables rotation.
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:    CurrentVersion,
		Extensions: []string{".req"},
		Exclude:    []string{},
		Coverage: CoverageConfig{
			Enabled: false,
			File:    "TICKETS.toml",
		},
		Watch: WatchConfig{
			DebounceMs: 300,
		},
		Completion: CompletionConfig{
			ScopeFilter: "prefix",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// Dir returns the .reqls directory of a workspace
func Dir(root string) string {
	return filepath.Join(root, ".reqls")
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("coverage.enabled", d.Coverage.Enabled)
	v.SetDefault("coverage.file", d.Coverage.File)
	v.SetDefault("watch.debounceMs", d.Watch.DebounceMs)
	v.SetDefault("parse.workers", d.Parse.Workers)
	v.SetDefault("completion.scopeFilter", d.Completion.ScopeFilter)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// LoadConfig loads configuration from .reqls/config.json. A missing file
// yields the defaults. REQLS_* environment variables override both, e.g.
// REQLS_LOGGING_LEVEL=debug.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(Dir(root))

	v.SetEnvPrefix("REQLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to .reqls/config.json
func (c *Config) Save(root string) error {
	if err := os.MkdirAll(Dir(root), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(Dir(root), "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if len(c.Extensions) == 0 {
		return &ConfigError{Field: "extensions", Message: "at least one extension is required"}
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return &ConfigError{Field: "extensions", Message: "extension " + ext + " must start with '.'"}
		}
	}
	for _, pattern := range c.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return &ConfigError{Field: "exclude", Message: "invalid pattern " + pattern}
		}
	}
	if c.Coverage.Enabled && c.Coverage.File == "" {
		return &ConfigError{Field: "coverage.file", Message: "required when coverage is enabled"}
	}
	if c.Watch.DebounceMs < 0 {
		return &ConfigError{Field: "watch.debounceMs", Message: "must not be negative"}
	}
	if c.Parse.Workers < 0 {
		return &ConfigError{Field: "parse.workers", Message: "must not be negative"}
	}
	switch c.Completion.ScopeFilter {
	case "prefix", "segment":
	default:
		return &ConfigError{Field: "completion.scopeFilter", Message: "must be 'prefix' or 'segment'"}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: "unknown level " + c.Logging.Level}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}
	return nil
}

// DebounceInterval returns the watch debounce as a duration
func (c *Config) DebounceInterval() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// Workers returns the effective parse worker count
func (c *Config) Workers() int {
	if c.Parse.Workers > 0 {
		return c.Parse.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// CoveragePath returns the absolute coverage map path, or "" when coverage
// is disabled
func (c *Config) CoveragePath(root string) string {
	if !c.Coverage.Enabled {
		return ""
	}
	if filepath.IsAbs(c.Coverage.File) {
		return c.Coverage.File
	}
	return filepath.Join(root, c.Coverage.File)
}

// LogPath returns the absolute log file path, or "" for stderr
func (c *Config) LogPath(root string) string {
	if c.Logging.File == "" {
		return ""
	}
	if filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(root, c.Logging.File)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
