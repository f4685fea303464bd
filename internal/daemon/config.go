// Package daemon manages the RELOOK runtime lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	App        AppConfig        `toml:"app"`
	API        APIConfig        `toml:"api"`
	Classifier ClassifierConfig `toml:"classifier"`
	Logging    LoggingConfig    `toml:"logging"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
}

// AppConfig controls the progression engine.
type AppConfig struct {
	// DataDir holds state.db. Empty means the RELOOK home directory.
	DataDir string `toml:"data_dir"`
	// Timezone is an IANA name; calendar days and night-owl hours use it.
	// Empty means the system zone.
	Timezone    string `toml:"timezone"`
	Preview     bool   `toml:"preview"`
	UndoWindow  string `toml:"undo_window"`
	ComboWindow string `toml:"combo_window"`
	// QuietStart and QuietEnd are local hours during which live
	// notifications are held back. Equal values disable quiet hours.
	QuietStart     int    `toml:"quiet_start"`
	QuietEnd       int    `toml:"quiet_end"`
	RolloverCheck  string `toml:"rollover_check"`
	HealthInterval string `toml:"health_interval"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// ClassifierConfig selects and configures the content classifier.
type ClassifierConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Timeout  string `toml:"timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// TelemetryConfig controls metrics export.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		App: AppConfig{
			UndoWindow:     "5s",
			ComboWindow:    "10s",
			QuietStart:     22,
			QuietEnd:       8,
			RolloverCheck:  "1m",
			HealthInterval: "60s",
		},
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        4780,
			CORSOrigins: []string{"*"},
		},
		Classifier: ClassifierConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Timeout:  "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from ~/.relook/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile reads config from path. A missing file yields defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyEnv()
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv lets the environment override secrets.
func (c *Config) applyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Classifier.APIKey = key
	}
}

// Validate rejects values the daemon cannot start with.
func (c Config) Validate() error {
	if c.App.Timezone != "" {
		if _, err := time.LoadLocation(c.App.Timezone); err != nil {
			return fmt.Errorf("app.timezone: %w", err)
		}
	}
	for name, v := range map[string]string{
		"app.undo_window":     c.App.UndoWindow,
		"app.combo_window":    c.App.ComboWindow,
		"app.rollover_check":  c.App.RolloverCheck,
		"app.health_interval": c.App.HealthInterval,
		"classifier.timeout":  c.Classifier.Timeout,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}
	if c.App.QuietStart < 0 || c.App.QuietStart > 23 || c.App.QuietEnd < 0 || c.App.QuietEnd > 23 {
		return fmt.Errorf("app.quiet_start/quiet_end must be hours 0-23")
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	return nil
}

// ConfigPath returns the location LoadConfig reads.
func ConfigPath() string {
	return filepath.Join(relookHome(), "config.toml")
}

// SaveConfig writes the config to ~/.relook/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// DataDir returns the directory holding the database.
func (c Config) DataDir() string {
	if c.App.DataDir != "" {
		return c.App.DataDir
	}
	return relookHome()
}

// relookHome returns the RELOOK data directory.
func relookHome() string {
	if env := os.Getenv("RELOOK_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".relook")
}

// Home is exported for use by other packages.
func Home() string {
	return relookHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
