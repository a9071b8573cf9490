// Package config loads the album-go configuration file and applies
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all user-tunable settings.
type Config struct {
	// APIBaseURL is the public albums API endpoint.
	APIBaseURL string `toml:"api_base_url"`

	// CachePath is the SQLite credential/cache database location.
	CachePath string `toml:"cache_path"`

	// DownloadDir is where batch downloads land.
	DownloadDir string `toml:"download_dir"`

	// DownloadWorkers bounds per-batch download concurrency.
	DownloadWorkers int `toml:"download_workers"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// Defaults.
const (
	defaultAPIBaseURL      = "https://api.ente.io"
	defaultDownloadWorkers = 4
	defaultLogLevel        = "info"
)

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:      defaultAPIBaseURL,
		CachePath:       defaultCachePath(),
		DownloadDir:     defaultDownloadDir(),
		DownloadWorkers: defaultDownloadWorkers,
		LogLevel:        defaultLogLevel,
	}
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "album-go", "config.toml")
	}

	return filepath.Join(base, "album-go", "config.toml")
}

// defaultCachePath returns the default cache database location.
func defaultCachePath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "album-go", "cache.db")
	}

	return filepath.Join(base, "album-go", "cache.db")
}

// defaultDownloadDir returns the default download destination.
func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, "Downloads")
}

// validLogLevels for Validate.
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the configuration for values that would misbehave later.
func Validate(cfg *Config) error {
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}

	if cfg.DownloadWorkers < 0 {
		return fmt.Errorf("download_workers must not be negative: %d", cfg.DownloadWorkers)
	}

	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level %q (want debug, info, warn, or error)", cfg.LogLevel)
	}

	return nil
}
