package config

import "os"

// Environment variable names for overrides. Environment wins over the
// config file; CLI flags win over both.
const (
	EnvConfig      = "ALBUM_GO_CONFIG"
	EnvAPIBaseURL  = "ALBUM_GO_API_URL"
	EnvCachePath   = "ALBUM_GO_CACHE_PATH"
	EnvDownloadDir = "ALBUM_GO_DOWNLOAD_DIR"
)

// ApplyEnvOverrides overwrites config fields from environment variables.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		cfg.APIBaseURL = v
	}

	if v := os.Getenv(EnvCachePath); v != "" {
		cfg.CachePath = v
	}

	if v := os.Getenv(EnvDownloadDir); v != "" {
		cfg.DownloadDir = v
	}
}
