// Command album-go views and downloads shared photo albums from their
// public links, without an account.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/album-go/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// httpClientTimeout bounds individual API requests so a hung connection
// cannot block a CLI command indefinitely.
const httpClientTimeout = 60 * time.Second

// defaultHTTPClient returns an HTTP client with a sensible timeout.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientTimeout}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "album-go",
		Short:   "View and download shared photo albums",
		Version: version,
		Long: `album-go opens public album share links: it resolves the link,
verifies the password if the album is protected, and pulls the album's
file listing, keeping a local cache so albums stay viewable offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "log in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "errors only")

	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(newViewCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newForgetCmd())

	return cmd
}

// loadConfig resolves the config path (flag > env > default) and loads it.
func loadConfig() (*config.Config, error) {
	path := config.DefaultConfigPath()

	if env := os.Getenv(config.EnvConfig); env != "" {
		path = env
	}

	if flagConfigPath != "" {
		path = flagConfigPath
	}

	return config.LoadOrDefault(path)
}

// buildLogger creates an slog.Logger from the config and flags. Text
// output on a terminal, JSON otherwise (or with --json).
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo

	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if flagJSON || !isatty.IsTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
