// Package cmd implements the CLI commands for vidroute.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/vidroute/internal/config"
	"github.com/jmylchreest/vidroute/internal/observability"
	"github.com/jmylchreest/vidroute/internal/version"
)

var (
	// cfgFile holds the config file path from CLI flag.
	cfgFile string

	// appConfig and logger are populated before any subcommand runs.
	appConfig *config.Config
	logger    *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "vidroute",
	Short:   "Video source routing and playback fallback",
	Version: version.Short(),
	Long: `vidroute classifies video URLs, picks the player that should render them,
and binds a playback session with retries and fallbacks.

It understands YouTube links and embeds, direct files and HLS/DASH manifests,
social and cloud-storage pages, and produces troubleshooting diagnostics for
sources that cannot be played.`,
	SilenceUsage: true,
	// PersistentPreRunE is set in init() to avoid initialization cycle
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupt and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	// Set PersistentPreRunE here to avoid initialization cycle
	// (initialize references rootCmd.PersistentFlags)
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return initialize()
	}

	// Global flags
	// Note: These flags are NOT bound to viper. They only override the
	// config/env values when explicitly set, preserving the priority
	// CLI flag > env var > config > default.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./config.yaml, ./configs, /etc/vidroute, $HOME/.vidroute)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initialize loads configuration and configures the logger.
//
// Priority order (highest to lowest):
//  1. CLI flags (--log-level, --log-format) - only if explicitly provided
//  2. Environment variables (VIDROUTE_LOGGING_LEVEL, VIDROUTE_LOGGING_FORMAT)
//  3. Config file values
//  4. Built-in defaults (info, text)
func initialize() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := rootCmd.PersistentFlags()
	cfg.Logging.Level = normalizeLevel(changedString(flags, "log-level", cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(changedString(flags, "log-format", cfg.Logging.Format))

	appConfig = cfg
	logger = observability.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		slog.String("version", version.Short()),
		slog.Int("max_retries", cfg.Pipeline.MaxRetries),
		slog.Bool("reporting", cfg.Reporting.Enabled),
	)
	return nil
}

// changedString returns the flag value when the user set it, otherwise current.
func changedString(fs *pflag.FlagSet, name, current string) string {
	if !fs.Changed(name) {
		return current
	}
	v, err := fs.GetString(name)
	if err != nil {
		return current
	}
	return v
}

func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	// Handle "warning" as an alias for "warn"
	if level == "warning" {
		return "warn"
	}
	return level
}
