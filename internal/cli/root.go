// Package cli implements the Cobra command-line interface for blightd.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"blightd/internal/config"
	"blightd/internal/daemon"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flag values
var (
	flagConfig   string
	flagTitle    string
	flagMessage  string
	flagIcon     string
	flagTimeout  int
	flagPollrate float64
	flagQuiet    bool
	flagDebug    bool
)

var rootCmd = &cobra.Command{
	Use:   "blightd",
	Short: "A simple backlight notification daemon",
	Long: `blightd watches the sysfs backlight devices for brightness changes and
raises a desktop notification showing the new brightness as a percentage.

Rapid bursts of changes (a held brightness key) are coalesced into a single
notification reflecting the final, settled value. The daemon runs until
terminated.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDaemon,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigPath:    flagConfig,
		FlagOverrides: flagOverrides(cmd),
	})
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	logger.Info("blightd daemon started")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return daemon.Run(ctx, daemon.Options{
		Config: cfg,
		Logger: logger,
	})
}

// flagOverrides maps explicitly set CLI flags to config keys. Unset flags
// are omitted so file and environment values keep their precedence.
func flagOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	set := func(flag, key string, value any) {
		if cmd.Flags().Changed(flag) {
			overrides[key] = value
		}
	}
	set("title", "notification.title", flagTitle)
	set("message", "notification.message", flagMessage)
	set("icon", "notification.icon", flagIcon)
	set("timeout", "notification.timeout_ms", flagTimeout)
	set("pollrate", "watch.pollrate_secs", flagPollrate)
	set("quiet", "log.quiet", flagQuiet)
	set("debug", "log.debug", flagDebug)
	return overrides
}

func newLogger(cfg config.LogConfig) *log.Logger {
	var out io.Writer = os.Stderr
	if cfg.Quiet {
		out = io.Discard
	}
	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "blightd",
	})
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")

	rootCmd.Flags().StringVarP(&flagTitle, "title", "t", "", "set notification title")
	rootCmd.Flags().StringVarP(&flagMessage, "message", "m", "", "set notification message")
	rootCmd.Flags().StringVarP(&flagIcon, "icon", "i", "", "set icon name/location")
	rootCmd.Flags().IntVarP(&flagTimeout, "timeout", "T", 0, "set notification timeout in milliseconds")
	rootCmd.Flags().Float64VarP(&flagPollrate, "pollrate", "p", 0, "set backlight change watcher polling rate in seconds")
	rootCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "disable logging")
	rootCmd.Flags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug level logging")

	rootCmd.AddCommand(versionCmd)
}
