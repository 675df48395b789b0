package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nvandessel/coherence/internal/config"
	"github.com/nvandessel/coherence/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coherence",
		Short: "Deterministic coherence convergence simulation",
		Long: `coherence runs a closed, deterministic simulation in which a fixed
registry of entities drifts toward a coherence threshold.

Each round synchronizes every entity once, averages their coherence into
a global aggregate, and marks the system ready once the aggregate reaches
the threshold (0.97 by default).`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.coherence/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace (overrides config)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable ANSI colors")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newRegistryCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// loadConfig resolves the effective configuration for a command: the
// --config file (or the default location), environment overrides, and
// persistent flag overrides, validated.
func loadConfig(cmd *cobra.Command) (*config.CoherenceConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.CoherenceConfig
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path, true)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		cfg.Output.Color = config.ColorNever
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLoggers builds the operational logger and the decision logger. The
// decision logger is nil at info level.
func newLoggers(cfg *config.CoherenceConfig, w io.Writer) (*slog.Logger, *logging.DecisionLogger) {
	return logging.NewLogger(cfg.Logging.Level, w), logging.NewDecisionLogger(w, cfg.Logging.Level)
}
