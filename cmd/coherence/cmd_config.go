package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/coherence/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show coherence configuration",
		Long: `View the effective coherence configuration.

Configuration is read from ~/.coherence/config.yaml (or --config) and
COHERENCE_* environment variables override it.

Examples:
  coherence config list                    # Show all settings as YAML
  coherence config get simulation.threshold
  coherence config path                    # Show the default config location`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigPathCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(out, "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.CoherenceConfig, key string) (interface{}, bool) {
	switch key {
	case "simulation.registry":
		return cfg.Simulation.Registry, true
	case "simulation.max_rounds":
		return cfg.Simulation.MaxRounds, true
	case "simulation.threshold":
		return cfg.Simulation.Threshold, true
	case "simulation.carrier_frequency":
		return cfg.Simulation.CarrierFrequency, true
	case "simulation.drive_signal":
		return cfg.Simulation.DriveSignal, true
	case "simulation.drift_step":
		return cfg.Simulation.DriftStep, true
	case "logging.level":
		return cfg.Logging.Level, true
	case "output.color":
		return cfg.Output.Color, true
	case "telemetry.otlp_endpoint":
		return cfg.Telemetry.OTLPEndpoint, true
	default:
		return nil, false
	}
}
