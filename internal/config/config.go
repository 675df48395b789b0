// Package config provides unified configuration loading for coherence.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/nvandessel/coherence/internal/constants"
	"github.com/nvandessel/coherence/internal/registry"
	"github.com/nvandessel/coherence/internal/resonance"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "COHERENCE_"

// Color modes for console output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// CoherenceConfig contains all coherence configuration settings.
type CoherenceConfig struct {
	// Simulation contains the convergence loop settings.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Output contains console rendering settings.
	Output OutputConfig `json:"output" yaml:"output"`

	// Telemetry contains trace export settings.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// SimulationConfig configures the convergence loop and entity updater.
type SimulationConfig struct {
	// Registry names the entity set to initialize from: "core" or "constellation".
	Registry string `json:"registry" yaml:"registry" env:"REGISTRY"`

	// MaxRounds is the round budget for a run and for MCP optimize calls
	// that omit one. Must be at least 1.
	MaxRounds int `json:"max_rounds" yaml:"max_rounds" env:"MAX_ROUNDS"`

	// Threshold is the aggregate coherence at which the system is ready,
	// and the ceiling for non-terminal entities. Range: (0.0, 1.0]
	Threshold float64 `json:"threshold" yaml:"threshold" env:"THRESHOLD"`

	// CarrierFrequency is the external frequency entities blend toward.
	CarrierFrequency float64 `json:"carrier_frequency" yaml:"carrier_frequency" env:"CARRIER_FREQUENCY"`

	// DriveSignal is the forcing strength. Range: 0.0 to 1.0
	DriveSignal float64 `json:"drive_signal" yaml:"drive_signal" env:"DRIVE_SIGNAL"`

	// DriftStep is the per-round effectiveness increment at full drive.
	DriftStep float64 `json:"drift_step" yaml:"drift_step" env:"DRIFT_STEP"`
}

// UpdaterParams converts the simulation settings into updater parameters.
func (c SimulationConfig) UpdaterParams() resonance.Params {
	return resonance.Params{
		CarrierFrequency: c.CarrierFrequency,
		DriveSignal:      c.DriveSignal,
		DriftStep:        c.DriftStep,
		Ceiling:          c.Threshold,
	}
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" also enables per-round decision logging to stderr.
	Level string `json:"level" yaml:"level" env:"LOG_LEVEL"`
}

// OutputConfig configures console rendering.
type OutputConfig struct {
	// Color is "auto" (colorize when stdout is a terminal), "always", or "never".
	Color string `json:"color" yaml:"color" env:"COLOR"`
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	// OTLPEndpoint is an OTLP/HTTP traces URL. Empty disables export.
	OTLPEndpoint string `json:"otlp_endpoint,omitempty" yaml:"otlp_endpoint,omitempty" env:"OTEL_ENDPOINT"`
}

// Default returns a CoherenceConfig with sensible defaults.
func Default() *CoherenceConfig {
	return &CoherenceConfig{
		Simulation: SimulationConfig{
			Registry:         registry.DefaultName,
			MaxRounds:        constants.DefaultMaxRounds,
			Threshold:        constants.CoherenceThreshold,
			CarrierFrequency: constants.CarrierFrequency,
			DriveSignal:      constants.DefaultDriveSignal,
			DriftStep:        constants.DriftStep,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Output: OutputConfig{
			Color: ColorAuto,
		},
	}
}

// DefaultPath returns ~/.coherence/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".coherence", "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.coherence/config.yaml -> environment variables
func Load() (*CoherenceConfig, error) {
	path, err := DefaultPath()
	if err != nil {
		path = ""
	}
	return LoadFrom(path, false)
}

// LoadFrom loads configuration from path and then applies environment
// overrides. A missing file is an error only when required is true.
func LoadFrom(path string, required bool) (*CoherenceConfig, error) {
	config := Default()

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			fileConfig, loadErr := LoadFromFile(path)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		case required:
			return nil, fmt.Errorf("loading config file: %w", statErr)
		}
	}

	if err := applyEnvOverrides(config, nil); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*CoherenceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *CoherenceConfig) Validate() error {
	sim := c.Simulation

	if _, err := registry.Lookup(sim.Registry); err != nil {
		return fmt.Errorf("simulation.registry: %w", err)
	}

	if sim.MaxRounds < 1 {
		return fmt.Errorf("max_rounds must be at least 1, got %d", sim.MaxRounds)
	}

	// Comparisons are written so NaN fails them.
	if !(sim.Threshold > 0 && sim.Threshold <= 1) {
		return fmt.Errorf("threshold must be in (0, 1], got %f", sim.Threshold)
	}

	if !(sim.DriveSignal >= 0 && sim.DriveSignal <= 1) {
		return fmt.Errorf("drive_signal must be between 0 and 1, got %f", sim.DriveSignal)
	}

	if !(sim.DriftStep >= 0 && sim.DriftStep <= 1) {
		return fmt.Errorf("drift_step must be between 0 and 1, got %f", sim.DriftStep)
	}

	if !(sim.CarrierFrequency > 0) || math.IsInf(sim.CarrierFrequency, 0) {
		return fmt.Errorf("carrier_frequency must be positive and finite, got %f", sim.CarrierFrequency)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	validColors := map[string]bool{ColorAuto: true, ColorAlways: true, ColorNever: true}
	if c.Output.Color != "" && !validColors[c.Output.Color] {
		return fmt.Errorf("invalid color mode: %s (valid: auto, always, never)", c.Output.Color)
	}

	return nil
}

// applyEnvOverrides applies COHERENCE_* environment variables to the config.
// A nil environ reads the process environment.
func applyEnvOverrides(config *CoherenceConfig, environ map[string]string) error {
	opts := env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}
