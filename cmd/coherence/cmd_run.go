package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/coherence/internal/convergence"
	"github.com/nvandessel/coherence/internal/models"
	"github.com/nvandessel/coherence/internal/registry"
	"github.com/nvandessel/coherence/internal/report"
	"github.com/nvandessel/coherence/internal/telemetry"
	"github.com/spf13/cobra"
)

// runOutput is the JSON form of a run.
type runOutput struct {
	Registry  string                     `json:"registry"`
	Threshold float64                    `json:"threshold"`
	Result    convergence.Result         `json:"result"`
	Entities  []models.Snapshot          `json:"entities"`
	Manifest  convergence.ManifestResult `json:"manifest"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the convergence loop",
		Long: `Run convergence rounds until the aggregate coherence reaches the
threshold or the round budget is spent, then attempt manifestation.

Examples:
  coherence run                          # Constellation registry, default budget
  coherence run --registry core          # Five-node core registry
  coherence run --max-rounds 1           # Stops exhausted after one round
  coherence run --drive 0.5 --json       # Weaker drive, JSON result`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			quiet, _ := cmd.Flags().GetBool("quiet")
			requireReady, _ := cmd.Flags().GetBool("require-ready")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-rounds") {
				cfg.Simulation.MaxRounds, _ = cmd.Flags().GetInt("max-rounds")
			}
			if cmd.Flags().Changed("registry") {
				cfg.Simulation.Registry, _ = cmd.Flags().GetString("registry")
			}
			if cmd.Flags().Changed("drive") {
				cfg.Simulation.DriveSignal, _ = cmd.Flags().GetFloat64("drive")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid run options: %w", err)
			}

			ctx := cmd.Context()
			shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, "coherence")
			if err != nil {
				return fmt.Errorf("failed to set up tracing: %w", err)
			}
			defer func() { _ = shutdown(ctx) }()

			entries, err := registry.Lookup(cfg.Simulation.Registry)
			if err != nil {
				return err
			}

			logger, decisions := newLoggers(cfg, cmd.ErrOrStderr())
			loop, err := convergence.NewLoop(entries, convergence.Config{
				Params:    cfg.Simulation.UpdaterParams(),
				Threshold: cfg.Simulation.Threshold,
				Logger:    logger,
				Decisions: decisions,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			f, _ := out.(*os.File)
			printer := report.New(out, report.ColorEnabled(cfg.Output.Color, f))

			if !jsonOut {
				printer.Header(cfg.Simulation.Registry, loop.Len(), loop.Threshold(), cfg.Simulation.CarrierFrequency)
				loop.OnRound(func(s convergence.RoundStatus) {
					printer.Round(s)
					if !quiet {
						printer.Entities(s.Entities, loop.Threshold())
					}
				})
			}

			res := loop.Optimize(ctx, cfg.Simulation.MaxRounds)
			manifest := loop.Manifest()

			if jsonOut {
				if err := json.NewEncoder(out).Encode(runOutput{
					Registry:  cfg.Simulation.Registry,
					Threshold: loop.Threshold(),
					Result:    res,
					Entities:  loop.Snapshots(),
					Manifest:  manifest,
				}); err != nil {
					return fmt.Errorf("failed to encode result: %w", err)
				}
			} else {
				printer.Summary(res, loop.Threshold())
				printer.Manifest(manifest)
			}

			if requireReady && !res.Ready {
				return fmt.Errorf("not ready after %d rounds: aggregate %.4f below threshold %.2f",
					res.TotalRounds, res.Aggregate, loop.Threshold())
			}
			return nil
		},
	}

	cmd.Flags().Int("max-rounds", 0, "Maximum rounds to run (default from config: 100)")
	cmd.Flags().String("registry", "", "Registry to load: core or constellation (default from config)")
	cmd.Flags().Float64("drive", 0, "Drive signal 0.0-1.0 (default from config: 1.0)")
	cmd.Flags().Bool("quiet", false, "Print round lines only, without per-entity bars")
	cmd.Flags().Bool("require-ready", false, "Exit non-zero if the loop does not become ready")

	return cmd
}
