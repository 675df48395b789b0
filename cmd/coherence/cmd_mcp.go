package main

import (
	"fmt"
	"io"

	"github.com/nvandessel/coherence/internal/convergence"
	"github.com/nvandessel/coherence/internal/mcp"
	"github.com/nvandessel/coherence/internal/telemetry"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the convergence loop over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools: coherence_optimize, coherence_status, coherence_manifest and
coherence_reset. Resource: coherence://status.

Stdout carries the protocol; logs and audit entries go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			audit, _ := cmd.Flags().GetBool("audit")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, "coherence-mcp")
			if err != nil {
				return fmt.Errorf("failed to set up tracing: %w", err)
			}
			defer func() { _ = shutdown(ctx) }()

			stderr := cmd.ErrOrStderr()
			logger, decisions := newLoggers(cfg, stderr)

			var auditWriter io.Writer
			if audit {
				auditWriter = stderr
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "coherence",
				Version:  version,
				Registry: cfg.Simulation.Registry,
				Loop: convergence.Config{
					Params:    cfg.Simulation.UpdaterParams(),
					Threshold: cfg.Simulation.Threshold,
					Logger:    logger,
					Decisions: decisions,
				},
				MaxRounds: cfg.Simulation.MaxRounds,
				Logger:    logger,
				Audit:     auditWriter,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			return server.Run(ctx)
		},
	}

	cmd.Flags().Bool("audit", false, "Write a JSONL audit entry per tool call to stderr")

	return cmd
}
