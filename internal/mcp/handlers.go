package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/coherence/internal/models"
	"github.com/nvandessel/coherence/internal/report"
)

const statusResourceURI = "coherence://status"

// registerTools registers all coherence MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coherence_optimize",
		Description: "Run convergence rounds until the aggregate coherence reaches the threshold or the round budget is spent",
	}, s.handleCoherenceOptimize)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coherence_status",
		Description: "Report the current round, aggregate coherence, phase and per-entity state without running a round",
	}, s.handleCoherenceStatus)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coherence_manifest",
		Description: "Perform the manifestation strategies; refused with a locked status until the loop is ready",
	}, s.handleCoherenceManifest)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coherence_reset",
		Description: "Discard the current loop and start a fresh one from a registry",
	}, s.handleCoherenceReset)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         statusResourceURI,
		Name:        "coherence-status",
		Description: "Current convergence status as a markdown table.",
		MIMEType:    "text/markdown",
	}, s.handleStatusResource)
}

func (s *Server) handleStatusResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	s.mu.Lock()
	text := report.Markdown(s.loop.Status(), s.loop.Threshold())
	s.mu.Unlock()

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      statusResourceURI,
				MIMEType: "text/markdown",
				Text:     text,
			},
		},
	}, nil
}

// handleCoherenceOptimize implements the coherence_optimize tool.
func (s *Server) handleCoherenceOptimize(ctx context.Context, req *sdk.CallToolRequest, args CoherenceOptimizeInput) (_ *sdk.CallToolResult, _ CoherenceOptimizeOutput, retErr error) {
	start := s.nowFunc()
	defer func() {
		s.auditTool("coherence_optimize", start, retErr, sanitizeToolParams(map[string]any{
			"max_rounds": args.MaxRounds,
		}))
	}()

	if err := s.toolLimiters.CheckAt("coherence_optimize", start); err != nil {
		return nil, CoherenceOptimizeOutput{}, err
	}
	if args.MaxRounds < 0 {
		return nil, CoherenceOptimizeOutput{}, fmt.Errorf("max_rounds must be non-negative, got %d", args.MaxRounds)
	}

	maxRounds := args.MaxRounds
	if maxRounds == 0 {
		maxRounds = s.maxRounds
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.loop.Optimize(ctx, maxRounds)

	var msg string
	switch {
	case res.Ready && res.Rounds == 0:
		msg = fmt.Sprintf("Already ready at aggregate %.4f; no rounds run", res.Aggregate)
	case res.Ready:
		msg = fmt.Sprintf("Ready after %d rounds (aggregate %.4f)", res.Rounds, res.Aggregate)
	default:
		msg = fmt.Sprintf("Round budget of %d exhausted at aggregate %.4f (threshold %.2f)", maxRounds, res.Aggregate, s.loop.Threshold())
	}

	return nil, CoherenceOptimizeOutput{
		Rounds:      res.Rounds,
		TotalRounds: res.TotalRounds,
		Aggregate:   res.Aggregate,
		Ready:       res.Ready,
		Phase:       string(res.Phase),
		Entities:    summarizeEntities(s.loop.Snapshots()),
		Message:     msg,
	}, nil
}

// handleCoherenceStatus implements the coherence_status tool.
func (s *Server) handleCoherenceStatus(ctx context.Context, req *sdk.CallToolRequest, args CoherenceStatusInput) (_ *sdk.CallToolResult, _ CoherenceStatusOutput, retErr error) {
	start := s.nowFunc()
	defer func() {
		s.auditTool("coherence_status", start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := s.toolLimiters.CheckAt("coherence_status", start); err != nil {
		return nil, CoherenceStatusOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.loop.Status()
	return nil, CoherenceStatusOutput{
		Registry:  s.registryName,
		Round:     status.Round,
		Aggregate: status.Aggregate,
		Threshold: s.loop.Threshold(),
		Ready:     status.Ready,
		Phase:     string(status.Phase),
		Entities:  summarizeEntities(status.Entities),
	}, nil
}

// handleCoherenceManifest implements the coherence_manifest tool. A locked
// result is not an error.
func (s *Server) handleCoherenceManifest(ctx context.Context, req *sdk.CallToolRequest, args CoherenceManifestInput) (_ *sdk.CallToolResult, _ CoherenceManifestOutput, retErr error) {
	start := s.nowFunc()
	defer func() {
		s.auditTool("coherence_manifest", start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := s.toolLimiters.CheckAt("coherence_manifest", start); err != nil {
		return nil, CoherenceManifestOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.loop.Manifest()
	out := CoherenceManifestOutput{
		Unlocked:  m.Unlocked,
		Status:    m.Status,
		Aggregate: m.Aggregate,
	}
	for _, o := range m.Strategies {
		out.Strategies = append(out.Strategies, StrategySummary{
			Category:   string(o.Category),
			Task:       o.Task,
			Performers: o.Performers,
		})
	}
	return nil, out, nil
}

// handleCoherenceReset implements the coherence_reset tool.
func (s *Server) handleCoherenceReset(ctx context.Context, req *sdk.CallToolRequest, args CoherenceResetInput) (_ *sdk.CallToolResult, _ CoherenceResetOutput, retErr error) {
	start := s.nowFunc()
	defer func() {
		s.auditTool("coherence_reset", start, retErr, sanitizeToolParams(map[string]any{
			"registry": args.Registry,
		}))
	}()

	if err := s.toolLimiters.CheckAt("coherence_reset", start); err != nil {
		return nil, CoherenceResetOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(args.Registry)
	if name == "" {
		name = s.registryName
	}
	if err := s.reset(name); err != nil {
		return nil, CoherenceResetOutput{}, err
	}

	return nil, CoherenceResetOutput{
		Registry: s.registryName,
		Entities: s.loop.Len(),
		Message:  fmt.Sprintf("Loop reset from %s registry (%d entities)", s.registryName, s.loop.Len()),
	}, nil
}

func summarizeEntities(snapshots []models.Snapshot) []EntitySummary {
	out := make([]EntitySummary, 0, len(snapshots))
	for _, e := range snapshots {
		out = append(out, EntitySummary{
			Name:         e.Name,
			Category:     string(e.Category),
			Coherence:    e.Coherence,
			Alignment:    e.Alignment,
			Precision:    e.Precision,
			Flow:         e.Flow,
			BalanceRatio: e.BalanceRatio,
			Frequency:    e.Frequency,
		})
	}
	return out
}
