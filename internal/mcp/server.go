// Package mcp provides an MCP (Model Context Protocol) server exposing a
// convergence loop as tools.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/coherence/internal/constants"
	"github.com/nvandessel/coherence/internal/convergence"
	"github.com/nvandessel/coherence/internal/logging"
	"github.com/nvandessel/coherence/internal/ratelimit"
	"github.com/nvandessel/coherence/internal/registry"
	"github.com/nvandessel/coherence/internal/resonance"
)

// Server wraps the MCP SDK server and owns one convergence loop.
// Tool calls may arrive concurrently; mu serializes access to the loop.
type Server struct {
	server *sdk.Server

	mu           sync.Mutex
	loop         *convergence.Loop
	registryName string

	loopConfig   convergence.Config
	maxRounds    int
	logger       *slog.Logger
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	nowFunc      func() time.Time
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "coherence")
	Version string // Server version

	// Registry names the entity set to load. Default: constellation.
	Registry string

	// Loop configures every loop the server creates.
	Loop convergence.Config

	// MaxRounds is the budget used when coherence_optimize omits max_rounds.
	MaxRounds int

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// Audit receives one JSON line per tool call. Nil disables auditing.
	Audit io.Writer

	// Limits overrides the per-tool rate limits. Nil uses the defaults.
	Limits map[string]ratelimit.Limit
}

// NewServer creates a new MCP server with coherence tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Registry == "" {
		cfg.Registry = registry.DefaultName
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = constants.DefaultMaxRounds
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Loop.Params == (resonance.Params{}) {
		cfg.Loop.Params = resonance.DefaultParams()
	}
	if cfg.Loop.Logger == nil {
		cfg.Loop.Logger = cfg.Logger
	}
	limits := cfg.Limits
	if limits == nil {
		limits = ratelimit.DefaultToolLimits()
	}

	s := &Server{
		loopConfig:   cfg.Loop,
		maxRounds:    cfg.MaxRounds,
		logger:       cfg.Logger,
		toolLimiters: ratelimit.NewToolLimiters(limits),
		auditLogger:  NewAuditLogger(cfg.Audit),
		nowFunc:      time.Now,
	}

	if err := s.reset(cfg.Registry); err != nil {
		return nil, err
	}

	s.server = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			s.logger.Debug("client initialized")
		},
	})

	s.registerTools()
	s.registerResources()

	return s, nil
}

// reset replaces the loop with a fresh one built from the named registry.
// The caller must hold mu or be the only goroutine using s.
func (s *Server) reset(name string) error {
	entries, err := registry.Lookup(name)
	if err != nil {
		return err
	}
	loop, err := convergence.NewLoop(entries, s.loopConfig)
	if err != nil {
		return fmt.Errorf("failed to create loop: %w", err)
	}
	s.loop = loop
	s.registryName = strings.ToLower(strings.TrimSpace(name))
	return nil
}

// watchSignals cancels ctx on an interrupt or termination signal until the
// returned stop function is called.
func watchSignals(ctx context.Context, cancel context.CancelFunc) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		case <-done:
		}
	}()

	return func() {
		stopSignals(sigChan)
		close(done)
	}
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := watchSignals(ctx, cancel)
	defer stop()

	s.logger.Info("mcp server starting", "registry", s.registryName)
	return s.server.Run(ctx, &sdk.StdioTransport{})
}
