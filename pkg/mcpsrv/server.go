package mcpsrv

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/typepaste/internal/cache"
	"github.com/usestring/typepaste/internal/config"
	"github.com/usestring/typepaste/internal/logging"
	"github.com/usestring/typepaste/internal/mcp"
	"github.com/usestring/typepaste/internal/mcp/tools"
	"github.com/usestring/typepaste/pkg/codegen"
)

// Server is the typepaste MCP server. It owns the log file opened for it.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer builds a server with the builtin typepaste tools, prompts and
// resources. Configuration is read from the environment and then adjusted
// by opts.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{config: config.Load()}
	for _, opt := range opts {
		opt(cfg)
	}

	logCleanup, err := logging.Setup(cfg.logConfig())
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	queries, err := cache.NewQueryCache(cfg.config.QueryCacheMaxItems)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("creating query cache: %w", err)
	}
	deps := &Deps{
		Generator: codegen.New(
			codegen.WithQueryCache(queries),
			codegen.WithLimits(cfg.config.MaxSampleBytes, cfg.config.MaxSamples),
		),
		Queries: queries,
		Config:  cfg.config,
	}

	internal, err := mcp.NewServer(&tools.Deps{Generator: deps.Generator, Config: deps.Config}, cfg.internalOptions(deps)...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("creating server: %w", err)
	}
	return &Server{internal: internal, deps: deps, logCleanup: logCleanup}, nil
}

// logConfig merges the environment's log settings with the option overrides.
func (c *serverConfig) logConfig() logging.Config {
	lc := logging.Config{
		Level:      c.config.LogLevel,
		Format:     c.config.LogFormat,
		FilePath:   c.config.LogFile,
		MaxSizeMB:  c.config.LogMaxSizeMB,
		MaxBackups: c.config.LogMaxBackups,
		MaxAgeDays: c.config.LogMaxAgeDays,
		Compress:   c.config.LogCompress,
	}
	if c.logLevel != "" {
		lc.Level = c.logLevel
	}
	if c.logFile != "" {
		lc.FilePath = c.logFile
	}
	return lc
}

// internalOptions turns builtin toggles and custom registrations into
// options for the internal server. Custom tools registered through
// WithDepsTool run last so they see the finished Deps.
func (c *serverConfig) internalOptions(deps *Deps) []mcp.ServerOption {
	var out []mcp.ServerOption
	if !c.disableBuiltinTools {
		out = append(out, mcp.WithBuiltinTools())
	}
	if !c.disableBuiltinPrompts {
		out = append(out, mcp.WithBuiltinPrompts())
	}
	for _, group := range [][]func(*sdkmcp.Server){c.toolRegistrations, c.promptRegistrations, c.resourceRegistrations} {
		for _, fn := range group {
			out = append(out, mcp.WithCustomRegistration(fn))
		}
	}
	for _, fn := range c.deferredToolRegistrations {
		out = append(out, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) { fn(srv, deps) }))
	}
	return out
}

// Run serves over stdio until the context is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// RunTransport serves over t. Tests use the SDK's in-memory transports.
func (s *Server) RunTransport(ctx context.Context, t sdkmcp.Transport) error {
	return s.internal.RunTransport(ctx, t)
}

// Close flushes and closes the log file, if any.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the generator and configuration custom tools can share.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
