// Package server hosts the replan tools over the Model Context Protocol.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Name is the implementation name reported to MCP clients.
const Name = "replan"

// Server is an MCP server with request logging installed.
type Server struct {
	mcp    *mcp.Server
	logger *slog.Logger
}

// New returns a server reporting version to clients. A nil logger means
// slog.Default().
func New(version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)
	s.AddReceivingMiddleware(LoggingMiddleware(logger))
	return &Server{mcp: s, logger: logger}
}

// MCP exposes the underlying server for tool registration.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Serve handles one session on t until the peer disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context, t mcp.Transport) error {
	return s.mcp.Run(ctx, t)
}

// Run serves over stdin and stdout.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP", "transport", "stdio")
	return s.Serve(ctx, &mcp.StdioTransport{})
}
