// Package service hosts the MCP front end of the EOS bridge. Every catalog
// operation is exposed as a typed MCP tool; the server speaks either stdio
// or HTTP depending on configuration.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/eigital/eos-bridge/internal/catalog"
	"github.com/eigital/eos-bridge/internal/directory"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "EOS Bridge MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over an HTTP listener.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	HTTPAddr  string // HTTP listener address, e.g. "localhost:8081".
}

// Server hosts the MCP server bound to one directory service.
type Server struct {
	mcpServer *mcp.Server
	catalog   *catalog.Catalog
}

// New creates a configured MCP server with every catalog operation
// registered as a tool.
func New(svc directory.Service) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	cat := catalog.New(svc)
	for _, op := range cat.Operations() {
		op.Register(mcpServer)
	}
	return &Server{mcpServer: mcpServer, catalog: cat}
}

// Run creates a server for svc and serves it until the context ends.
func Run(ctx context.Context, svc directory.Service, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	server := New(svc)
	switch cfg.Transport {
	case TransportStdio:
		return server.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return server.ServeHTTP(ctx, cfg.HTTPAddr)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// ServeHTTP starts the MCP server behind an HTTP listener and blocks until
// the context ends.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	transport := NewHTTPTransport(addr, s.mcpServer)
	return transport.Start(ctx)
}

// serveWithTransport starts the MCP server using the provided transport.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
