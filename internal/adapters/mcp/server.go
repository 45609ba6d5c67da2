// Package mcp exposes legal search and answers to MCP clients over stdio.
package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

const (
	serverName = "labor-law-assistant"
	Version    = "0.1.0"
)

var ErrMissingRetriever = errors.New("mcp: retriever is required")

// Ports groups the inbound services the tools call. Assistant and Index are
// optional; their tools are not registered when nil.
type Ports struct {
	Retriever ports.Retriever
	Assistant ports.LegalAssistant
	Index     ports.IndexAdmin
}

type Server struct {
	ports  Ports
	server *server.MCPServer
	logger *slog.Logger
}

func NewServer(p Ports, logger *slog.Logger) (*Server, error) {
	if p.Retriever == nil {
		return nil, ErrMissingRetriever
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		ports:  p,
		server: server.NewMCPServer(serverName, Version, server.WithToolCapabilities(false)),
		logger: logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves MCP over the given streams until ctx is done or stdin closes.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.server)
	return stdio.Listen(ctx, in, out)
}
