// Package mcp exposes the optimization services as MCP tools over stdio.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"promptsmith/app"
	"promptsmith/config"
)

const ServerName = "promptsmith"

type Server struct {
	app *app.App
	mcp *server.MCPServer
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(a *app.App, version string) *Server {
	s := &Server{
		app: a,
		mcp: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
			server.WithInstructions("Optimize text-to-image prompts and extract prompts from images."),
		),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying server, e.g. for an in-process client.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves on stdin/stdout until ctx is cancelled or stdin closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	config.Logf("[MCP] Serving %d tools over stdio", len(toolNames))
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}
