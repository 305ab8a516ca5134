// Package mcp exposes the workspace read APIs as Model Context Protocol
// tools.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"reqls/internal/slogutil"
	"reqls/internal/version"
	"reqls/internal/workspace"
)

// MCPServer serves tools backed by one workspace session.
type MCPServer struct {
	session *workspace.Session
	logger  *slog.Logger
	server  *mcp.Server
}

// NewMCPServer creates a server over session and registers its tools.
func NewMCPServer(session *workspace.Session, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		session: session,
		logger:  slogutil.OrDiscard(logger),
		server: mcp.NewServer(&mcp.Implementation{
			Name:    version.Name,
			Version: version.Version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves requests on stdio until the client disconnects or ctx is done.
func (s *MCPServer) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &mcp.StdioTransport{})
}

// RunTransport serves requests on t.
func (s *MCPServer) RunTransport(ctx context.Context, t mcp.Transport) error {
	s.logger.Info("MCP server starting", "root", s.session.Root())
	return s.server.Run(ctx, t)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return textResult(string(data)), nil, nil
}
