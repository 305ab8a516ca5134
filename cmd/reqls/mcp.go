package main

import (
	"github.com/spf13/cobra"

	"reqls/internal/mcp"
	"reqls/internal/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [root]",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol server.

The workspace under root (default: the working directory) is indexed once
at startup. The server exposes these tools:
  - get_symbol: declarations of a symbol path
  - list_symbols: indexed symbols, optionally of one kind
  - resolve_reference: what a dependency path resolves to
  - would_create_cycle: whether a new dependency would close a cycle
  - dependency_candidates: targets that can be added without a cycle
  - workspace_diagnostics: current diagnostics of every file

Logs go to stderr since stdout carries the protocol.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot(args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	session, factory, err := openWorkspace(ctx, root, "mcp")
	if err != nil {
		return err
	}
	defer func() { _ = factory.Close() }()

	logger := factory.Logger("mcp")
	logger.Info("Starting MCP server", "version", version.Version, "session", session.ID())
	server := mcp.NewMCPServer(session, logger)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP server error", "error", err.Error())
		return err
	}
	return nil
}
