package main

import (
	"os"

	"github.com/spf13/cobra"

	"reqls/internal/config"
	"reqls/internal/lsp"
	"reqls/internal/slogutil"
	"reqls/internal/version"
)

var serveLogToFile bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the language server on stdio",
	Long: `Start the Language Server Protocol server.

The server speaks JSON-RPC 2.0 with Content-Length framing on stdin and
stdout. The workspace root is taken from the client's initialize request.
Logs go to stderr, or to .reqls/logs/server.log with --log-file.

This command is typically started by an editor and not directly by users.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveLogToFile, "log-file", false, "Write logs to .reqls/logs/server.log in the working directory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	// stdout carries the protocol
	factory := slogutil.NewLoggerFactory(cwd, cfg, cliLevel(), os.Stderr)
	defer func() { _ = factory.Close() }()
	logger := factory.Logger("lsp")
	if serveLogToFile {
		if logger, err = factory.FileLogger("server"); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("Starting language server", "version", version.Version, "pid", os.Getpid())
	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.Options{Logger: logger})
	if err := server.Run(ctx); err != nil {
		logger.Error("Language server stopped", "error", err.Error())
		return err
	}
	return nil
}
