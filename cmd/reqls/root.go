package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"reqls/internal/config"
	"reqls/internal/errors"
	"reqls/internal/slogutil"
	"reqls/internal/version"
	"reqls/internal/workspace"
)

var (
	verbosity int
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "reqls",
	Short: "reqls - language server for requirement documents",
	Long: `reqls indexes module, feature, requirement and constraint declarations,
resolves @depends-on references between them and reports circular and
unresolved dependencies.

Run 'reqls serve' from an editor, or 'reqls check' from a terminal or CI.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("reqls version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Disable logging")
}

// cliLevel returns the level requested on the command line, or nil when
// neither --verbose nor --quiet was given.
func cliLevel() *slog.Level {
	if verbosity == 0 && !quiet {
		return nil
	}
	level := slogutil.LevelFromVerbosity(verbosity, quiet)
	return &level
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// workspaceRoot returns the absolute root named by args, or the working
// directory.
func workspaceRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.New(errors.WorkspaceNotFound, "cannot resolve workspace root", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", errors.Newf(errors.WorkspaceNotFound, "workspace root %s is not a directory", abs)
	}
	return abs, nil
}

// loadConfig loads and validates the configuration of root.
func loadConfig(root string) (*config.Config, error) {
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "cannot load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "invalid configuration", err)
	}
	return cfg, nil
}

// openWorkspace loads root into a new session. Diagnostics are not published
// anywhere; callers read them from the session.
func openWorkspace(ctx context.Context, root string, component string) (*workspace.Session, *slogutil.LoggerFactory, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, nil, err
	}
	factory := slogutil.NewLoggerFactory(root, cfg, cliLevel(), os.Stderr)
	logger := factory.Logger(component)

	session := workspace.NewFromConfig(root, cfg, logger, nil)
	stats, err := session.Load(ctx)
	if err != nil {
		_ = factory.Close()
		return nil, nil, err
	}
	logger.Debug("Workspace ready", "files", stats.Indexed, "unreadable", stats.Unreadable)
	return session, factory, nil
}
