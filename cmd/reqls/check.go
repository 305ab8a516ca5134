package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"reqls/internal/config"
	"reqls/internal/diagnostics"
	"reqls/internal/paths"
	"reqls/internal/watcher"
	"reqls/internal/workspace"
)

// errDiagnosticsFound makes check exit with status 1 without printing an
// error.
var errDiagnosticsFound = stderrors.New("diagnostics reported errors")

var (
	checkFormat string
	checkWatch  bool
)

var checkCmd = &cobra.Command{
	Use:   "check [root]",
	Short: "Report diagnostics for a workspace",
	Long: `Index every requirement document under root (default: the working
directory) and print the diagnostics an editor would show.

Exits with status 1 when any diagnostic is an error.

Examples:
  reqls check
  reqls check ./requirements --format json
  reqls check --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "human", "Output format (json, yaml, toml, human)")
	checkCmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "Re-check when documents change")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(checkFormat)
	if err != nil {
		return err
	}
	root, err := workspaceRoot(args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	session, factory, err := openWorkspace(ctx, root, "check")
	if err != nil {
		return err
	}
	defer func() { _ = factory.Close() }()

	report := buildCheckReport(session)
	if err := printReport(cmd.OutOrStdout(), report, format); err != nil {
		return err
	}
	if !checkWatch {
		if report.Errors > 0 {
			return errDiagnosticsFound
		}
		return nil
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return watchWorkspace(ctx, cmd.OutOrStdout(), session, cfg, factory.Logger("watcher"), format)
}

// watchWorkspace re-checks the workspace after each batch of changes until
// ctx is done.
func watchWorkspace(ctx context.Context, out io.Writer, session *workspace.Session, cfg *config.Config, logger *slog.Logger, format OutputFormat) error {
	var mu sync.Mutex
	w := watcher.New(session.Root(), watcher.Options{
		Debounce: cfg.DebounceInterval(),
		Filter:   session.Accepts,
	}, logger, func(events []watcher.Event) {
		mu.Lock()
		defer mu.Unlock()
		applyEvents(ctx, session, events)
		if err := printReport(out, buildCheckReport(session), format); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	})
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	logger.Info("Watching for changes", "root", session.Root(), "dirs", w.DirCount())

	<-ctx.Done()
	return w.Stop()
}

// applyEvents forwards watcher events to the session.
func applyEvents(ctx context.Context, session *workspace.Session, events []watcher.Event) {
	for _, ev := range events {
		uri := paths.FileURI(ev.Path)
		switch ev.Type {
		case watcher.EventCreate:
			session.FileCreated(ctx, uri)
		case watcher.EventModify:
			session.FileChanged(ctx, uri)
		case watcher.EventDelete:
			session.FileDeleted(ctx, uri)
		}
	}
}

// buildCheckReport collects the current diagnostics of session.
func buildCheckReport(session *workspace.Session) *CheckReport {
	report := &CheckReport{
		Root:  session.Root(),
		Stats: session.Stats(),
		Files: []FileReport{},
	}
	for _, pub := range session.AllDiagnostics() {
		if len(pub.Diagnostics) == 0 {
			continue
		}
		for _, d := range pub.Diagnostics {
			if d.Severity == diagnostics.SeverityError {
				report.Errors++
			} else {
				report.Warnings++
			}
		}
		report.Files = append(report.Files, FileReport{
			Path:        paths.RelativeURI(pub.URI, session.Root()),
			Diagnostics: pub.Diagnostics,
		})
	}
	return report
}

func printReport(out io.Writer, resp interface{}, format OutputFormat) error {
	text, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}
