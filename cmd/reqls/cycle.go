package main

import (
	"github.com/spf13/cobra"

	"reqls/internal/errors"
	"reqls/internal/workspace"
)

var (
	cycleRoot   string
	cycleFormat string
)

var cycleCmd = &cobra.Command{
	Use:   "cycle <from> <to>",
	Short: "Check whether a new dependency would create a cycle",
	Long: `Report whether adding "@depends-on <to>" to the symbol <from> would
create a circular dependency. Nothing is modified.

Examples:
  reqls cycle storage auth
  reqls cycle auth.login billing --root ./requirements`,
	Args: cobra.ExactArgs(2),
	RunE: runCycle,
}

func init() {
	cycleCmd.Flags().StringVar(&cycleRoot, "root", ".", "Workspace root")
	cycleCmd.Flags().StringVar(&cycleFormat, "format", "human", "Output format (json, yaml, toml, human)")
	rootCmd.AddCommand(cycleCmd)
}

func runCycle(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(cycleFormat)
	if err != nil {
		return err
	}
	root, err := workspaceRoot([]string{cycleRoot})
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	session, factory, err := openWorkspace(ctx, root, "cycle")
	if err != nil {
		return err
	}
	defer func() { _ = factory.Close() }()

	report, err := buildCycleReport(session, args[0], args[1])
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), report, format)
}

func buildCycleReport(session *workspace.Session, from, to string) (*CycleReport, error) {
	for _, p := range []string{from, to} {
		if len(session.Symbol(p)) == 0 {
			return nil, errors.Newf(errors.SymbolNotFound, "no symbol is declared at %s", p).
				WithDetails(map[string]string{"path": p, "root": session.Root()})
		}
	}
	report := &CycleReport{
		From:             from,
		To:               to,
		WouldCreateCycle: session.WouldCreateCircularDependency(from, to),
		Dependencies:     session.Dependencies(to),
	}
	if report.WouldCreateCycle {
		report.Dependents = session.Dependents(from)
	}
	return report, nil
}
