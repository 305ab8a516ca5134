package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reqls/internal/paths"
	"reqls/internal/symbols"
	"reqls/internal/workspace"
)

var (
	symbolsKind   string
	symbolsFormat string
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [root]",
	Short: "List declared symbols",
	Long: `List every module, feature, requirement and constraint declared under
root (default: the working directory).

Examples:
  reqls symbols
  reqls symbols --kind requirement --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&symbolsKind, "kind", "", "Only list symbols of this kind (module, feature, requirement, constraint)")
	symbolsCmd.Flags().StringVar(&symbolsFormat, "format", "human", "Output format (json, yaml, toml, human)")
	rootCmd.AddCommand(symbolsCmd)
}

func runSymbols(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(symbolsFormat)
	if err != nil {
		return err
	}
	kind, err := parseKindFlag(symbolsKind)
	if err != nil {
		return err
	}
	root, err := workspaceRoot(args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	session, factory, err := openWorkspace(ctx, root, "symbols")
	if err != nil {
		return err
	}
	defer func() { _ = factory.Close() }()

	return printReport(cmd.OutOrStdout(), buildSymbolsReport(session, kind), format)
}

// parseKindFlag maps --kind to a Kind. An empty value selects every kind.
func parseKindFlag(s string) (symbols.Kind, error) {
	if s == "" {
		return "", nil
	}
	if k, ok := symbols.ParseKind(s); ok {
		return k, nil
	}
	valid := make([]string, len(symbols.Kinds))
	for i, k := range symbols.Kinds {
		valid[i] = string(k)
	}
	return "", fmt.Errorf("unknown kind %q (valid kinds: %s)", s, strings.Join(valid, ", "))
}

func buildSymbolsReport(session *workspace.Session, kind symbols.Kind) *SymbolsReport {
	syms := session.Symbols()
	if kind != "" {
		syms = session.SymbolsByKind(kind)
	}
	report := &SymbolsReport{Root: session.Root(), Kind: string(kind), Symbols: []SymbolEntry{}}
	for _, s := range syms {
		entry := SymbolEntry{
			Path:        s.Path,
			Kind:        string(s.Kind),
			File:        paths.RelativeURI(s.FileURI, session.Root()),
			Line:        s.NameLocation.StartLine,
			Description: s.Description,
		}
		for _, ref := range s.References() {
			entry.DependsOn = append(entry.DependsOn, ref.Path)
		}
		report.Symbols = append(report.Symbols, entry)
	}
	return report
}
