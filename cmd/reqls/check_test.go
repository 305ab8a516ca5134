package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reqls/internal/errors"
	"reqls/internal/symbols"
)

func writeTestWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	quiet = true
	t.Cleanup(func() { quiet = false })

	root := t.TempDir()
	for name, text := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

var cycleFiles = map[string]string{
	"a.req":         "module a {\n  @depends-on b\n}\n",
	"b.req":         "module b {\n  @depends-on a\n}\n",
	"specs/c.req":   "module c \"Standalone\" {\n  feature export\n}\n",
	"notes/todo.md": "module ignored {}\n",
}

func TestBuildCheckReport(t *testing.T) {
	root := writeTestWorkspace(t, cycleFiles)
	session, factory, err := openWorkspace(context.Background(), root, "test")
	if err != nil {
		t.Fatalf("openWorkspace failed: %v", err)
	}
	defer factory.Close()

	report := buildCheckReport(session)
	if report.Errors != 2 || report.Warnings != 0 {
		t.Errorf("expected 2 errors and 0 warnings, got %d and %d", report.Errors, report.Warnings)
	}
	if report.Stats.Files != 3 || report.Stats.Cycles != 1 {
		t.Errorf("expected 3 files and 1 cycle, got %+v", report.Stats)
	}
	var got []string
	for _, f := range report.Files {
		got = append(got, f.Path)
	}
	if strings.Join(got, ",") != "a.req,b.req" {
		t.Errorf("expected a.req,b.req, got %v", got)
	}
}

func TestBuildSymbolsReport(t *testing.T) {
	root := writeTestWorkspace(t, cycleFiles)
	session, factory, err := openWorkspace(context.Background(), root, "test")
	if err != nil {
		t.Fatalf("openWorkspace failed: %v", err)
	}
	defer factory.Close()

	all := buildSymbolsReport(session, "")
	if len(all.Symbols) != 4 {
		t.Errorf("expected 4 symbols, got %d", len(all.Symbols))
	}

	features := buildSymbolsReport(session, symbols.KindFeature)
	if len(features.Symbols) != 1 {
		t.Fatalf("expected 1 feature, got %+v", features.Symbols)
	}
	if f := features.Symbols[0]; f.Path != "c.export" || f.File != "specs/c.req" || f.Line != 1 {
		t.Errorf("unexpected feature %+v", f)
	}
}

func TestBuildCycleReport(t *testing.T) {
	root := writeTestWorkspace(t, cycleFiles)
	session, factory, err := openWorkspace(context.Background(), root, "test")
	if err != nil {
		t.Fatalf("openWorkspace failed: %v", err)
	}
	defer factory.Close()

	report, err := buildCycleReport(session, "c", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.WouldCreateCycle {
		t.Error("expected c -> a to be safe")
	}

	if len(report.Dependencies) != 2 {
		t.Errorf("expected a to reach a and b through the cycle, got %v", report.Dependencies)
	}

	report, _ = buildCycleReport(session, "a", "b")
	if !report.WouldCreateCycle {
		t.Error("expected a -> b to close a cycle")
	}

	_, err = buildCycleReport(session, "a", "missing")
	if !errors.HasCode(err, errors.SymbolNotFound) {
		t.Fatalf("expected SYMBOL_NOT_FOUND, got %v", err)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if details, ok := e.Details.(map[string]string); !ok || details["path"] != "missing" {
		t.Errorf("expected details naming the missing path, got %+v", e.Details)
	}
}

func TestParseKindFlag(t *testing.T) {
	if k, err := parseKindFlag(""); err != nil || k != "" {
		t.Errorf("expected every kind for an empty flag, got %q, %v", k, err)
	}
	if k, err := parseKindFlag("Requirement"); err != nil || k != symbols.KindRequirement {
		t.Errorf("expected requirement, got %q, %v", k, err)
	}
	_, err := parseKindFlag("epic")
	if err == nil || !strings.Contains(err.Error(), "module, feature, requirement, constraint") {
		t.Errorf("expected error listing valid kinds, got %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	root := writeTestWorkspace(t, cycleFiles)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"check", root, "--format", "json", "-q"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		checkFormat = "human"
	})

	err := rootCmd.Execute()
	if !stderrors.Is(err, errDiagnosticsFound) {
		t.Fatalf("expected errDiagnosticsFound, got %v", err)
	}
	if code := exitCode(err); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}

	var report CheckReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if report.Errors != 2 {
		t.Errorf("expected 2 errors, got %d", report.Errors)
	}
}

func TestWorkspaceRoot(t *testing.T) {
	dir := t.TempDir()
	root, err := workspaceRoot([]string{dir})
	if err != nil || root != dir {
		t.Errorf("expected %s, got %s (%v)", dir, root, err)
	}

	_, err = workspaceRoot([]string{filepath.Join(dir, "missing")})
	if !errors.HasCode(err, errors.WorkspaceNotFound) {
		t.Errorf("expected WORKSPACE_NOT_FOUND, got %v", err)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	root := writeTestWorkspace(t, map[string]string{
		".reqls/config.json": `{"completion": {"scopeFilter": "fuzzy"}}`,
	})
	if _, err := loadConfig(root); !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}
