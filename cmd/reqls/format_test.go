package main

import (
	"strings"
	"testing"

	"reqls/internal/diagnostics"
	"reqls/internal/workspace"
)

func sampleCheckReport() *CheckReport {
	return &CheckReport{
		Root:   "/w",
		Stats:  workspace.Stats{Files: 2, Symbols: 3, Edges: 2},
		Errors: 1,
		Files: []FileReport{{
			Path: "a.req",
			Diagnostics: []diagnostics.Diagnostic{{
				Range:    diagnostics.Range{Start: diagnostics.Position{Line: 1, Character: 14}, End: diagnostics.Position{Line: 1, Character: 15}},
				Severity: diagnostics.SeverityError,
				Code:     diagnostics.CodeCircularDependency,
				Source:   diagnostics.Source,
				Message:  "Circular dependency detected: a -> b -> a",
			}},
		}},
	}
}

func TestFormatResponse_JSON(t *testing.T) {
	resp := map[string]interface{}{
		"key": "value",
		"num": 42,
	}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result, `"key": "value"`) {
		t.Error("JSON output missing expected key")
	}
	if !strings.Contains(result, `"num": 42`) {
		t.Error("JSON output missing expected number")
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	resp := map[string]string{"key": "value"}

	_, err := FormatResponse(resp, "xml")
	if err == nil {
		t.Error("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"toml", FormatTOML, false},
		{"human", FormatHuman, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatResponse_Structured(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   []string
	}{
		{FormatJSON, []string{`"root": "/w"`, `"code": "circular-dependency"`, `"severity": 1`}},
		{FormatYAML, []string{"root: /w", "code: circular-dependency", "severity: 1"}},
		{FormatTOML, []string{`root = "/w"`, "[[files]]", `code = "circular-dependency"`}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			out, err := FormatResponse(sampleCheckReport(), tt.format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected %q in output:\n%s", w, out)
				}
			}
		})
	}
}

func TestFormatHuman_Check(t *testing.T) {
	out, err := FormatResponse(sampleCheckReport(), FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "a.req:2:15: error [circular-dependency] Circular dependency detected: a -> b -> a") {
		t.Errorf("expected a compiler-style line, got:\n%s", out)
	}
	if !strings.HasSuffix(out, "1 error, 0 warnings") {
		t.Errorf("expected summary line, got:\n%s", out)
	}
}

func TestFormatHuman_Symbols(t *testing.T) {
	report := &SymbolsReport{Symbols: []SymbolEntry{
		{Path: "auth", Kind: "module", File: "auth.req", Line: 0, DependsOn: []string{"storage"}},
		{Path: "auth.login", Kind: "feature", File: "auth.req", Line: 2},
	}}
	out, _ := FormatResponse(report, FormatHuman)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "auth        module") || !strings.HasSuffix(lines[0], "auth.req:1  -> storage") {
		t.Errorf("unexpected line %q", lines[0])
	}

	empty, _ := FormatResponse(&SymbolsReport{}, FormatHuman)
	if empty != "No symbols found" {
		t.Errorf("expected empty message, got %q", empty)
	}
}

func TestFormatHuman_Cycle(t *testing.T) {
	tests := []struct {
		report CycleReport
		want   string
	}{
		{CycleReport{From: "a", To: "b"}, "a -> b is safe"},
		{CycleReport{From: "a", To: "b", WouldCreateCycle: true}, "a -> b would create a cycle: b already depends on a"},
		{CycleReport{From: "a", To: "a", WouldCreateCycle: true}, "a -> a would create a cycle: a symbol cannot depend on itself"},
	}
	for _, tt := range tests {
		out, _ := FormatResponse(&tt.report, FormatHuman)
		if out != tt.want {
			t.Errorf("expected %q, got %q", tt.want, out)
		}
	}
}
