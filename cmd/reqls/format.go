package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"reqls/internal/diagnostics"
	"reqls/internal/workspace"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatTOML  OutputFormat = "toml"
	FormatHuman OutputFormat = "human"
)

// FileReport holds the diagnostics of one document.
type FileReport struct {
	Path        string                   `json:"path" yaml:"path" toml:"path"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics" yaml:"diagnostics" toml:"diagnostics"`
}

// CheckReport is the result of reqls check.
type CheckReport struct {
	Root     string          `json:"root" yaml:"root" toml:"root"`
	Stats    workspace.Stats `json:"stats" yaml:"stats" toml:"stats"`
	Errors   int             `json:"errors" yaml:"errors" toml:"errors"`
	Warnings int             `json:"warnings" yaml:"warnings" toml:"warnings"`
	Files    []FileReport    `json:"files" yaml:"files" toml:"files"`
}

// SymbolEntry is one row of reqls symbols.
type SymbolEntry struct {
	Path        string   `json:"path" yaml:"path" toml:"path"`
	Kind        string   `json:"kind" yaml:"kind" toml:"kind"`
	File        string   `json:"file" yaml:"file" toml:"file"`
	Line        int      `json:"line" yaml:"line" toml:"line"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	DependsOn   []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty" toml:"dependsOn,omitempty"`
}

// SymbolsReport is the result of reqls symbols.
type SymbolsReport struct {
	Root    string        `json:"root" yaml:"root" toml:"root"`
	Kind    string        `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Symbols []SymbolEntry `json:"symbols" yaml:"symbols" toml:"symbols"`
}

// CycleReport is the result of reqls cycle.
type CycleReport struct {
	From             string   `json:"from" yaml:"from" toml:"from"`
	To               string   `json:"to" yaml:"to" toml:"to"`
	WouldCreateCycle bool     `json:"wouldCreateCycle" yaml:"wouldCreateCycle" toml:"wouldCreateCycle"`
	Dependents       []string `json:"dependents,omitempty" yaml:"dependents,omitempty" toml:"dependents,omitempty"`
	// Dependencies is everything To already depends on.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
}

// ParseOutputFormat validates a --format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatTOML, FormatHuman:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s (want json, yaml, toml or human)", s)
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatTOML:
		return formatTOML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(resp); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func formatTOML(resp interface{}) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(resp); err != nil {
		return "", fmt.Errorf("failed to marshal TOML: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *CheckReport:
		return formatCheckHuman(v), nil
	case *SymbolsReport:
		return formatSymbolsHuman(v), nil
	case *CycleReport:
		return formatCycleHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatCheckHuman(r *CheckReport) string {
	var b strings.Builder
	for _, f := range r.Files {
		for _, d := range f.Diagnostics {
			b.WriteString(fmt.Sprintf("%s:%d:%d: %s [%s] %s\n",
				f.Path, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Severity, d.Code, d.Message))
		}
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("%d files, %d symbols, %d dependencies\n", r.Stats.Files, r.Stats.Symbols, r.Stats.Edges))
	b.WriteString(fmt.Sprintf("%s, %s", plural(r.Errors, "error"), plural(r.Warnings, "warning")))
	return b.String()
}

func formatSymbolsHuman(r *SymbolsReport) string {
	if len(r.Symbols) == 0 {
		return "No symbols found"
	}
	width := 0
	for _, s := range r.Symbols {
		width = max(width, len(s.Path))
	}
	var b strings.Builder
	for i, s := range r.Symbols {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%-*s  %-11s  %s:%d", width, s.Path, s.Kind, s.File, s.Line+1))
		if len(s.DependsOn) > 0 {
			b.WriteString("  -> " + strings.Join(s.DependsOn, ", "))
		}
	}
	return b.String()
}

func formatCycleHuman(r *CycleReport) string {
	if !r.WouldCreateCycle {
		return fmt.Sprintf("%s -> %s is safe", r.From, r.To)
	}
	if r.From == r.To {
		return fmt.Sprintf("%s -> %s would create a cycle: a symbol cannot depend on itself", r.From, r.To)
	}
	return fmt.Sprintf("%s -> %s would create a cycle: %s already depends on %s", r.From, r.To, r.To, r.From)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
