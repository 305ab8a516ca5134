// Package diagnostics computes workspace-level diagnostics from the symbol
// index and tracks what has been published so stale results get cleared.
package diagnostics

import (
	"sort"

	"reqls/internal/ast"
)

// Source is attached to every diagnostic produced by this server.
const Source = "reqls"

// Codes
const (
	CodeCircularDependency   = "circular-dependency"
	CodeUnresolvedReference  = "unresolved-reference"
	CodeUncoveredRequirement = "uncovered-requirement"
	CodeSyntaxError          = "syntax-error"
	CodeDuplicateIdentifier  = "duplicate-identifier"
)

// Severity follows LSP numbering.
type Severity int

const (
	SeverityError   Severity = 1
	SeverityWarning Severity = 2
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}
	return "unknown"
}

// Position is a 0-based line/character pair.
type Position struct {
	Line      int `json:"line" yaml:"line" toml:"line"`
	Character int `json:"character" yaml:"character" toml:"character"`
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start" yaml:"start" toml:"start"`
	End   Position `json:"end" yaml:"end" toml:"end"`
}

// RangeOf converts a syntax tree location.
func RangeOf(loc ast.Location) Range {
	return Range{
		Start: Position{Line: loc.StartLine, Character: loc.StartColumn},
		End:   Position{Line: loc.EndLine, Character: loc.EndColumn},
	}
}

// Diagnostic is one problem attached to a file.
type Diagnostic struct {
	Range        Range    `json:"range" yaml:"range" toml:"range"`
	Severity     Severity `json:"severity" yaml:"severity" toml:"severity"`
	Code         string   `json:"code" yaml:"code" toml:"code"`
	Source       string   `json:"source" yaml:"source" toml:"source"`
	Message      string   `json:"message" yaml:"message" toml:"message"`
	RelatedPaths []string `json:"relatedPaths,omitempty" yaml:"relatedPaths,omitempty" toml:"relatedPaths,omitempty"`
}

// Publication is the full diagnostic set to publish for one file. An empty
// Diagnostics slice clears the file.
type Publication struct {
	URI         string       `json:"uri" yaml:"uri" toml:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics" toml:"diagnostics"`
}

// Sort orders diagnostics by start position, then code.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Range.Start, diags[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Character != b.Character {
			return a.Character < b.Character
		}
		return diags[i].Code < diags[j].Code
	})
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
