package diagnostics

import (
	"fmt"
	"strings"

	"reqls/internal/graph"
	"reqls/internal/resolve"
	"reqls/internal/symbols"
)

// Coverage reports whether a requirement path is linked to a ticket.
type Coverage interface {
	Covered(path string) bool
}

// Result is one full workspace diagnostics pass.
type Result struct {
	ByFile     map[string][]Diagnostic `json:"byFile"`
	Cycles     []graph.Cycle           `json:"cycles"`
	Unresolved []resolve.Unresolved    `json:"unresolved"`
	Uncovered  []string                `json:"uncovered,omitempty"`

	// Graph is the dependency graph the pass was computed from.
	Graph *graph.Graph `json:"-"`
}

// Files returns the URIs that carry at least one workspace diagnostic.
func (r Result) Files() []string {
	out := make([]string, 0, len(r.ByFile))
	for uri, diags := range r.ByFile {
		if len(diags) > 0 {
			out = append(out, uri)
		}
	}
	return out
}

// Count returns the total number of workspace diagnostics.
func (r Result) Count() int {
	n := 0
	for _, diags := range r.ByFile {
		n += len(diags)
	}
	return n
}

type locKey struct {
	uri       string
	line, col int
}

// Compute recomputes every workspace diagnostic from idx. cov may be nil,
// in which case no coverage warnings are produced. Compute does not modify
// idx.
func Compute(idx *symbols.Index, cov Coverage) Result {
	g := graph.Build(idx)
	res := Result{ByFile: make(map[string][]Diagnostic), Graph: g}

	report := g.FindCycles()
	res.Cycles = report.Cycles
	seen := make(map[locKey]struct{})
	for _, c := range report.Cycles {
		msg := "Circular dependency detected: " + strings.Join(c.Path, " -> ")
		related := c.Path[:len(c.Path)-1]
		for _, e := range c.Edges {
			key := locKey{e.FileURI, e.Reference.Location.StartLine, e.Reference.Location.StartColumn}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			res.add(e.FileURI, Diagnostic{
				Range:        RangeOf(e.Reference.Location),
				Severity:     SeverityError,
				Code:         CodeCircularDependency,
				Source:       Source,
				Message:      msg,
				RelatedPaths: append([]string(nil), related...),
			})
		}
	}

	res.Unresolved = resolve.New(idx).Unresolved()
	for _, u := range res.Unresolved {
		res.add(u.FileURI, Diagnostic{
			Range:    RangeOf(u.Reference.Location),
			Severity: SeverityError,
			Code:     CodeUnresolvedReference,
			Source:   Source,
			Message:  unresolvedMessage(u),
		})
	}

	if cov != nil {
		for _, s := range idx.GetSymbolsByKind(symbols.KindRequirement) {
			if cov.Covered(s.Path) {
				continue
			}
			res.Uncovered = append(res.Uncovered, s.Path)
			res.add(s.FileURI, Diagnostic{
				Range:    RangeOf(s.Location),
				Severity: SeverityWarning,
				Code:     CodeUncoveredRequirement,
				Source:   Source,
				Message:  fmt.Sprintf("Requirement '%s' has no linked ticket", s.Path),
			})
		}
	}

	for uri := range res.ByFile {
		Sort(res.ByFile[uri])
	}
	return res
}

func (r *Result) add(uri string, d Diagnostic) {
	r.ByFile[uri] = append(r.ByFile[uri], d)
}

func unresolvedMessage(u resolve.Unresolved) string {
	if u.Reason == resolve.ReasonConstraintTarget {
		return fmt.Sprintf("Invalid dependency target '%s': constraints cannot be depended on", u.Reference.Path)
	}
	return fmt.Sprintf("Unresolved reference '%s'", u.Reference.Path)
}
