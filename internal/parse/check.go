package parse

import (
	"fmt"

	"reqls/internal/diagnostics"
	"reqls/internal/symbols"
)

// Check returns the diagnostics that depend on this document alone: syntax
// errors and identifiers declared twice at the same path in the file.
// Cross-file duplicates are allowed and not reported.
func Check(res *Result) []diagnostics.Diagnostic {
	if res == nil {
		return nil
	}
	var out []diagnostics.Diagnostic
	for _, e := range res.Errors {
		out = append(out, diagnostics.Diagnostic{
			Range:    diagnostics.RangeOf(e.Location),
			Severity: diagnostics.SeverityError,
			Code:     diagnostics.CodeSyntaxError,
			Source:   diagnostics.Source,
			Message:  e.Message,
		})
	}

	var uri string
	if res.Document != nil {
		uri = res.Document.URI
	}
	seen := make(map[string]bool)
	for _, s := range symbols.Extract(uri, res.Document) {
		if !seen[s.Path] {
			seen[s.Path] = true
			continue
		}
		out = append(out, diagnostics.Diagnostic{
			Range:    diagnostics.RangeOf(s.NameLocation),
			Severity: diagnostics.SeverityError,
			Code:     diagnostics.CodeDuplicateIdentifier,
			Source:   diagnostics.Source,
			Message:  fmt.Sprintf("Duplicate %s '%s'", s.Kind, s.Path),
		})
	}

	diagnostics.Sort(out)
	return out
}
