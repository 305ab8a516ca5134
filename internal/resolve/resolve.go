// Package resolve maps written dependency paths onto indexed symbols.
package resolve

import (
	"strings"

	"reqls/internal/symbols"
)

// Reason explains why a reference did not resolve.
type Reason string

const (
	// ReasonMissing means no symbol is declared at the path.
	ReasonMissing Reason = "missing"
	// ReasonConstraintTarget means the path names a constraint, which is
	// never a valid dependency target.
	ReasonConstraintTarget Reason = "constraint-target"
)

// Unresolved is one reference occurrence that failed dependency resolution.
type Unresolved struct {
	Reference symbols.Reference `json:"reference" yaml:"reference" toml:"reference"`
	FileURI   string            `json:"fileUri" yaml:"fileUri" toml:"fileUri"`
	Owner     string            `json:"owner" yaml:"owner" toml:"owner"`
	Reason    Reason            `json:"reason" yaml:"reason" toml:"reason"`
}

// Resolver answers resolution queries against one index snapshot.
type Resolver struct {
	idx *symbols.Index
}

// New creates a resolver over idx.
func New(idx *symbols.Index) *Resolver {
	return &Resolver{idx: idx}
}

// ResolveReference returns the first symbol of any kind declared at
// ref.Path. Matching is exact.
func (r *Resolver) ResolveReference(ref symbols.Reference) *symbols.Symbol {
	syms := r.idx.GetSymbol(ref.Path)
	if len(syms) == 0 {
		return nil
	}
	return syms[0]
}

// ResolveDependency returns the first dependency node at ref.Path. When
// nothing qualifies the reason is returned instead.
func (r *Resolver) ResolveDependency(ref symbols.Reference) (*symbols.Symbol, Reason) {
	syms := r.idx.GetSymbol(ref.Path)
	if len(syms) == 0 {
		return nil, ReasonMissing
	}
	for _, s := range syms {
		if s.Kind.IsDependencyNode() {
			return s, ""
		}
	}
	return nil, ReasonConstraintTarget
}

// Unresolved scans every dependency declaration in the index and returns
// each reference that fails ResolveDependency, in index enumeration order.
func (r *Resolver) Unresolved() []Unresolved {
	var out []Unresolved
	for _, s := range r.idx.Symbols() {
		if !s.Kind.IsDependencyNode() {
			continue
		}
		for _, ref := range s.References() {
			if _, reason := r.ResolveDependency(ref); reason != "" {
				out = append(out, Unresolved{
					Reference: ref,
					FileURI:   s.FileURI,
					Owner:     s.Path,
					Reason:    reason,
				})
			}
		}
	}
	return out
}

// ScopeMode selects how InScope compares paths.
type ScopeMode string

const (
	// ScopePrefix is a plain string prefix check, so "auth" also matches
	// "authorization".
	ScopePrefix ScopeMode = "prefix"
	// ScopeSegment only matches the scope itself and its dot-separated
	// descendants.
	ScopeSegment ScopeMode = "segment"
)

// ParseScopeMode maps a config value to a ScopeMode. Unknown values fall
// back to ScopePrefix.
func ParseScopeMode(s string) ScopeMode {
	if ScopeMode(strings.ToLower(strings.TrimSpace(s))) == ScopeSegment {
		return ScopeSegment
	}
	return ScopePrefix
}

// InScope reports whether path lies under scope. An empty scope contains
// everything.
func InScope(path, scope string, mode ScopeMode) bool {
	if scope == "" {
		return true
	}
	if mode == ScopeSegment {
		return path == scope || strings.HasPrefix(path, scope+".")
	}
	return strings.HasPrefix(path, scope)
}
