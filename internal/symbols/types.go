// Package symbols holds the workspace symbol table for requirement documents.
//
// Each indexed file contributes a flat list of declarations (modules,
// features, requirements and constraints) addressed by their dot-joined
// path. Re-indexing a file replaces everything previously attributed to it.
package symbols

import (
	"strings"

	"reqls/internal/ast"
)

// Kind is the declaration kind of a symbol.
type Kind string

const (
	KindModule      Kind = "module"
	KindFeature     Kind = "feature"
	KindRequirement Kind = "requirement"
	KindConstraint  Kind = "constraint"
)

// Kinds lists every kind in containment order.
var Kinds = []Kind{KindModule, KindFeature, KindRequirement, KindConstraint}

// ParseKind maps a user supplied string to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "module", "modules":
		return KindModule, true
	case "feature", "features":
		return KindFeature, true
	case "requirement", "requirements":
		return KindRequirement, true
	case "constraint", "constraints":
		return KindConstraint, true
	}
	return "", false
}

// IsDependencyNode reports whether symbols of this kind take part in the
// dependency graph. Constraints never do.
func (k Kind) IsDependencyNode() bool {
	return k == KindModule || k == KindFeature || k == KindRequirement
}

func kindForNode(t ast.NodeType) (Kind, bool) {
	switch t {
	case ast.ModuleBlock:
		return KindModule, true
	case ast.FeatureBlock:
		return KindFeature, true
	case ast.RequirementBlock:
		return KindRequirement, true
	case ast.Constraint:
		return KindConstraint, true
	}
	return "", false
}

// Reference is a dependency path as written by the author.
type Reference struct {
	Path     string       `json:"path" yaml:"path" toml:"path"`
	Parts    []string     `json:"parts" yaml:"parts" toml:"parts"`
	Location ast.Location `json:"location" yaml:"location" toml:"location"`
}

// NewReference splits path into its parts.
func NewReference(path string, loc ast.Location) Reference {
	return Reference{Path: path, Parts: SplitPath(path), Location: loc}
}

// DependencyDeclaration is one @depends-on clause.
type DependencyDeclaration struct {
	References []Reference  `json:"references" yaml:"references" toml:"references"`
	Location   ast.Location `json:"location" yaml:"location" toml:"location"`
}

// ConstraintRef points at a constraint nested directly under a symbol.
type ConstraintRef struct {
	Name     string       `json:"name" yaml:"name" toml:"name"`
	Path     string       `json:"path" yaml:"path" toml:"path"`
	Location ast.Location `json:"location" yaml:"location" toml:"location"`
}

// Symbol is one indexed declaration.
type Symbol struct {
	Kind         Kind                    `json:"kind" yaml:"kind" toml:"kind"`
	Name         string                  `json:"name" yaml:"name" toml:"name"`
	Path         string                  `json:"path" yaml:"path" toml:"path"`
	Parent       string                  `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty"`
	FileURI      string                  `json:"fileUri" yaml:"fileUri" toml:"fileUri"`
	Location     ast.Location            `json:"location" yaml:"location" toml:"location"`
	NameLocation ast.Location            `json:"nameLocation" yaml:"nameLocation" toml:"nameLocation"`
	Description  string                  `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Dependencies []DependencyDeclaration `json:"dependencies,omitempty" yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
	Constraints  []ConstraintRef         `json:"constraints,omitempty" yaml:"constraints,omitempty" toml:"constraints,omitempty"`
}

// References returns every reference across all dependency declarations.
func (s *Symbol) References() []Reference {
	var refs []Reference
	for _, decl := range s.Dependencies {
		refs = append(refs, decl.References...)
	}
	return refs
}

// JoinPath joins path segments with dots, skipping empty ones.
func JoinPath(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// SplitPath splits a dotted path. An empty path yields nil.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
