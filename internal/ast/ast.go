// Package ast defines the syntax tree handed over by the parser.
//
// The tree is intentionally small: only the block kinds the workspace index
// cares about are represented. Every node carries a 0-based source range.
package ast

// NodeType identifies the kind of a syntax node.
type NodeType string

const (
	SourceFile       NodeType = "source_file"
	ModuleBlock      NodeType = "module_block"
	FeatureBlock     NodeType = "feature_block"
	RequirementBlock NodeType = "requirement_block"
	Constraint       NodeType = "constraint"
	DependsOn        NodeType = "depends_on"
	Reference        NodeType = "reference"
)

// Location is a 0-based source range. End is exclusive in the column.
type Location struct {
	StartLine   int `json:"startLine" yaml:"startLine" toml:"startLine"`
	StartColumn int `json:"startColumn" yaml:"startColumn" toml:"startColumn"`
	EndLine     int `json:"endLine" yaml:"endLine" toml:"endLine"`
	EndColumn   int `json:"endColumn" yaml:"endColumn" toml:"endColumn"`
}

// Contains reports whether the position lies inside the range.
func (l Location) Contains(line, col int) bool {
	if line < l.StartLine || line > l.EndLine {
		return false
	}
	if line == l.StartLine && col < l.StartColumn {
		return false
	}
	if line == l.EndLine && col > l.EndColumn {
		return false
	}
	return true
}

// Node is one syntax node.
//
// For block nodes Name is the declared identifier; for Reference nodes it is
// the dotted path exactly as written. Description is the optional quoted
// text following a block name.
type Node struct {
	Type        NodeType
	Name        string
	Description string
	Location    Location
	// NameLocation covers only the identifier token, when known.
	NameLocation Location
	Children     []*Node
}

// Document is a parsed file.
type Document struct {
	URI  string
	Root *Node
}

// Walk visits node and its descendants in pre-order. Returning false from fn
// skips the children of that node.
func Walk(node *Node, fn func(*Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for _, child := range node.Children {
		Walk(child, fn)
	}
}
