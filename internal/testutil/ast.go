// Package testutil provides syntax tree builders for tests.
//
// Builders assign every node a distinct line so that locations never collide
// inside a document. Tests that need exact positions use Ref.
package testutil

import (
	"sync/atomic"

	"reqls/internal/ast"
)

var nextLine atomic.Int64

func loc(width int) ast.Location {
	line := int(nextLine.Add(1))
	return ast.Location{StartLine: line, StartColumn: 2, EndLine: line, EndColumn: 2 + width}
}

// Doc wraps top-level blocks into a document.
func Doc(uri string, blocks ...*ast.Node) *ast.Document {
	return &ast.Document{
		URI:  uri,
		Root: &ast.Node{Type: ast.SourceFile, Children: blocks},
	}
}

func block(t ast.NodeType, name string, children []*ast.Node) *ast.Node {
	l := loc(len(name))
	return &ast.Node{Type: t, Name: name, Location: l, NameLocation: l, Children: children}
}

// Module builds a module block.
func Module(name string, children ...*ast.Node) *ast.Node {
	return block(ast.ModuleBlock, name, children)
}

// Feature builds a feature block.
func Feature(name string, children ...*ast.Node) *ast.Node {
	return block(ast.FeatureBlock, name, children)
}

// Requirement builds a requirement block.
func Requirement(name string, children ...*ast.Node) *ast.Node {
	return block(ast.RequirementBlock, name, children)
}

// Constraint builds a constraint.
func Constraint(name string) *ast.Node {
	return block(ast.Constraint, name, nil)
}

// Described sets the description of a block and returns it.
func Described(n *ast.Node, text string) *ast.Node {
	n.Description = text
	return n
}

// DependsOn builds a @depends-on clause over the given paths.
func DependsOn(paths ...string) *ast.Node {
	refs := make([]*ast.Node, 0, len(paths))
	for _, p := range paths {
		refs = append(refs, &ast.Node{Type: ast.Reference, Name: p, Location: loc(len(p))})
	}
	return DependsOnRefs(refs...)
}

// DependsOnRefs builds a @depends-on clause from reference nodes.
func DependsOnRefs(refs ...*ast.Node) *ast.Node {
	return &ast.Node{Type: ast.DependsOn, Location: loc(len("@depends-on")), Children: refs}
}

// Ref builds a reference node at an explicit position.
func Ref(path string, line, col int) *ast.Node {
	return &ast.Node{
		Type: ast.Reference,
		Name: path,
		Location: ast.Location{
			StartLine: line, StartColumn: col,
			EndLine: line, EndColumn: col + len(path),
		},
	}
}
