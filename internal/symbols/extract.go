package symbols

import (
	"reqls/internal/ast"
)

// allowedParents encodes the containment hierarchy. The empty kind stands
// for the file root.
var allowedParents = map[Kind]map[Kind]bool{
	KindModule:      {"": true},
	KindFeature:     {KindModule: true},
	KindRequirement: {KindModule: true, KindFeature: true},
	KindConstraint:  {KindModule: true, KindFeature: true, KindRequirement: true},
}

// Extract flattens a document into symbols attributed to uri.
//
// Nodes without a name, and nodes placed where the hierarchy does not allow
// them, are skipped together with their subtree. Extract never fails.
func Extract(uri string, doc *ast.Document) []*Symbol {
	if doc == nil || doc.Root == nil {
		return nil
	}
	e := &extractor{uri: uri}
	for _, child := range doc.Root.Children {
		e.visit(child, nil)
	}
	return e.out
}

type extractor struct {
	uri string
	out []*Symbol
}

func (e *extractor) visit(node *ast.Node, parent *Symbol) {
	if node == nil {
		return
	}

	if node.Type == ast.DependsOn {
		if parent != nil && parent.Kind.IsDependencyNode() {
			if decl, ok := dependencyDeclaration(node); ok {
				parent.Dependencies = append(parent.Dependencies, decl)
			}
		}
		return
	}

	kind, ok := kindForNode(node.Type)
	if !ok || node.Name == "" {
		return
	}

	var parentKind Kind
	var parentPath string
	if parent != nil {
		parentKind = parent.Kind
		parentPath = parent.Path
	}
	if !allowedParents[kind][parentKind] {
		return
	}

	sym := &Symbol{
		Kind:         kind,
		Name:         node.Name,
		Path:         JoinPath(parentPath, node.Name),
		Parent:       parentPath,
		FileURI:      e.uri,
		Location:     node.Location,
		NameLocation: node.NameLocation,
		Description:  node.Description,
	}
	if sym.NameLocation == (ast.Location{}) {
		sym.NameLocation = node.Location
	}
	e.out = append(e.out, sym)

	if kind == KindConstraint {
		if parent != nil {
			parent.Constraints = append(parent.Constraints, ConstraintRef{
				Name:     sym.Name,
				Path:     sym.Path,
				Location: sym.Location,
			})
		}
		return
	}

	for _, child := range node.Children {
		e.visit(child, sym)
	}
}

func dependencyDeclaration(node *ast.Node) (DependencyDeclaration, bool) {
	decl := DependencyDeclaration{Location: node.Location}
	for _, child := range node.Children {
		if child == nil || child.Type != ast.Reference || child.Name == "" {
			continue
		}
		decl.References = append(decl.References, NewReference(child.Name, child.Location))
	}
	return decl, len(decl.References) > 0
}
