// Package graph projects the symbol index onto a directed dependency graph.
//
// The graph is never mutated after Build. It is cheap enough to rebuild on
// every diagnostics pass, which keeps it from drifting out of sync with the
// index it was built from.
package graph

import (
	"reqls/internal/resolve"
	"reqls/internal/symbols"
)

// Edge is one resolved dependency reference.
type Edge struct {
	From      string            `json:"from" yaml:"from" toml:"from"`
	To        string            `json:"to" yaml:"to" toml:"to"`
	FileURI   string            `json:"fileUri" yaml:"fileUri" toml:"fileUri"`
	Reference symbols.Reference `json:"reference" yaml:"reference" toml:"reference"`
}

// Stats summarises graph size.
type Stats struct {
	Nodes int `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges int `json:"edges" yaml:"edges" toml:"edges"`
}

// Graph is a sparse directed graph over module, feature and requirement
// paths.
type Graph struct {
	nodes   []string
	nodeIdx map[string]int

	// outEdges[i] and inEdges[i] hold indices into edges.
	outEdges [][]int
	inEdges  [][]int
	edges    []Edge
	sources  []int
	targets  []int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodeIdx: make(map[string]int)}
}

// Build constructs the graph from the current contents of idx. Nodes and
// edges are inserted in index enumeration order, so traversal order is
// stable for a given index.
func Build(idx *symbols.Index) *Graph {
	g := NewGraph()
	all := idx.Symbols()
	for _, s := range all {
		if s.Kind.IsDependencyNode() {
			g.AddNode(s.Path)
		}
	}

	r := resolve.New(idx)
	for _, s := range all {
		if !s.Kind.IsDependencyNode() {
			continue
		}
		for _, ref := range s.References() {
			target, _ := r.ResolveDependency(ref)
			if target == nil {
				continue
			}
			g.AddEdge(Edge{From: s.Path, To: target.Path, FileURI: s.FileURI, Reference: ref})
		}
	}
	return g
}

// AddNode adds a node if it doesn't exist and returns its index.
func (g *Graph) AddNode(path string) int {
	if i, ok := g.nodeIdx[path]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, path)
	g.nodeIdx[path] = i
	g.outEdges = append(g.outEdges, nil)
	g.inEdges = append(g.inEdges, nil)
	return i
}

// AddEdge adds e, creating missing endpoints. Parallel edges are kept since
// each carries its own source location.
func (g *Graph) AddEdge(e Edge) {
	src := g.AddNode(e.From)
	dst := g.AddNode(e.To)
	id := len(g.edges)
	g.edges = append(g.edges, e)
	g.sources = append(g.sources, src)
	g.targets = append(g.targets, dst)
	g.outEdges[src] = append(g.outEdges[src], id)
	g.inEdges[dst] = append(g.inEdges[dst], id)
}

// HasNode reports whether path is a node.
func (g *Graph) HasNode(path string) bool {
	_, ok := g.nodeIdx[path]
	return ok
}

// Nodes returns node paths in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// OutEdges returns the edges leaving path.
func (g *Graph) OutEdges(path string) []Edge {
	i, ok := g.nodeIdx[path]
	if !ok {
		return nil
	}
	out := make([]Edge, 0, len(g.outEdges[i]))
	for _, id := range g.outEdges[i] {
		out = append(out, g.edges[id])
	}
	return out
}

// Stats returns node and edge counts.
func (g *Graph) Stats() Stats {
	return Stats{Nodes: len(g.nodes), Edges: len(g.edges)}
}
