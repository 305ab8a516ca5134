package workspace

import (
	"sort"
	"strings"

	"reqls/internal/ast"
	"reqls/internal/diagnostics"
	"reqls/internal/graph"
	"reqls/internal/resolve"
	"reqls/internal/symbols"
)

// Stats describes the current state of a session.
type Stats struct {
	Files         int `json:"files" yaml:"files" toml:"files"`
	Symbols       int `json:"symbols" yaml:"symbols" toml:"symbols"`
	Nodes         int `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges         int `json:"edges" yaml:"edges" toml:"edges"`
	Cycles        int `json:"cycles" yaml:"cycles" toml:"cycles"`
	Unresolved    int `json:"unresolved" yaml:"unresolved" toml:"unresolved"`
	OpenDocuments int `json:"openDocuments" yaml:"openDocuments" toml:"openDocuments"`
}

// Target is what sits under a cursor position.
type Target struct {
	// Owner is the innermost symbol containing the position.
	Owner *symbols.Symbol
	// Reference is set when the position is on a dependency path.
	Reference *symbols.Reference
	// Resolved is the symbol the reference resolves to, or Owner when the
	// position is on a declaration.
	Resolved *symbols.Symbol
}

// Symbol returns every symbol declared at path.
func (s *Session) Symbol(path string) []*symbols.Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.GetSymbol(path)
}

// SymbolsByKind returns every symbol of kind.
func (s *Session) SymbolsByKind(kind symbols.Kind) []*symbols.Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.GetSymbolsByKind(kind)
}

// Symbols returns every indexed symbol in enumeration order.
func (s *Session) Symbols() []*symbols.Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.Symbols()
}

// SearchSymbols returns symbols whose name or path contains query,
// case-insensitively. An empty query matches everything.
func (s *Session) SearchSymbols(query string) []*symbols.Symbol {
	q := strings.ToLower(query)
	var out []*symbols.Symbol
	for _, sym := range s.Symbols() {
		if q == "" || strings.Contains(strings.ToLower(sym.Name), q) || strings.Contains(strings.ToLower(sym.Path), q) {
			out = append(out, sym)
		}
	}
	return out
}

// ResolveReference returns the symbol a dependency path written as path
// resolves to, or nil.
func (s *Session) ResolveReference(path string) *symbols.Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return resolve.New(s.idx).ResolveReference(symbols.NewReference(path, ast.Location{}))
}

// WouldCreateCircularDependency reports whether adding from -> to would
// close a cycle in the current graph.
func (s *Session) WouldCreateCircularDependency(from, to string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graphLocked().WouldCreateCircularDependency(from, to)
}

// DependencyCandidates returns the dependency-node paths from can depend on
// without creating a cycle. Paths that lie under from are dropped using the
// session's scope mode, so in prefix mode "auth" is not offered
// "authorization" either. A non-empty scope keeps only paths under it.
func (s *Session) DependencyCandidates(from, scope string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, p := range s.graphLocked().ValidTargets(from) {
		if from != "" && resolve.InScope(p, from, s.opts.ScopeMode) {
			continue
		}
		if resolve.InScope(p, scope, s.opts.ScopeMode) {
			out = append(out, p)
		}
	}
	return out
}

// Dependencies returns every path that path transitively depends on.
func (s *Session) Dependencies(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graphLocked().Dependencies(path)
}

// Tickets returns the ids of the coverage tickets that name path.
func (s *Session) Tickets(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickets.Tickets(path)
}

// Dependents returns every path that transitively depends on path.
func (s *Session) Dependents(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graphLocked().Dependents(path)
}

// Diagnostics returns the current local and workspace diagnostics of uri.
func (s *Session) Diagnostics(uri string) []diagnostics.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.Merged(uri, s.local[uri])
}

// AllDiagnostics returns one publication per file that has diagnostics,
// sorted by URI.
func (s *Session) AllDiagnostics() []diagnostics.Publication {
	s.mu.Lock()
	defer s.mu.Unlock()

	uris := make(map[string]struct{})
	for uri := range s.local {
		uris[uri] = struct{}{}
	}
	for _, uri := range s.pipeline.Last().Files() {
		uris[uri] = struct{}{}
	}
	pubs := make([]diagnostics.Publication, 0, len(uris))
	for uri := range uris {
		pubs = append(pubs, diagnostics.Publication{URI: uri, Diagnostics: s.pipeline.Merged(uri, s.local[uri])})
	}
	sort.Slice(pubs, func(i, j int) bool { return pubs[i].URI < pubs[j].URI })
	return pubs
}

// Cycles returns the cycles found by the last pass.
func (s *Session) Cycles() []graph.Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.Last().Cycles
}

// Stats returns counts for the current state.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := s.graphLocked().Stats()
	last := s.pipeline.Last()
	return Stats{
		Files:         s.idx.GetFileCount(),
		Symbols:       s.idx.GetSymbolCount(),
		Nodes:         gs.Nodes,
		Edges:         gs.Edges,
		Cycles:        len(last.Cycles),
		Unresolved:    len(last.Unresolved),
		OpenDocuments: len(s.open),
	}
}

// Lookup finds what is at a 0-based position in uri. It returns false when
// the position is outside every declaration.
func (s *Session) Lookup(uri string, line, col int) (Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var t Target
	for _, sym := range s.idx.SymbolsInFile(uri) {
		if !sym.Location.Contains(line, col) {
			continue
		}
		// pre-order, so later matches are nested deeper
		t.Owner = sym
	}
	if t.Owner == nil {
		return Target{}, false
	}

	for _, ref := range t.Owner.References() {
		if ref.Location.Contains(line, col) {
			t.Reference = &ref
			t.Resolved = resolve.New(s.idx).ResolveReference(ref)
			return t, true
		}
	}
	t.Resolved = t.Owner
	return t, true
}

// graphLocked returns the graph of the last pass, building one when no pass
// has run yet.
func (s *Session) graphLocked() *graph.Graph {
	if g := s.pipeline.Last().Graph; g != nil {
		return g
	}
	return graph.Build(s.idx)
}
