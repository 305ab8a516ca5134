package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"reqls/internal/diagnostics"
	"reqls/internal/symbols"
)

type GetSymbolArgs struct {
	Path string `json:"path" jsonschema:"Dotted path of the symbol, e.g. auth.login"`
}

type ListSymbolsArgs struct {
	Kind string `json:"kind,omitempty" jsonschema:"Restrict to module, feature, requirement or constraint"`
}

type ResolveReferenceArgs struct {
	Path string `json:"path" jsonschema:"Dependency path as written after @depends-on"`
}

type WouldCreateCycleArgs struct {
	From string `json:"from" jsonschema:"Path of the dependent symbol"`
	To   string `json:"to" jsonschema:"Path of the dependency to add"`
}

type DependencyCandidatesArgs struct {
	From  string `json:"from" jsonschema:"Path of the symbol that would gain the dependency"`
	Scope string `json:"scope,omitempty" jsonschema:"Only return targets within this path scope"`
}

type WorkspaceDiagnosticsArgs struct{}

type symbolView struct {
	Path        string   `json:"path"`
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Parent      string   `json:"parent,omitempty"`
	Description string   `json:"description,omitempty"`
	URI         string   `json:"uri"`
	Line        int      `json:"line"`
	DependsOn   []string `json:"dependsOn,omitempty"`
}

func viewOf(sym *symbols.Symbol) symbolView {
	v := symbolView{
		Path:        sym.Path,
		Name:        sym.Name,
		Kind:        string(sym.Kind),
		Parent:      sym.Parent,
		Description: sym.Description,
		URI:         sym.FileURI,
		Line:        sym.NameLocation.StartLine,
	}
	for _, ref := range sym.References() {
		v.DependsOn = append(v.DependsOn, ref.Path)
	}
	return v
}

func viewsOf(syms []*symbols.Symbol) []symbolView {
	out := make([]symbolView, 0, len(syms))
	for _, sym := range syms {
		out = append(out, viewOf(sym))
	}
	return out
}

func (s *MCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_symbol",
		Description: "Returns every declaration of a symbol path",
	}, s.getSymbol)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_symbols",
		Description: "Lists indexed symbols, optionally of one kind",
	}, s.listSymbols)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_reference",
		Description: "Resolves a dependency path to the symbol it names",
	}, s.resolveReference)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "would_create_cycle",
		Description: "Reports whether adding a dependency from one symbol to another would create a cycle",
	}, s.wouldCreateCycle)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "dependency_candidates",
		Description: "Lists symbols that can be added as dependencies without creating a cycle. The symbol itself and paths under it are never offered",
	}, s.dependencyCandidates)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "workspace_diagnostics",
		Description: "Returns the current diagnostics of every file in the workspace",
	}, s.workspaceDiagnostics)
}

func (s *MCPServer) getSymbol(_ context.Context, _ *mcp.CallToolRequest, args GetSymbolArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		return errorResult("path is required"), nil, nil
	}
	syms := s.session.Symbol(args.Path)
	if len(syms) == 0 {
		return errorResult(fmt.Sprintf("symbol not found: %s", args.Path)), nil, nil
	}
	return jsonResult(viewsOf(syms))
}

func (s *MCPServer) listSymbols(_ context.Context, _ *mcp.CallToolRequest, args ListSymbolsArgs) (*mcp.CallToolResult, any, error) {
	if args.Kind == "" {
		return jsonResult(viewsOf(s.session.Symbols()))
	}
	kind, ok := symbols.ParseKind(args.Kind)
	if !ok {
		return errorResult(fmt.Sprintf("unknown kind %q", args.Kind)), nil, nil
	}
	return jsonResult(viewsOf(s.session.SymbolsByKind(kind)))
}

func (s *MCPServer) resolveReference(_ context.Context, _ *mcp.CallToolRequest, args ResolveReferenceArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		return errorResult("path is required"), nil, nil
	}
	sym := s.session.ResolveReference(args.Path)
	if sym == nil {
		return jsonResult(map[string]any{"path": args.Path, "resolved": false})
	}
	return jsonResult(map[string]any{"path": args.Path, "resolved": true, "symbol": viewOf(sym)})
}

func (s *MCPServer) wouldCreateCycle(_ context.Context, _ *mcp.CallToolRequest, args WouldCreateCycleArgs) (*mcp.CallToolResult, any, error) {
	if args.From == "" || args.To == "" {
		return errorResult("from and to are required"), nil, nil
	}
	cycle := s.session.WouldCreateCircularDependency(args.From, args.To)
	return jsonResult(map[string]any{"from": args.From, "to": args.To, "wouldCreateCycle": cycle})
}

func (s *MCPServer) dependencyCandidates(_ context.Context, _ *mcp.CallToolRequest, args DependencyCandidatesArgs) (*mcp.CallToolResult, any, error) {
	if args.From == "" {
		return errorResult("from is required"), nil, nil
	}
	candidates := s.session.DependencyCandidates(args.From, args.Scope)
	if candidates == nil {
		candidates = []string{}
	}
	return jsonResult(map[string]any{"from": args.From, "candidates": candidates})
}

func (s *MCPServer) workspaceDiagnostics(_ context.Context, _ *mcp.CallToolRequest, _ WorkspaceDiagnosticsArgs) (*mcp.CallToolResult, any, error) {
	pubs := s.session.AllDiagnostics()
	if pubs == nil {
		pubs = []diagnostics.Publication{}
	}
	return jsonResult(map[string]any{"files": pubs, "hasErrors": hasErrors(pubs)})
}

func hasErrors(pubs []diagnostics.Publication) bool {
	for _, p := range pubs {
		if diagnostics.HasErrors(p.Diagnostics) {
			return true
		}
	}
	return false
}
