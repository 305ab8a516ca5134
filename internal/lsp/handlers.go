package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reqls/internal/paths"
	"reqls/internal/symbols"
	"reqls/internal/workspace"
)

type requestHandler func(s *Server, ctx context.Context, params json.RawMessage) (any, *RpcError)

type notificationHandler func(s *Server, ctx context.Context, params json.RawMessage) error

var requestHandlers map[string]requestHandler

var notificationHandlers map[string]notificationHandler

func init() {
	requestHandlers = map[string]requestHandler{
		"initialize":              (*Server).initialize,
		"shutdown":                (*Server).shutdown,
		"workspace/symbol":        (*Server).workspaceSymbol,
		"textDocument/definition": (*Server).definition,
		"textDocument/hover":      (*Server).hover,
	}
	notificationHandlers = map[string]notificationHandler{
		"initialized":                     (*Server).initialized,
		"textDocument/didOpen":            (*Server).didOpen,
		"textDocument/didChange":          (*Server).didChange,
		"textDocument/didSave":            (*Server).didSave,
		"textDocument/didClose":           (*Server).didClose,
		"workspace/didChangeWatchedFiles": (*Server).didChangeWatchedFiles,
	}
}

func (s *Server) initialize(_ context.Context, params json.RawMessage) (any, *RpcError) {
	if s.currentState() != stateNew {
		return nil, &RpcError{Code: InvalidRequest, Message: "initialize called twice"}
	}
	var p initializeParams
	if rpcErr := decode(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	root, err := rootFrom(p)
	if err != nil {
		return nil, &RpcError{Code: InvalidParams, Message: err.Error()}
	}

	cfg, err := s.opts.LoadConfig(root)
	if err != nil {
		s.logger.Warn("Invalid workspace config, using defaults", "root", root, "error", err.Error())
		cfg = nil
	} else if err := cfg.Validate(); err != nil {
		s.logger.Warn("Invalid workspace config, using defaults", "root", root, "error", err.Error())
		cfg = nil
	}

	session := workspace.NewFromConfig(root, cfg, s.logger, workspace.PublisherFunc(s.Publish))
	s.mu.Lock()
	s.session = session
	s.state = stateRunning
	s.mu.Unlock()

	s.logger.Info("Initialized", "root", root, "session", session.ID())
	return s.capabilities(), nil
}

func (s *Server) initialized(ctx context.Context, _ json.RawMessage) error {
	session := s.Session()
	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		if _, err := session.Load(ctx); err != nil {
			s.logger.Warn("Workspace load failed", "root", session.Root(), "error", err.Error())
		}
	}()
	return nil
}

func (s *Server) shutdown(ctx context.Context, _ json.RawMessage) (any, *RpcError) {
	s.loads.Wait()
	s.Session().Shutdown(ctx)
	s.mu.Lock()
	s.state = stateShutdown
	s.mu.Unlock()
	s.logger.Info("Shutdown requested")
	return nil, nil
}

func (s *Server) didOpen(ctx context.Context, params json.RawMessage) error {
	var p didOpenParams
	if rpcErr := decode(params, &p); rpcErr != nil {
		return rpcErr
	}
	s.Session().Open(ctx, p.TextDocument.URI, p.TextDocument.Version, p.TextDocument.Text)
	return nil
}

func (s *Server) didChange(ctx context.Context, params json.RawMessage) error {
	var p didChangeParams
	if rpcErr := decode(params, &p); rpcErr != nil {
		return rpcErr
	}
	if len(p.ContentChanges) == 0 {
		return nil
	}
	// full sync: the last change carries the whole document
	text := p.ContentChanges[len(p.ContentChanges)-1].Text
	s.Session().Change(ctx, p.TextDocument.URI, p.TextDocument.Version, text)
	return nil
}

func (s *Server) didSave(ctx context.Context, params json.RawMessage) error {
	var p didSaveParams
	if rpcErr := decode(params, &p); rpcErr != nil {
		return rpcErr
	}
	s.Session().Save(ctx, p.TextDocument.URI, p.Text)
	return nil
}

func (s *Server) didClose(ctx context.Context, params json.RawMessage) error {
	var p didCloseParams
	if rpcErr := decode(params, &p); rpcErr != nil {
		return rpcErr
	}
	s.Session().Close(ctx, p.TextDocument.URI)
	return nil
}

func (s *Server) didChangeWatchedFiles(ctx context.Context, params json.RawMessage) error {
	var p didChangeWatchedFilesParams
	if rpcErr := decode(params, &p); rpcErr != nil {
		return rpcErr
	}
	session := s.Session()
	for _, change := range p.Changes {
		if change.Type != fileDeleted && !s.accepts(session, change.URI) {
			continue
		}
		switch change.Type {
		case fileCreated:
			session.FileCreated(ctx, change.URI)
		case fileChanged:
			session.FileChanged(ctx, change.URI)
		case fileDeleted:
			session.FileDeleted(ctx, change.URI)
		default:
			s.logger.Debug("Unknown file change type", "uri", change.URI, "type", change.Type)
		}
	}
	return nil
}

// accepts reports whether uri is a document the workspace configuration
// selects.
func (s *Server) accepts(session *workspace.Session, uri string) bool {
	p, err := paths.PathFromURI(uri)
	if err != nil || !paths.IsWithinRoot(p, session.Root()) {
		return false
	}
	rel, err := paths.CanonicalizePath(p, session.Root())
	if err != nil {
		return false
	}
	return session.Accepts(rel)
}

func (s *Server) workspaceSymbol(_ context.Context, params json.RawMessage) (any, *RpcError) {
	var p workspaceSymbolParams
	if rpcErr := decode(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	out := make([]symbolInformation, 0)
	for _, sym := range s.Session().SearchSymbols(p.Query) {
		out = append(out, symbolInformation{
			Name:          sym.Name,
			Kind:          symbolKindOf(sym.Kind),
			Location:      Location{URI: sym.FileURI, Range: rangeOf(sym.NameLocation)},
			ContainerName: sym.Parent,
		})
	}
	return out, nil
}

func (s *Server) definition(_ context.Context, params json.RawMessage) (any, *RpcError) {
	var p textDocumentPositionParams
	if rpcErr := decode(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	target, ok := s.Session().Lookup(p.TextDocument.URI, p.Position.Line, p.Position.Character)
	if !ok || target.Reference == nil || target.Resolved == nil {
		return nil, nil
	}
	return Location{URI: target.Resolved.FileURI, Range: rangeOf(target.Resolved.NameLocation)}, nil
}

func (s *Server) hover(_ context.Context, params json.RawMessage) (any, *RpcError) {
	var p textDocumentPositionParams
	if rpcErr := decode(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	target, ok := s.Session().Lookup(p.TextDocument.URI, p.Position.Line, p.Position.Character)
	if !ok {
		return nil, nil
	}

	if target.Reference != nil {
		r := rangeOf(target.Reference.Location)
		if target.Resolved == nil {
			return hover{
				Contents: markupContent{Kind: "markdown", Value: fmt.Sprintf("Unresolved reference `%s`", target.Reference.Path)},
				Range:    &r,
			}, nil
		}
		return hover{Contents: describe(target.Resolved, s.Session().Tickets(target.Resolved.Path)), Range: &r}, nil
	}

	if !target.Owner.NameLocation.Contains(p.Position.Line, p.Position.Character) {
		return nil, nil
	}
	r := rangeOf(target.Owner.NameLocation)
	return hover{Contents: describe(target.Owner, s.Session().Tickets(target.Owner.Path)), Range: &r}, nil
}

func describe(sym *symbols.Symbol, tickets []string) markupContent {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** `%s`", sym.Kind, sym.Path)
	if sym.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(sym.Description)
	}
	if refs := sym.References(); len(refs) > 0 {
		b.WriteString("\n\nDepends on: ")
		for i, ref := range refs {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "`%s`", ref.Path)
		}
	}
	if len(tickets) > 0 {
		b.WriteString("\n\nCovered by: ")
		b.WriteString(strings.Join(tickets, ", "))
	}
	return markupContent{Kind: "markdown", Value: b.String()}
}
