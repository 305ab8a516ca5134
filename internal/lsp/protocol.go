package lsp

import (
	"reqls/internal/ast"
	"reqls/internal/diagnostics"
	"reqls/internal/symbols"
)

// Position is a 0-based line and UTF-16 character offset.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location is a range inside a document.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

func rangeOf(loc ast.Location) Range {
	return Range{
		Start: Position{Line: loc.StartLine, Character: loc.StartColumn},
		End:   Position{Line: loc.EndLine, Character: loc.EndColumn},
	}
}

type workspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

type initializeParams struct {
	ProcessID        *int              `json:"processId"`
	RootURI          string            `json:"rootUri"`
	RootPath         string            `json:"rootPath"`
	WorkspaceFolders []workspaceFolder `json:"workspaceFolders"`
}

type saveOptions struct {
	IncludeText bool `json:"includeText"`
}

type textDocumentSyncOptions struct {
	OpenClose bool        `json:"openClose"`
	Change    int         `json:"change"`
	Save      saveOptions `json:"save"`
}

// TextDocumentSyncKind
const syncFull = 1

type serverCapabilities struct {
	TextDocumentSync        textDocumentSyncOptions `json:"textDocumentSync"`
	DefinitionProvider      bool                    `json:"definitionProvider"`
	WorkspaceSymbolProvider bool                    `json:"workspaceSymbolProvider"`
	HoverProvider           bool                    `json:"hoverProvider"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
	ServerInfo   serverInfo         `json:"serverInfo"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type textDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int32  `json:"version"`
	Text       string `json:"text"`
}

type versionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int32  `json:"version"`
}

type contentChange struct {
	Text string `json:"text"`
}

type didOpenParams struct {
	TextDocument textDocumentItem `json:"textDocument"`
}

type didChangeParams struct {
	TextDocument   versionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []contentChange                 `json:"contentChanges"`
}

type didSaveParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text"`
}

type didCloseParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

// FileChangeType
const (
	fileCreated = 1
	fileChanged = 2
	fileDeleted = 3
)

type fileEvent struct {
	URI  string `json:"uri"`
	Type int    `json:"type"`
}

type didChangeWatchedFilesParams struct {
	Changes []fileEvent `json:"changes"`
}

type textDocumentPositionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

type workspaceSymbolParams struct {
	Query string `json:"query"`
}

// SymbolKind values from the protocol.
const (
	symbolKindModule    = 2
	symbolKindNamespace = 3
	symbolKindClass     = 5
	symbolKindConstant  = 14
)

func symbolKindOf(k symbols.Kind) int {
	switch k {
	case symbols.KindModule:
		return symbolKindModule
	case symbols.KindFeature:
		return symbolKindNamespace
	case symbols.KindRequirement:
		return symbolKindClass
	default:
		return symbolKindConstant
	}
}

type symbolInformation struct {
	Name          string   `json:"name"`
	Kind          int      `json:"kind"`
	Location      Location `json:"location"`
	ContainerName string   `json:"containerName,omitempty"`
}

type markupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type hover struct {
	Contents markupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// Diagnostic is the wire form of diagnostics.Diagnostic.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity"`
	Code     string `json:"code"`
	Source   string `json:"source"`
	Message  string `json:"message"`
	Data     any    `json:"data,omitempty"`
}

type publishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

func toProtocol(pub diagnostics.Publication) publishDiagnosticsParams {
	out := publishDiagnosticsParams{URI: pub.URI, Diagnostics: make([]Diagnostic, 0, len(pub.Diagnostics))}
	for _, d := range pub.Diagnostics {
		wire := Diagnostic{
			Range: Range{
				Start: Position{Line: d.Range.Start.Line, Character: d.Range.Start.Character},
				End:   Position{Line: d.Range.End.Line, Character: d.Range.End.Character},
			},
			Severity: int(d.Severity),
			Code:     d.Code,
			Source:   d.Source,
			Message:  d.Message,
		}
		if len(d.RelatedPaths) > 0 {
			wire.Data = map[string]any{"relatedPaths": d.RelatedPaths}
		}
		out.Diagnostics = append(out.Diagnostics, wire)
	}
	return out
}
